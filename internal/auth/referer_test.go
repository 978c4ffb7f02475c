// SPDX-License-Identifier: MIT

package auth

import "testing"

func TestRefererGuard_IsAllowed(t *testing.T) {
	domains := []string{"example.com", "cdn.example.org"}

	tests := []struct {
		name    string
		enabled bool
		referer string
		want    bool
	}{
		{"disabled passes anything", false, "https://evil.test/page", true},
		{"empty referer passes", true, "", true},
		{"exact domain", true, "https://example.com/watch", true},
		{"subdomain", true, "https://www.example.com/watch", true},
		{"deep subdomain", true, "https://a.b.example.com/", true},
		{"second allowed domain", true, "http://cdn.example.org/player", true},
		{"unlisted domain", true, "https://evil.test/embed", false},
		{"suffix but not subdomain", true, "https://notexample.com/", false},
		{"domain inside path only", true, "https://evil.test/example.com", false},
		{"scheme-less referer", true, "example.com/watch", false},
		{"garbage referer", true, "http://%zz", false},
		{"port is ignored", true, "https://example.com:8443/watch", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewRefererGuard(tt.enabled, domains)
			if got := g.IsAllowed(tt.referer); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.referer, got, tt.want)
			}
		})
	}
}

func TestRefererGuard_EmptyDomainList(t *testing.T) {
	g := NewRefererGuard(true, nil)
	if g.IsAllowed("https://example.com/") {
		t.Error("with no allowed domains every non-empty referer must be rejected")
	}
	if !g.IsAllowed("") {
		t.Error("empty referer must still pass")
	}
}
