// SPDX-License-Identifier: MIT

package auth

import (
	"net/url"
	"strings"
)

// RefererGuard validates the Referer header's hostname against an allow-list
// of domains. It is a weak anti-embedding control: requests without a referer
// pass, so direct navigation and referer-stripping clients are not penalized.
type RefererGuard struct {
	enabled bool
	domains []string
}

// NewRefererGuard builds a guard. When enabled is false every referer passes.
func NewRefererGuard(enabled bool, domains []string) *RefererGuard {
	return &RefererGuard{enabled: enabled, domains: domains}
}

// IsAllowed reports whether a request carrying the given Referer header may
// consume media. An empty header is allowed; a header that fails to parse as
// a URL is rejected. Otherwise the hostname must equal an allowed domain or
// be a subdomain of one.
func (g *RefererGuard) IsAllowed(referer string) bool {
	if !g.enabled {
		return true
	}
	if referer == "" {
		return true
	}

	u, err := url.Parse(referer)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := u.Hostname()

	for _, domain := range g.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
