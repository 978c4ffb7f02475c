// SPDX-License-Identifier: MIT

package fsutil

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IsTraversalAttempt performs robust checks against path traversal attempts on
// raw client input, before any decoding the HTTP layer applies. It decodes the
// input multiple times to catch double-encoding, applies Unicode
// normalization, and searches for dangerous sequences including NULs.
func IsTraversalAttempt(p string) bool {
	decoded := p
	// Attempt multiple decode passes to catch double/triple encodings
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
	}

	dangerSubstrings := []string{
		"..",        // parent traversal
		"%00",       // encoded NUL
		"%c0%ae",    // overlong UTF-8 for '.'
		"%e0%80%ae", // another overlong variant
	}
	// Scan the raw input as well as the decoded form: overlong sequences are
	// only visible as text before decoding.
	for _, candidate := range []string{strings.ToLower(p), strings.ToLower(decoded)} {
		for _, pat := range dangerSubstrings {
			if strings.Contains(candidate, pat) {
				return true
			}
		}
	}
	if strings.IndexByte(decoded, 0x00) >= 0 {
		return true
	}

	// Normalize and check again for dot-dot hidden behind combining forms
	normalized := strings.ToLower(norm.NFC.String(decoded))
	return strings.Contains(normalized, "..")
}
