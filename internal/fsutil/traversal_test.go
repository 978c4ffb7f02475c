// SPDX-License-Identifier: MIT

package fsutil

import "testing"

func TestIsTraversalAttempt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"clean path", "shows/season1/ep1.mp4", false},
		{"empty", "", false},
		{"plain dotdot", "../etc/passwd", true},
		{"embedded dotdot", "a/../b", true},
		{"encoded dotdot", "%2e%2e/etc", true},
		{"double encoded", "%252e%252e%252fetc", true},
		{"encoded nul", "movie%00.mp4", true},
		{"literal nul", "movie\x00.mp4", true},
		{"overlong utf8 dot", "%c0%ae%c0%ae/etc", true},
		{"unicode letters ok", "películas/año1.mp4", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTraversalAttempt(tt.input); got != tt.want {
				t.Errorf("IsTraversalAttempt(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
