// SPDX-License-Identifier: MIT

// Package version carries build identification injected at link time.
package version

import "fmt"

var (
	// Version is the release tag, populated via ldflags.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the full build identification line.
func String() string {
	return fmt.Sprintf("vodee %s (commit: %s, built: %s)", Version, Commit, Date)
}
