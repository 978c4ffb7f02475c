// SPDX-License-Identifier: MIT

// Package media implements the secure media core: directory listing and byte
// range streaming of video files confined to a single media root.
package media

import (
	"path/filepath"
	"strings"
)

// Policy is the static allow-list of playable file extensions. Entries are
// lowercase and carry the leading dot; membership tests are case-insensitive
// on the input.
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy builds a policy from the configured extension list.
func NewPolicy(extensions []string) Policy {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return Policy{allowed: allowed}
}

// Allows reports whether the extension (with leading dot) is playable.
func (p Policy) Allows(ext string) bool {
	_, ok := p.allowed[strings.ToLower(ext)]
	return ok
}

// AllowsPath reports whether the path's extension is playable.
func (p Policy) AllowsPath(path string) bool {
	return p.Allows(filepath.Ext(path))
}

// contentTypes maps playable extensions to their MIME types. Unknown
// extensions fall back to video/mp4, matching the historic behavior of
// serving everything as mp4.
var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
}

func normalizeExt(ext string) string {
	return strings.ToLower(ext)
}

// ContentType returns the MIME type to serve for a file path.
func ContentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "video/mp4"
}
