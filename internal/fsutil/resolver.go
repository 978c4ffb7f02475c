// SPDX-License-Identifier: MIT

// Package fsutil confines untrusted relative paths to a fixed media root.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath marks paths that are malformed or escape the media root.
// Callers match it with errors.Is.
var ErrInvalidPath = errors.New("invalid path")

// Resolver maps client-supplied relative paths onto a media root. The root is
// fixed for the lifetime of the resolver; every resolved path is guaranteed to
// be the root itself or a descendant of it.
type Resolver struct {
	root string // absolute, symlink-resolved media root
}

// NewResolver builds a resolver for root. The root directory must exist.
func NewResolver(root string) (*Resolver, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root path %q: %w", root, err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve root path %q: %w", root, err)
	}
	info, err := os.Stat(realRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", root)
	}
	return &Resolver{root: realRoot}, nil
}

// Root returns the absolute media root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve turns a client-supplied relative path into an absolute path
// underneath the media root. An empty input resolves to the root itself.
// Absolute inputs and any path whose canonical form escapes the root are
// rejected with ErrInvalidPath before any filesystem access on the target.
func (r *Resolver) Resolve(rel string) (string, error) {
	if strings.Contains(rel, "\\") {
		return "", fmt.Errorf("%w: contains backslash", ErrInvalidPath)
	}
	if strings.ContainsRune(rel, 0) {
		return "", fmt.Errorf("%w: contains NUL byte", ErrInvalidPath)
	}

	cleanRel := filepath.Clean(rel)
	if cleanRel == "." || rel == "" {
		return r.root, nil
	}
	if filepath.IsAbs(cleanRel) || strings.HasPrefix(cleanRel, "/") {
		return "", fmt.Errorf("%w: must be relative", ErrInvalidPath)
	}

	fullPath := filepath.Join(r.root, cleanRel)

	// The join already collapses interior ".." segments; anything still
	// escaping the root shows up in the relative form.
	relToRoot, err := filepath.Rel(r.root, fullPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if escapes(relToRoot) {
		return "", fmt.Errorf("%w: traversal attempt", ErrInvalidPath)
	}

	return r.resolveSymlinks(fullPath)
}

// resolveSymlinks canonicalizes fullPath and verifies the real path is still
// underneath the root. This closes symlink-escape gaps: a link inside the
// root pointing outside of it is rejected rather than followed.
func (r *Resolver) resolveSymlinks(fullPath string) (string, error) {
	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Target may not exist yet; canonicalize the parent instead so a
			// symlinked ancestor cannot smuggle the path outside the root.
			dir := filepath.Dir(fullPath)
			realDir, dirErr := filepath.EvalSymlinks(dir)
			if dirErr != nil {
				// Parent missing as well: keep the joined path, the caller's
				// stat will report NotFound.
				realPath = fullPath
			} else {
				realPath = filepath.Join(realDir, filepath.Base(fullPath))
			}
		} else {
			return "", fmt.Errorf("resolve %q: %w", fullPath, err)
		}
	}

	rel, err := filepath.Rel(r.root, realPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if escapes(rel) {
		return "", fmt.Errorf("%w: escapes root via symlink", ErrInvalidPath)
	}
	return realPath, nil
}

func escapes(rel string) bool {
	return rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) ||
		filepath.IsAbs(rel)
}
