// SPDX-License-Identifier: MIT

package media

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/vodee/vodee/internal/fsutil"
	"github.com/vodee/vodee/internal/log"
)

// Entry describes one browsable item. Extension is nil for directories.
type Entry struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"` // "file" or "directory"
	Size      int64   `json:"size"`
	Path      string  `json:"path"`
	Extension *string `json:"extension"`
}

// Listing is the content of one directory.
type Listing struct {
	Path  string  `json:"path"`
	Items []Entry `json:"items"`
}

// ListResult holds either a single file's metadata or a directory listing.
// Exactly one field is non-nil.
type ListResult struct {
	File      *Entry
	Directory *Listing
}

// Lister enumerates browsable entries underneath the media root.
type Lister struct {
	resolver *fsutil.Resolver
	policy   Policy
}

// NewLister builds a lister over the given resolver and extension policy.
func NewLister(resolver *fsutil.Resolver, policy Policy) *Lister {
	return &Lister{resolver: resolver, policy: policy}
}

// List resolves rel and returns the file's metadata or, for a directory, its
// filtered immediate children. Directories sort before files; within a kind,
// names sort in case-sensitive lexicographic order. Entries are built from
// live stat calls and never cached.
func (l *Lister) List(rel string) (*ListResult, error) {
	fullPath, err := l.resolver.Resolve(rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}

	if info.Mode().IsRegular() {
		ext := filepath.Ext(fullPath)
		if !l.policy.Allows(ext) {
			return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, ext)
		}
		return &ListResult{File: fileEntry(info, rel, ext)}, nil
	}

	if !info.IsDir() {
		// Sockets, devices and other specials are not browsable.
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}

	children, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", rel, err)
	}

	items := make([]Entry, 0, len(children))
	for _, child := range children {
		childInfo, err := child.Info()
		if err != nil {
			// A child vanished or is unreadable; skip it rather than failing
			// the whole listing.
			logger := log.WithComponent("lister")
			logger.Warn().
				Err(err).
				Str("name", child.Name()).
				Msg("skipping unreadable directory entry")
			continue
		}
		childRel := path.Join(rel, child.Name())
		if childInfo.IsDir() {
			items = append(items, Entry{
				Name: child.Name(),
				Type: "directory",
				Size: childInfo.Size(),
				Path: childRel,
			})
			continue
		}
		if !childInfo.Mode().IsRegular() {
			continue
		}
		ext := filepath.Ext(child.Name())
		if !l.policy.Allows(ext) {
			continue
		}
		items = append(items, *fileEntry(childInfo, childRel, ext))
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type == "directory"
		}
		return items[i].Name < items[j].Name
	})

	return &ListResult{Directory: &Listing{Path: rel, Items: items}}, nil
}

func fileEntry(info os.FileInfo, rel, ext string) *Entry {
	lowered := normalizeExt(ext)
	return &Entry{
		Name:      info.Name(),
		Type:      "file",
		Size:      info.Size(),
		Path:      rel,
		Extension: &lowered,
	}
}
