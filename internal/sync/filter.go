package sync

import (
	"strings"

	"github.com/profullstack/marksyncr/internal/bookmarks"
)

// Filter excludes configured folder subtrees from syncing, in both
// directions: excluded items are neither pushed to the cloud nor
// created locally from cloud changes.
type Filter struct {
	excluded []string
}

// NewFilter builds a filter from folder paths. Paths are normalized so
// "Bookmarks bar/Private" and "toolbar/Private" exclude the same
// subtree. Empty entries are dropped.
func NewFilter(folderPaths []string) *Filter {
	f := &Filter{}

	for _, p := range folderPaths {
		norm := bookmarks.NormalizeFolderPath(p)
		if norm != "" {
			f.excluded = append(f.excluded, norm)
		}
	}

	return f
}

// Allow reports whether an item is inside a synced subtree. A folder
// item matching an excluded path exactly is itself excluded.
func (f *Filter) Allow(it bookmarks.Item) bool {
	if f == nil || len(f.excluded) == 0 {
		return true
	}

	path := bookmarks.NormalizeFolderPath(it.FolderPath)

	if it.IsFolder() {
		full := path
		if full == "" {
			full = it.Title
		} else {
			full = full + "/" + it.Title
		}

		if f.matches(bookmarks.NormalizeFolderPath(full)) {
			return false
		}
	}

	return !f.matches(path)
}

// Apply returns the items that pass the filter.
func (f *Filter) Apply(items []bookmarks.Item) []bookmarks.Item {
	if f == nil || len(f.excluded) == 0 {
		return items
	}

	kept := items[:0:0]

	for _, it := range items {
		if f.Allow(it) {
			kept = append(kept, it)
		}
	}

	return kept
}

// matches reports whether path is an excluded folder or inside one.
func (f *Filter) matches(path string) bool {
	for _, ex := range f.excluded {
		if path == ex || strings.HasPrefix(path, ex+"/") {
			return true
		}
	}

	return false
}
