// Package bookmarks holds the reconciliation engine: the data model for
// bookmark collections and the pure functions that merge, categorize,
// and checksum them. Nothing in this package performs I/O; callers
// (the sync orchestrator, the snapshot store) act on the decisions
// returned here.
package bookmarks

import "time"

// ItemKind discriminates the two shapes an Item can take. The upstream
// JSON format marks folders with type:"folder" and leaves bookmarks
// either untagged or tagged type:"bookmark"; Classify resolves the
// untagged case by URL presence.
type ItemKind string

const (
	KindBookmark ItemKind = "bookmark"
	KindFolder   ItemKind = "folder"
)

// Item is one entry in a flat bookmark collection: either a bookmark or
// a folder. Bookmarks are identified by URL for merge purposes and by ID
// on the local device. Folders are identified by (FolderPath, Title) and
// carry no modification timestamp, which is why folder merges always let
// the incoming side win.
type Item struct {
	Kind       ItemKind `json:"type,omitempty"`
	ID         string   `json:"id,omitempty"`
	URL        string   `json:"url,omitempty"`
	Title      string   `json:"title"`
	FolderPath string   `json:"folderPath"`
	Index      *int     `json:"index,omitempty"`
	DateAdded  int64    `json:"dateAdded,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// IsFolder reports whether the item is a folder. Items without an
// explicit kind are folders only if they also lack a URL and declare
// type:"folder"; in practice Classify is called on decode so Kind is
// always populated by the time merge logic runs.
func (it Item) IsFolder() bool {
	return it.Kind == KindFolder
}

// IndexOrZero returns the item's position, treating an absent index as 0.
func (it Item) IndexOrZero() int {
	if it.Index == nil {
		return 0
	}

	return *it.Index
}

// Classify fills in the Kind field for items that arrived without one:
// type:"folder" stays a folder, anything with a URL is a bookmark.
// Items with neither a kind nor a URL are left unkinded and are ignored
// by the merger and categorizer.
func Classify(items []Item) []Item {
	for i := range items {
		if items[i].Kind != "" {
			continue
		}

		if items[i].URL != "" {
			items[i].Kind = KindBookmark
		}
	}

	return items
}

// Tombstone records that some device deleted the bookmark at URL at
// DeletedAt (epoch milliseconds). A bookmark re-added with
// dateAdded > DeletedAt resurrects; the tombstone stays in the set but
// becomes inert for that URL.
type Tombstone struct {
	URL       string `json:"url"`
	DeletedAt int64  `json:"deletedAt"`
}

// Snapshot is one account's cloud bookmark state: the flat item
// collection, the tombstone set, and the versioning metadata the write
// path uses to short-circuit no-op upserts.
type Snapshot struct {
	Items        []Item      `json:"bookmarks"`
	Tombstones   []Tombstone `json:"tombstones"`
	Checksum     string      `json:"checksum"`
	Version      int64       `json:"version"`
	LastModified time.Time   `json:"lastModified"`
}

// PushReceipt is the outcome of pushing items into a snapshot, whether
// through the HTTP API or the local store. Added and Updated count only
// changes the pushed items caused; Skipped marks a checksum no-op where
// nothing was written and Version is unchanged.
type PushReceipt struct {
	Synced     bool   `json:"synced"`
	Merged     bool   `json:"merged"`
	Added      int    `json:"added"`
	Updated    int    `json:"updated"`
	Deleted    int    `json:"deleted"`
	Tombstones int    `json:"tombstones"`
	Total      int    `json:"total"`
	Version    int64  `json:"version"`
	Checksum   string `json:"checksum"`
	Skipped    bool   `json:"skipped,omitempty"`
	Message    string `json:"message,omitempty"`
}
