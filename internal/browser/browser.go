// Package browser provides access to locally installed browser bookmark
// stores: reading the bookmark tree, applying mutations, and emitting
// change events when the store is modified outside the daemon.
package browser

import (
	"context"

	"github.com/profullstack/marksyncr/internal/bookmarks"
)

// Node is one entry in a browser's bookmark tree. A node with an empty
// URL is a folder.
type Node struct {
	ID        string
	ParentID  string
	Title     string
	URL       string
	Index     int
	DateAdded int64 // unix milliseconds
	Children  []Node
}

// IsFolder reports whether the node is a folder.
func (n Node) IsFolder() bool { return n.URL == "" }

// EventKind classifies a change observed in the browser's store.
type EventKind int

const (
	// EventCreated fires when a new bookmark or folder appears.
	EventCreated EventKind = iota
	// EventChanged fires when a node's title or URL changes in place.
	EventChanged
	// EventMoved fires when a node changes parent or sibling position.
	EventMoved
	// EventRemoved fires when a node disappears from the tree.
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventChanged:
		return "changed"
	case EventMoved:
		return "moved"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a single observed change. Siblings holds the node's sibling
// list after a move or reorder, so index shifts can be attributed to
// every affected node. Subtree holds the moved node's children when a
// folder moved, so descendants can be attributed too.
type Event struct {
	Kind     EventKind
	Node     Node
	Siblings []Node
	Subtree  []Node
}

// Source is a browser bookmark store the daemon can read, mutate, and
// observe.
type Source interface {
	// Name identifies the browser, e.g. "chrome".
	Name() string
	// Tree returns the root folders of the bookmark tree.
	Tree(ctx context.Context) ([]Node, error)
	// SubTree returns the node with the given id including its
	// children, or nil if the id is unknown.
	SubTree(ctx context.Context, id string) (*Node, error)
	// Create inserts a new bookmark or folder under parentID at
	// n.Index and returns the node with its assigned ID.
	Create(ctx context.Context, parentID string, n Node) (Node, error)
	// Update rewrites the title and URL of the node with n.ID.
	Update(ctx context.Context, n Node) error
	// Move reparents the node to parentID at the given sibling index.
	Move(ctx context.Context, id, parentID string, index int) error
	// Remove deletes the node and, for folders, its subtree.
	Remove(ctx context.Context, id string) error
	// EnsureFolder resolves a slash-separated folder path to a folder
	// node ID, creating missing segments.
	EnsureFolder(ctx context.Context, path string) (string, error)
	// Events streams changes observed in the underlying store.
	Events() <-chan Event
}

// Flatten walks root folders into the flat item form used by the sync
// engine. Folder nodes become folder items; each root folder's title
// becomes the first path segment of its descendants.
func Flatten(roots []Node) []bookmarks.Item {
	var items []bookmarks.Item
	for _, root := range roots {
		flattenInto(&items, root.Title, root.Children)
	}

	return items
}

func flattenInto(items *[]bookmarks.Item, path string, nodes []Node) {
	for _, n := range nodes {
		index := n.Index

		if n.IsFolder() {
			*items = append(*items, bookmarks.Item{
				Kind:       bookmarks.KindFolder,
				ID:         n.ID,
				Title:      n.Title,
				FolderPath: path,
				Index:      &index,
				DateAdded:  n.DateAdded,
			})
			flattenInto(items, path+"/"+n.Title, n.Children)

			continue
		}

		*items = append(*items, bookmarks.Item{
			Kind:       bookmarks.KindBookmark,
			ID:         n.ID,
			URL:        n.URL,
			Title:      n.Title,
			FolderPath: path,
			Index:      &index,
			DateAdded:  n.DateAdded,
		})
	}
}
