package bookmarks

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// portableNode is one node of the nested export document. Bookmarks
// have a URL and no children; folders have children and no URL.
type portableNode struct {
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	URL       string          `json:"url,omitempty"`
	DateAdded int64           `json:"dateAdded,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Children  []*portableNode `json:"children,omitempty"`
}

// portableDoc is the envelope of the export format.
type portableDoc struct {
	Format  string          `json:"format"`
	Version int             `json:"version"`
	Roots   []*portableNode `json:"roots"`
}

const (
	portableFormat  = "marksyncr"
	portableVersion = 1
)

// FormatJSON renders a flat item collection as a nested JSON document
// suitable for export. Folders referenced only through bookmark paths
// are materialized implicitly; siblings are ordered by index. The
// output round-trips through ParseImportFile.
func FormatJSON(items []Item) ([]byte, error) {
	root := &portableNode{Type: string(KindFolder)}
	byPath := map[string]*portableNode{"": root}

	ensure := func(path string) *portableNode {
		if n, ok := byPath[path]; ok {
			return n
		}

		// Create missing ancestors from the top down.
		segs := strings.Split(path, "/")
		cur := root
		curPath := ""

		for _, seg := range segs {
			if curPath == "" {
				curPath = seg
			} else {
				curPath = curPath + "/" + seg
			}

			n, ok := byPath[curPath]
			if !ok {
				n = &portableNode{Type: string(KindFolder), Title: seg}
				cur.Children = append(cur.Children, n)
				byPath[curPath] = n
			}

			cur = n
		}

		return cur
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	SortItems(sorted)

	for _, it := range Classify(sorted) {
		switch it.Kind {
		case KindFolder:
			path := it.FolderPath
			full := it.Title

			if path != "" {
				full = path + "/" + it.Title
			}

			if _, ok := byPath[full]; ok {
				continue
			}

			parent := ensure(path)
			n := &portableNode{Type: string(KindFolder), Title: it.Title, DateAdded: it.DateAdded}
			parent.Children = append(parent.Children, n)
			byPath[full] = n

		case KindBookmark:
			if it.URL == "" {
				continue
			}

			parent := ensure(it.FolderPath)
			parent.Children = append(parent.Children, &portableNode{
				Type:      string(KindBookmark),
				Title:     it.Title,
				URL:       it.URL,
				DateAdded: it.DateAdded,
				Tags:      it.Tags,
				Notes:     it.Notes,
			})
		}
	}

	doc := portableDoc{
		Format:  portableFormat,
		Version: portableVersion,
		Roots:   root.Children,
	}

	return json.MarshalIndent(doc, "", "  ")
}

// ParseImportFile parses a nested export document back into a flat item
// collection. Sibling positions become indices; folder membership
// becomes folderPath.
func ParseImportFile(data []byte) ([]Item, error) {
	var doc portableDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}

	if doc.Format != "" && doc.Format != portableFormat {
		return nil, fmt.Errorf("unsupported import format %q", doc.Format)
	}

	var items []Item

	var walk func(nodes []*portableNode, path string)
	walk = func(nodes []*portableNode, path string) {
		for i, n := range nodes {
			idx := i

			switch n.Type {
			case string(KindFolder):
				items = append(items, Item{
					Kind:       KindFolder,
					Title:      n.Title,
					FolderPath: path,
					Index:      &idx,
					DateAdded:  n.DateAdded,
				})

				childPath := n.Title
				if path != "" {
					childPath = path + "/" + n.Title
				}

				walk(n.Children, childPath)

			default:
				if n.URL == "" {
					continue
				}

				items = append(items, Item{
					Kind:       KindBookmark,
					Title:      n.Title,
					URL:        n.URL,
					FolderPath: path,
					Index:      &idx,
					DateAdded:  n.DateAdded,
					Tags:       n.Tags,
					Notes:      n.Notes,
				})
			}
		}
	}

	walk(doc.Roots, "")

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].FolderPath != items[j].FolderPath {
			return items[i].FolderPath < items[j].FolderPath
		}

		return items[i].IndexOrZero() < items[j].IndexOrZero()
	})

	return items, nil
}
