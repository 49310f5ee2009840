package bookmarks

import "sort"

// MergeResult is the outcome of folding an incoming item list into an
// existing collection. Added counts items that were absent; Updated
// counts overwrites (every incoming folder hit, plus bookmark hits
// whose incoming dateAdded was strictly newer).
type MergeResult struct {
	Merged  []Item
	Added   int
	Updated int
}

// folderKey is the merge identity for folders. Folders have no URL and
// no reliable modification timestamp, so they are addressed by where
// they live and what they are called.
func folderKey(it Item) string {
	return it.FolderPath + "::" + it.Title
}

// MergeItems folds incoming into existing. Bookmarks are keyed by URL
// and the newer dateAdded wins, preserving the existing local ID when
// the incoming item carries none. Folders are keyed by
// folderPath::title and the incoming side wins unconditionally: with
// no timestamp to arbitrate, order and rename changes must always
// propagate. The merged result is sorted by (folderPath, index), the
// same ordering rule the checksum uses.
//
// Merging converges: applying the same incoming list a second time
// leaves the merged collection unchanged and adds nothing. Folder hits
// still count as updated on repeat applications because the incoming
// side always wins.
func MergeItems(existing, incoming []Item) MergeResult {
	byURL := make(map[string]Item)
	byFolder := make(map[string]Item)

	for _, it := range Classify(existing) {
		switch it.Kind {
		case KindFolder:
			byFolder[folderKey(it)] = it
		case KindBookmark:
			if it.URL != "" {
				byURL[it.URL] = it
			}
		}
	}

	var res MergeResult

	for _, in := range Classify(incoming) {
		switch in.Kind {
		case KindFolder:
			key := folderKey(in)

			cur, ok := byFolder[key]
			if !ok {
				byFolder[key] = in
				res.Added++

				continue
			}

			if in.ID == "" {
				in.ID = cur.ID
			}

			byFolder[key] = in
			res.Updated++

		case KindBookmark:
			if in.URL == "" {
				continue
			}

			cur, ok := byURL[in.URL]
			if !ok {
				byURL[in.URL] = in
				res.Added++

				continue
			}

			if in.DateAdded > cur.DateAdded {
				if in.ID == "" {
					in.ID = cur.ID
				}

				byURL[in.URL] = in
				res.Updated++
			}
		}
	}

	res.Merged = make([]Item, 0, len(byURL)+len(byFolder))
	for _, it := range byURL {
		res.Merged = append(res.Merged, it)
	}

	for _, it := range byFolder {
		res.Merged = append(res.Merged, it)
	}

	SortItems(res.Merged)

	return res
}

// SortItems orders items by (folderPath, index) with URL and title as
// deterministic tie-breaks. Interleaving of folders and bookmarks
// within a path is preserved; sorting never partitions by kind.
func SortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.FolderPath != b.FolderPath {
			return a.FolderPath < b.FolderPath
		}

		if a.IndexOrZero() != b.IndexOrZero() {
			return a.IndexOrZero() < b.IndexOrZero()
		}

		if a.URL != b.URL {
			return a.URL < b.URL
		}

		return a.Title < b.Title
	})
}
