package bookmarks

import "sort"

// MergeTombstones combines two tombstone sets last-writer-wins by
// DeletedAt. An incoming tombstone replaces an existing one only when
// strictly newer; ties keep the existing entry. No output order is
// guaranteed — callers that diff tombstone sets must sort first (see
// SortTombstones).
func MergeTombstones(existing, incoming []Tombstone) []Tombstone {
	byURL := make(map[string]Tombstone, len(existing))
	for _, t := range existing {
		byURL[t.URL] = t
	}

	for _, t := range incoming {
		cur, ok := byURL[t.URL]
		if !ok || t.DeletedAt > cur.DeletedAt {
			byURL[t.URL] = t
		}
	}

	out := make([]Tombstone, 0, len(byURL))
	for _, t := range byURL {
		out = append(out, t)
	}

	return out
}

// SortTombstones orders a tombstone set by URL in place, for callers
// that need a deterministic form (checksum-style "did tombstones
// change" comparisons).
func SortTombstones(ts []Tombstone) {
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].URL < ts[j].URL
	})
}

// TombstonesEqual reports whether two tombstone sets contain the same
// entries, ignoring order.
func TombstonesEqual(a, b []Tombstone) bool {
	if len(a) != len(b) {
		return false
	}

	byURL := make(map[string]int64, len(a))
	for _, t := range a {
		byURL[t.URL] = t.DeletedAt
	}

	for _, t := range b {
		at, ok := byURL[t.URL]
		if !ok || at != t.DeletedAt {
			return false
		}
	}

	return true
}

// Deletions is the outcome of applying a tombstone set to the local
// tree: items to remove, and URLs protected because the user has an
// in-flight local edit on them.
type Deletions struct {
	ToDelete                   []Item
	SkippedByLocalModification []string
}

// ApplyTombstones determines which local items a tombstone set deletes.
// Items whose local ID is in the modified set are skipped: the user's
// local re-add or edit wins over the remote deletion signal. This is
// the client-side mirror of the resurrection rule in Categorize — the
// server compares dates, the client compares modification membership,
// because the client cannot trust its own dateAdded discipline.
func ApplyTombstones(tombstones []Tombstone, local []Item, modified map[string]struct{}) Deletions {
	dead := make(map[string]struct{}, len(tombstones))
	for _, t := range tombstones {
		dead[t.URL] = struct{}{}
	}

	var d Deletions

	for _, it := range local {
		if it.URL == "" {
			continue
		}

		if _, ok := dead[it.URL]; !ok {
			continue
		}

		if _, mod := modified[it.ID]; mod {
			d.SkippedByLocalModification = append(d.SkippedByLocalModification, it.URL)
			continue
		}

		d.ToDelete = append(d.ToDelete, it)
	}

	return d
}
