package bookmarks

// UpdatePair couples a cloud item with the local item it would update.
// The categorizer only establishes that the two differ; which side's
// fields to apply is the caller's choice.
type UpdatePair struct {
	Cloud Item
	Local Item
}

// Changes partitions cloud items by what the local device should do
// with them.
type Changes struct {
	ToAdd                      []Item
	ToUpdate                   []UpdatePair
	SkippedByTombstone         []Item
	SkippedByLocalModification []string
}

// Categorize decides, per cloud bookmark, whether it should be created
// locally, applied as an update, or skipped. Folders never pass through
// here: the categorizer's output drives local browser API calls, and
// only bookmarks map to addressable browser nodes — folders reconcile
// through the merger instead.
//
// Decision order per cloud item:
//
//  1. No URL: ignore.
//  2. Tombstoned with dateAdded <= deletedAt: skippedByTombstone.
//     The tie counts as deleted. A newer dateAdded resurrects the
//     bookmark and evaluation continues.
//  3. No local item with that URL: toAdd.
//  4. Local item is in the modified set: skippedByLocalModification,
//     recorded by URL. The modified set is the only signal that the
//     user is actively editing; it overrides even a legitimately newer
//     cloud edit, trading a delayed convergence for never clobbering an
//     in-progress local change.
//  5. Title, normalized folder path, or (when both sides define one)
//     index differs: toUpdate. Otherwise the item is in sync.
//
// A nil modified set is treated as empty.
func Categorize(cloud, local []Item, tombstones []Tombstone, modified map[string]struct{}) Changes {
	dead := make(map[string]Tombstone, len(tombstones))
	for _, t := range tombstones {
		dead[t.URL] = t
	}

	localByURL := make(map[string]Item, len(local))

	for _, it := range Classify(local) {
		if it.Kind == KindBookmark && it.URL != "" {
			localByURL[it.URL] = it
		}
	}

	var ch Changes

	for _, c := range Classify(cloud) {
		if c.Kind != KindBookmark || c.URL == "" {
			continue
		}

		if t, ok := dead[c.URL]; ok && c.DateAdded <= t.DeletedAt {
			ch.SkippedByTombstone = append(ch.SkippedByTombstone, c)
			continue
		}

		loc, ok := localByURL[c.URL]
		if !ok {
			ch.ToAdd = append(ch.ToAdd, c)
			continue
		}

		if _, mod := modified[loc.ID]; mod {
			ch.SkippedByLocalModification = append(ch.SkippedByLocalModification, loc.URL)
			continue
		}

		if needsUpdate(c, loc) {
			ch.ToUpdate = append(ch.ToUpdate, UpdatePair{Cloud: c, Local: loc})
		}
	}

	return ch
}

// needsUpdate performs the field-level comparison of step 5. Titles
// compare with absent-as-empty semantics (Go's zero value already gives
// that), folder paths compare in normalized form, and indices compare
// only when both sides define one.
func needsUpdate(cloud, local Item) bool {
	if cloud.Title != local.Title {
		return true
	}

	if NormalizeFolderPath(cloud.FolderPath) != NormalizeFolderPath(local.FolderPath) {
		return true
	}

	if cloud.Index != nil && local.Index != nil && *cloud.Index != *local.Index {
		return true
	}

	return false
}
