package bookmarks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize_NewCloudItemGoesToAdd(t *testing.T) {
	cloud := []Item{bm("https://a.com", "A", "toolbar", 0, 100)}

	ch := Categorize(cloud, nil, nil, nil)
	require.Len(t, ch.ToAdd, 1)
	assert.Equal(t, "https://a.com", ch.ToAdd[0].URL)
	assert.Empty(t, ch.ToUpdate)
}

func TestCategorize_TombstonePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		dateAdded int64
		deletedAt int64
		skipped   bool
	}{
		{"older than tombstone", 50, 100, true},
		{"tie counts as deleted", 100, 100, true},
		{"resurrected after tombstone", 200, 100, false},
		{"zero dateAdded", 0, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cloud := []Item{bm("https://x.com", "X", "toolbar", 0, tt.dateAdded)}
			tombs := []Tombstone{{URL: "https://x.com", DeletedAt: tt.deletedAt}}

			ch := Categorize(cloud, nil, tombs, nil)
			if tt.skipped {
				assert.Len(t, ch.SkippedByTombstone, 1)
				assert.Empty(t, ch.ToAdd)
			} else {
				assert.Empty(t, ch.SkippedByTombstone)
				assert.Len(t, ch.ToAdd, 1)
			}
		})
	}
}

func TestCategorize_LocalModificationPrecedence(t *testing.T) {
	cloud := []Item{bm("https://a.com", "Newer cloud title", "toolbar", 0, 999)}
	local := []Item{{Kind: KindBookmark, ID: "local-1", URL: "https://a.com", Title: "In-flight edit", FolderPath: "toolbar", Index: idx(0)}}
	modified := map[string]struct{}{"local-1": {}}

	ch := Categorize(cloud, local, nil, modified)
	assert.Empty(t, ch.ToUpdate, "modified local item must never appear in toUpdate")
	assert.Equal(t, []string{"https://a.com"}, ch.SkippedByLocalModification)
}

func TestCategorize_NilModifiedSetTreatedAsEmpty(t *testing.T) {
	cloud := []Item{bm("https://a.com", "Cloud", "toolbar", 0, 100)}
	local := []Item{{Kind: KindBookmark, ID: "x", URL: "https://a.com", Title: "Local", FolderPath: "toolbar", Index: idx(0)}}

	ch := Categorize(cloud, local, nil, nil)
	assert.Len(t, ch.ToUpdate, 1)
}

func TestCategorize_FieldComparison(t *testing.T) {
	localItem := func() Item {
		return Item{Kind: KindBookmark, ID: "x", URL: "https://a.com", Title: "T", FolderPath: "toolbar/Dev", Index: idx(1)}
	}

	tests := []struct {
		name        string
		cloud       Item
		wantsUpdate bool
	}{
		{"in sync", bm("https://a.com", "T", "toolbar/Dev", 1, 100), false},
		{"title differs", bm("https://a.com", "T2", "toolbar/Dev", 1, 100), true},
		{"path differs", bm("https://a.com", "T", "toolbar/Go", 1, 100), true},
		{"index differs", bm("https://a.com", "T", "toolbar/Dev", 4, 100), true},
		{"vendor path equivalent", bm("https://a.com", "T", "Bookmarks Bar/Dev", 1, 100), false},
		{
			"cloud index absent ignores index",
			Item{Kind: KindBookmark, URL: "https://a.com", Title: "T", FolderPath: "toolbar/Dev", DateAdded: 100},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := Categorize([]Item{tt.cloud}, []Item{localItem()}, nil, nil)
			if tt.wantsUpdate {
				require.Len(t, ch.ToUpdate, 1)
				assert.Equal(t, tt.cloud.URL, ch.ToUpdate[0].Cloud.URL)
				assert.Equal(t, "x", ch.ToUpdate[0].Local.ID)
			} else {
				assert.Empty(t, ch.ToUpdate)
			}
		})
	}
}

// Scenario A from the convergence checklist: a title conflict surfaces
// as an update candidate; which side wins is the caller's choice.
func TestCategorize_TitleConflictProducesUpdatePair(t *testing.T) {
	cloud := []Item{bm("https://a.com", "Old", "toolbar", 0, 100)}
	local := []Item{{Kind: KindBookmark, ID: "x", URL: "https://a.com", Title: "New", FolderPath: "toolbar", Index: idx(0)}}

	ch := Categorize(cloud, local, nil, map[string]struct{}{})
	require.Len(t, ch.ToUpdate, 1)
	assert.Equal(t, "Old", ch.ToUpdate[0].Cloud.Title)
	assert.Equal(t, "New", ch.ToUpdate[0].Local.Title)
}

func TestCategorize_SkipsFoldersAndURLlessItems(t *testing.T) {
	cloud := []Item{
		folder("Dev", "toolbar", 0),
		{Title: "no url, no kind"},
		bm("https://a.com", "A", "toolbar", 1, 100),
	}

	ch := Categorize(cloud, nil, nil, nil)
	assert.Len(t, ch.ToAdd, 1, "only the bookmark passes through the categorizer")
}

// Sibling reorder: once the tracker has marked all four siblings, none
// of them may surface as an update even with stale cloud indices.
func TestCategorize_MarkedSiblingsSuppressStaleIndexUpdates(t *testing.T) {
	local := []Item{
		{Kind: KindBookmark, ID: "s1", URL: "https://1.com", Title: "1", FolderPath: "toolbar", Index: idx(3)},
		{Kind: KindBookmark, ID: "s2", URL: "https://2.com", Title: "2", FolderPath: "toolbar", Index: idx(0)},
		{Kind: KindBookmark, ID: "s3", URL: "https://3.com", Title: "3", FolderPath: "toolbar", Index: idx(1)},
		{Kind: KindBookmark, ID: "s4", URL: "https://4.com", Title: "4", FolderPath: "toolbar", Index: idx(2)},
	}
	cloud := []Item{
		bm("https://1.com", "1", "toolbar", 0, 100),
		bm("https://2.com", "2", "toolbar", 1, 100),
		bm("https://3.com", "3", "toolbar", 2, 100),
		bm("https://4.com", "4", "toolbar", 3, 100),
	}
	modified := map[string]struct{}{"s1": {}, "s2": {}, "s3": {}, "s4": {}}

	ch := Categorize(cloud, local, nil, modified)
	assert.Empty(t, ch.ToUpdate)
	assert.Len(t, ch.SkippedByLocalModification, 4)
}
