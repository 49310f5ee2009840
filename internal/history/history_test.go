package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profullstack/marksyncr/internal/bookmarks"
)

func item(url, title, path string, dateAdded int64) bookmarks.Item {
	return bookmarks.Item{
		Kind:       bookmarks.KindBookmark,
		URL:        url,
		Title:      title,
		FolderPath: path,
		DateAdded:  dateAdded,
	}
}

func TestNewEntry_CopiesReceiptCounts(t *testing.T) {
	receipt := bookmarks.PushReceipt{Added: 2, Updated: 1, Deleted: 3, Version: 7}

	e := NewEntry("chrome", receipt, "summary")
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "chrome", e.Source)
	assert.Equal(t, 2, e.Added)
	assert.Equal(t, 1, e.Updated)
	assert.Equal(t, 3, e.Deleted)
	assert.Equal(t, int64(7), e.Version)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestSummarize_EmptyForEquivalentCollections(t *testing.T) {
	a := []bookmarks.Item{item("https://a.com", "A", "toolbar", 100)}
	b := []bookmarks.Item{item("https://a.com", "A", "toolbar", 999)}

	// Only dateAdded differs, which normalization excludes.
	assert.Empty(t, Summarize(a, b))
}

func TestSummarize_ShowsAddsAndRemoves(t *testing.T) {
	before := []bookmarks.Item{item("https://a.com", "A", "toolbar", 100)}
	after := []bookmarks.Item{
		item("https://a.com", "A", "toolbar", 100),
		item("https://b.com", "B", "toolbar", 200),
	}

	s := Summarize(before, after)
	require.NotEmpty(t, s)
	assert.Contains(t, s, "+ ")
	assert.Contains(t, s, "https://b.com")

	s = Summarize(after, before)
	assert.Contains(t, s, "- ")
	assert.Contains(t, s, "https://b.com")
}

func TestSummarize_CapsLongDiffs(t *testing.T) {
	var after []bookmarks.Item
	for i := 0; i < 100; i++ {
		after = append(after, item("https://site.example/"+strings.Repeat("x", i%7)+string(rune('a'+i%26)), "T", "toolbar", int64(i)))
	}

	s := Summarize(nil, after)
	lines := strings.Split(s, "\n")
	assert.LessOrEqual(t, len(lines), maxSummaryLines+1)
	assert.Contains(t, lines[len(lines)-1], "more")
}
