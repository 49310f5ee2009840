package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profullstack/marksyncr/internal/bookmarks"
	"github.com/profullstack/marksyncr/internal/errors"
	"github.com/profullstack/marksyncr/internal/state"
)

func idx(i int) *int { return &i }

func testStore(t *testing.T) *Store {
	t.Helper()

	st, err := state.LoadAt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s := New(st, "acct-1")
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	return s
}

func bm(url, title string, dateAdded int64) bookmarks.Item {
	return bookmarks.Item{
		Kind:       bookmarks.KindBookmark,
		URL:        url,
		Title:      title,
		FolderPath: "toolbar",
		Index:      idx(0),
		DateAdded:  dateAdded,
	}
}

func TestFetch_EmptyAccount(t *testing.T) {
	s := testStore(t)

	snap, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, int64(0), snap.Version)
	assert.Equal(t, bookmarks.Checksum(nil), snap.Checksum)
}

func TestPush_FirstWriteCreatesVersionOne(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	receipt, err := s.Push(ctx, []bookmarks.Item{bm("https://go.dev/", "Go", 1000)}, nil, "chrome")
	require.NoError(t, err)

	assert.True(t, receipt.Synced)
	assert.Equal(t, 1, receipt.Added)
	assert.Equal(t, 1, receipt.Total)
	assert.Equal(t, int64(1), receipt.Version)
	assert.False(t, receipt.Skipped)

	snap, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, receipt.Checksum, snap.Checksum)
}

func TestPush_IdenticalContentIsSkippedNoOp(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	items := []bookmarks.Item{bm("https://go.dev/", "Go", 1000)}

	first, err := s.Push(ctx, items, nil, "chrome")
	require.NoError(t, err)

	second, err := s.Push(ctx, items, nil, "chrome")
	require.NoError(t, err)

	assert.True(t, second.Skipped)
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.Checksum, second.Checksum)
}

func TestPush_DateAddedOnlyChangeIsStillSkipped(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Push(ctx, []bookmarks.Item{bm("https://go.dev/", "Go", 1000)}, nil, "")
	require.NoError(t, err)

	// A newer dateAdded wins the merge but does not change the
	// checksum projection, so the write short-circuits.
	receipt, err := s.Push(ctx, []bookmarks.Item{bm("https://go.dev/", "Go", 2000)}, nil, "")
	require.NoError(t, err)
	assert.True(t, receipt.Skipped)
}

func TestPush_MergesNewerTitle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Push(ctx, []bookmarks.Item{bm("https://go.dev/", "Go", 1000)}, nil, "")
	require.NoError(t, err)

	receipt, err := s.Push(ctx, []bookmarks.Item{bm("https://go.dev/", "Go Language", 2000)}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 1, receipt.Updated)
	assert.Equal(t, int64(2), receipt.Version)

	snap, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Go Language", snap.Items[0].Title)
}

func TestPush_TombstoneDeletesOlderBookmark(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Push(ctx, []bookmarks.Item{
		bm("https://a.example/", "A", 1000),
		bm("https://b.example/", "B", 1000),
	}, nil, "")
	require.NoError(t, err)

	receipt, err := s.Push(ctx, nil, []bookmarks.Tombstone{{URL: "https://a.example/", DeletedAt: 2000}}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, receipt.Deleted)
	assert.Equal(t, 1, receipt.Total)
	assert.Equal(t, 1, receipt.Tombstones)

	snap, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "https://b.example/", snap.Items[0].URL)
}

func TestPush_ResurrectionSurvivesTombstone(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Push(ctx, nil, []bookmarks.Tombstone{{URL: "https://a.example/", DeletedAt: 2000}}, "")
	require.NoError(t, err)

	// Re-added strictly after deletion: the bookmark stays and the
	// tombstone remains in the set, inert.
	receipt, err := s.Push(ctx, []bookmarks.Item{bm("https://a.example/", "A", 3000)}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 0, receipt.Deleted)
	assert.Equal(t, 1, receipt.Total)
	assert.Equal(t, 1, receipt.Tombstones)

	snap, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "https://a.example/", snap.Items[0].URL)
	require.Len(t, snap.Tombstones, 1)
}

func TestPush_TieGoesToTombstone(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	receipt, err := s.Push(ctx,
		[]bookmarks.Item{bm("https://a.example/", "A", 2000)},
		[]bookmarks.Tombstone{{URL: "https://a.example/", DeletedAt: 2000}}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, receipt.Deleted)
	assert.Equal(t, 0, receipt.Total)
}

func TestDelete_ByURL(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Push(ctx, []bookmarks.Item{bm("https://a.example/", "A", 1000)}, nil, "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "https://a.example/", ""))

	snap, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	require.Len(t, snap.Tombstones, 1)
	assert.Equal(t, "https://a.example/", snap.Tombstones[0].URL)
	assert.Equal(t, int64(2), snap.Version)
}

func TestDelete_IDTakesPrecedenceOverURL(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := bm("https://a.example/", "A", 1000)
	a.ID = "id-a"
	b := bm("https://b.example/", "B", 1000)
	b.ID = "id-b"

	_, err := s.Push(ctx, []bookmarks.Item{a, b}, nil, "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "https://a.example/", "id-b"))

	snap, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "https://a.example/", snap.Items[0].URL)
}

func TestDelete_NotFound(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	err := s.Delete(ctx, "https://missing.example/", "")
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.Push(ctx, []bookmarks.Item{bm("https://a.example/", "A", 1000)}, nil, "")
	require.NoError(t, err)

	err = s.Delete(ctx, "", "no-such-id")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestDelete_RequiresURLOrID(t *testing.T) {
	s := testStore(t)
	require.Error(t, s.Delete(context.Background(), "", ""))
}
