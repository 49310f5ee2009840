// Package snapshot implements the bookmark snapshot store over local
// persistent state. It applies the same merge-and-upsert contract as
// the cloud API, so the daemon can run fully offline against it with
// the orchestrator none the wiser.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/profullstack/marksyncr/internal/bookmarks"
	"github.com/profullstack/marksyncr/internal/errors"
	"github.com/profullstack/marksyncr/internal/state"
)

// Store is a local, single-account snapshot store backed by bbolt.
type Store struct {
	state   *state.State
	account string
	now     func() time.Time
}

// New creates a store for the given account.
func New(st *state.State, accountID string) *Store {
	return &Store{
		state:   st,
		account: accountID,
		now:     time.Now,
	}
}

// Fetch returns the current snapshot. An account that has never been
// written returns an empty snapshot at version 0.
func (s *Store) Fetch(_ context.Context) (*bookmarks.Snapshot, error) {
	stored, err := s.state.GetSnapshot(s.account)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if stored == nil {
		return &bookmarks.Snapshot{Checksum: bookmarks.Checksum(nil)}, nil
	}

	return &bookmarks.Snapshot{
		Items:        bookmarks.Classify(stored.Items),
		Tombstones:   stored.Tombstones,
		Checksum:     stored.Checksum,
		Version:      stored.Version,
		LastModified: stored.LastModified,
	}, nil
}

// Push merges items and tombstones into the stored snapshot and
// returns the merge receipt. The whole upsert runs in one state
// transaction: merge, tombstone sweep, checksum, and the version
// check-and-increment are atomic. When the resulting checksum and
// tombstone set match what is stored, nothing is written and the
// receipt comes back Skipped with the version unchanged.
func (s *Store) Push(_ context.Context, items []bookmarks.Item, tombstones []bookmarks.Tombstone, _ string) (*bookmarks.PushReceipt, error) {
	var receipt bookmarks.PushReceipt

	err := s.state.UpdateSnapshot(s.account, func(cur *state.StoredSnapshot) (*state.StoredSnapshot, error) {
		if cur == nil {
			cur = &state.StoredSnapshot{}
		}

		mergedTombs := bookmarks.MergeTombstones(cur.Tombstones, tombstones)
		merged := bookmarks.MergeItems(cur.Items, items)

		// A tombstone deletes any merged bookmark not strictly newer
		// than it. The local-modification guard does not apply here;
		// the pushing device already filtered its own protected items.
		kept, deleted := sweepTombstones(merged.Merged, mergedTombs)

		checksum := bookmarks.Checksum(kept)

		receipt = bookmarks.PushReceipt{
			Synced:     true,
			Merged:     true,
			Added:      merged.Added,
			Updated:    merged.Updated,
			Deleted:    deleted,
			Tombstones: len(mergedTombs),
			Total:      len(kept),
			Checksum:   checksum,
		}

		if checksum == cur.Checksum && bookmarks.TombstonesEqual(mergedTombs, cur.Tombstones) {
			receipt.Skipped = true
			receipt.Version = cur.Version
			receipt.Message = "no changes detected, sync skipped"

			return nil, nil
		}

		receipt.Version = cur.Version + 1
		receipt.Message = fmt.Sprintf("synced %d bookmarks", len(kept))

		return &state.StoredSnapshot{
			Items:        kept,
			Tombstones:   mergedTombs,
			Checksum:     checksum,
			Version:      receipt.Version,
			LastModified: s.now(),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("upserting snapshot: %w", err)
	}

	return &receipt, nil
}

// Delete removes a single bookmark by URL or by ID, ID winning when
// both are given, and records a tombstone for its URL. A miss returns
// ErrNotFound.
func (s *Store) Delete(_ context.Context, url, id string) error {
	if url == "" && id == "" {
		return fmt.Errorf("delete requires a url or an id")
	}

	err := s.state.UpdateSnapshot(s.account, func(cur *state.StoredSnapshot) (*state.StoredSnapshot, error) {
		if cur == nil {
			return nil, errors.ErrNotFound
		}

		idx := -1

		for i, it := range cur.Items {
			if it.IsFolder() {
				continue
			}

			if id != "" {
				if it.ID == id {
					idx = i
					break
				}

				continue
			}

			if it.URL == url {
				idx = i
				break
			}
		}

		if idx < 0 {
			return nil, errors.ErrNotFound
		}

		removed := cur.Items[idx]
		kept := append(append([]bookmarks.Item(nil), cur.Items[:idx]...), cur.Items[idx+1:]...)

		tombs := bookmarks.MergeTombstones(cur.Tombstones, []bookmarks.Tombstone{
			{URL: removed.URL, DeletedAt: s.now().UnixMilli()},
		})

		return &state.StoredSnapshot{
			Items:        kept,
			Tombstones:   tombs,
			Checksum:     bookmarks.Checksum(kept),
			Version:      cur.Version + 1,
			LastModified: s.now(),
		}, nil
	})
	if err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}

	return nil
}

// sweepTombstones drops every bookmark not strictly newer than its
// tombstone and returns the survivors plus the number dropped. A
// bookmark re-added after the deletion (dateAdded > deletedAt)
// resurrects: it stays, and the tombstone is inert for that URL.
func sweepTombstones(items []bookmarks.Item, tombstones []bookmarks.Tombstone) ([]bookmarks.Item, int) {
	if len(tombstones) == 0 {
		return items, 0
	}

	deletedAt := make(map[string]int64, len(tombstones))
	for _, t := range tombstones {
		deletedAt[t.URL] = t.DeletedAt
	}

	kept := items[:0:0]
	dropped := 0

	for _, it := range items {
		if !it.IsFolder() {
			if at, ok := deletedAt[it.URL]; ok && it.DateAdded <= at {
				dropped++
				continue
			}
		}

		kept = append(kept, it)
	}

	return kept, dropped
}
