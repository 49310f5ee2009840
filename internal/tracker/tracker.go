// Package tracker maintains the set of bookmark ids modified locally
// since the last successful sync. Ids in the set are protected from
// being overwritten or deleted by cloud changes until they have been
// pushed.
package tracker

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/profullstack/marksyncr/internal/browser"
)

// store is the subset of persistent state the tracker needs. The set is
// always persisted as a full overwrite.
type store interface {
	ModifiedIDs() ([]string, error)
	SetModifiedIDs(ids []string) error
}

// Tracker is a persisted set of locally-modified bookmark ids. Safe for
// concurrent use. Persistence failures are logged but never block
// recording: losing protection on a crash is recoverable, losing a
// local edit is not.
type Tracker struct {
	store  store
	logger *slog.Logger

	mu  sync.Mutex
	ids map[string]struct{}
}

// Load restores the tracker from persistent state. A corrupt or
// unreadable set starts empty rather than failing startup.
func Load(s store, logger *slog.Logger) *Tracker {
	t := &Tracker{
		store:  s,
		logger: logger,
		ids:    make(map[string]struct{}),
	}

	ids, err := s.ModifiedIDs()
	if err != nil {
		logger.Warn("restoring modified-id set, starting empty", slog.String("error", err.Error()))

		return t
	}

	for _, id := range ids {
		t.ids[id] = struct{}{}
	}

	return t
}

// Record marks a single bookmark id as locally modified.
func (t *Tracker) Record(id string) {
	if id == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.ids[id] = struct{}{}
	t.persistLocked()
}

// RecordSiblings marks every node in a sibling list as modified. Used
// after a move or reorder, where the browser shifts the indices of
// every neighbor, not just the node that moved.
func (t *Tracker) RecordSiblings(siblings []browser.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, n := range siblings {
		if n.ID != "" {
			t.ids[n.ID] = struct{}{}
		}
	}

	t.persistLocked()
}

// RecordSubtree marks every node in a subtree as modified, recursively.
// Used when a folder moves: all descendants changed folder path.
func (t *Tracker) RecordSubtree(nodes []browser.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.recordSubtreeLocked(nodes)
	t.persistLocked()
}

func (t *Tracker) recordSubtreeLocked(nodes []browser.Node) {
	for _, n := range nodes {
		if n.ID != "" {
			t.ids[n.ID] = struct{}{}
		}

		t.recordSubtreeLocked(n.Children)
	}
}

// Contains reports whether the id is in the protected set.
func (t *Tracker) Contains(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.ids[id]

	return ok
}

// Len returns the number of protected ids.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.ids)
}

// IDs returns a sorted copy of the protected set.
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.ids))
	for id := range t.ids {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Set returns a copy of the protected set for use during
// reconciliation, so the set observed there cannot change mid-pass.
func (t *Tracker) Set() map[string]struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := make(map[string]struct{}, len(t.ids))
	for id := range t.ids {
		set[id] = struct{}{}
	}

	return set
}

// Clear removes the given ids from the set. Called after a successful
// push, with exactly the ids that were protected when the push started:
// ids recorded during the push stay protected for the next round.
func (t *Tracker) Clear(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		delete(t.ids, id)
	}

	t.persistLocked()
}

// ClearAll empties the set.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ids = make(map[string]struct{})
	t.persistLocked()
}

func (t *Tracker) persistLocked() {
	ids := make([]string, 0, len(t.ids))
	for id := range t.ids {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	if err := t.store.SetModifiedIDs(ids); err != nil {
		t.logger.Warn("persisting modified-id set", slog.String("error", err.Error()))
	}
}
