// Package sync drives the reconciliation loop: watching the browser,
// fetching the cloud snapshot, applying cloud changes locally, and
// pushing the merged collection back.
package sync

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/profullstack/marksyncr/internal/bookmarks"
	"github.com/profullstack/marksyncr/internal/browser"
	"github.com/profullstack/marksyncr/internal/cloud"
	"github.com/profullstack/marksyncr/internal/errors"
	"github.com/profullstack/marksyncr/internal/history"
	"github.com/profullstack/marksyncr/internal/mirror"
	"github.com/profullstack/marksyncr/internal/tracker"
)

// DefaultInterval is the periodic sync interval when none is configured.
const DefaultInterval = 5 * time.Minute

// State is the orchestrator's lifecycle phase.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateSynced  State = "synced"
	StateError   State = "error"
)

// Status is a point-in-time view of the sync loop.
type Status struct {
	State     State
	Version   int64
	LastSync  time.Time
	LastError string
}

//go:generate mockgen -source=orchestrator.go -destination=mock_orchestrator_test.go -package=sync

// SnapshotService is the bookmark snapshot backend the orchestrator
// reconciles against. Both the cloud API client and the local store
// satisfy it.
type SnapshotService interface {
	Fetch(ctx context.Context) (*bookmarks.Snapshot, error)
	Push(ctx context.Context, items []bookmarks.Item, tombstones []bookmarks.Tombstone, source string) (*bookmarks.PushReceipt, error)
	Delete(ctx context.Context, url, id string) error
}

// HistoryStore records version-history entries for synced changes.
type HistoryStore interface {
	AppendHistory(accountID string, e history.Entry) error
}

// tombstoneStore persists deletions observed locally until they have
// been pushed.
type tombstoneStore interface {
	PendingTombstones() ([]bookmarks.Tombstone, error)
	SetPendingTombstones(ts []bookmarks.Tombstone) error
}

// Orchestrator owns one account's sync loop.
type Orchestrator struct {
	source   browser.Source
	service  SnapshotService
	tracker  *tracker.Tracker
	tombs    tombstoneStore
	histores HistoryStore
	mirrors  []mirror.Mirror
	filter   *Filter
	logger   *slog.Logger
	account  string
	interval time.Duration
	now      func() time.Time

	trigger chan struct{}

	mu     sync.Mutex
	status Status
}

// Options carries the optional collaborators of an Orchestrator.
type Options struct {
	// History, when non-nil, receives an entry per sync that changed
	// anything.
	History HistoryStore
	// Mirrors are pushed to after each successful sync.
	Mirrors []mirror.Mirror
	// Filter excludes folder subtrees; nil syncs everything.
	Filter *Filter
	// Interval overrides DefaultInterval when positive.
	Interval time.Duration
}

// New creates an orchestrator for one account.
func New(source browser.Source, service SnapshotService, tr *tracker.Tracker, tombs tombstoneStore, account string, logger *slog.Logger, opts Options) *Orchestrator {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Orchestrator{
		source:   source,
		service:  service,
		tracker:  tr,
		tombs:    tombs,
		histores: opts.History,
		mirrors:  opts.Mirrors,
		filter:   opts.Filter,
		logger:   logger,
		account:  account,
		interval: interval,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
		status:   Status{State: StateIdle},
	}
}

// Status returns the current loop status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.status
}

// Trigger requests a sync outside the periodic schedule. Requests while
// a trigger is already pending coalesce.
func (o *Orchestrator) Trigger() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

// Run executes the sync loop until the context is cancelled: once at
// startup, then on every tick, trigger, and browser change event.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.SyncOnce(ctx); err != nil {
		o.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-o.source.Events():
			if !ok {
				return fmt.Errorf("browser event channel closed unexpectedly")
			}

			o.handleEvent(ev)
			o.Trigger()

		case <-o.trigger:
			if err := o.SyncOnce(ctx); err != nil {
				o.logger.Warn("sync failed", slog.String("error", err.Error()))
			}

		case <-ticker.C:
			if err := o.SyncOnce(ctx); err != nil {
				o.logger.Warn("periodic sync failed", slog.String("error", err.Error()))
			}
		}
	}
}

// handleEvent records what a browser change protects and, for
// removals, which tombstone it produces.
func (o *Orchestrator) handleEvent(ev browser.Event) {
	o.logger.Debug("browser change",
		slog.String("kind", ev.Kind.String()),
		slog.String("id", ev.Node.ID),
	)

	switch ev.Kind {
	case browser.EventCreated, browser.EventChanged:
		o.tracker.Record(ev.Node.ID)

	case browser.EventMoved:
		o.tracker.Record(ev.Node.ID)
		// A move shifts every neighbor's index, and a folder move
		// changes every descendant's folder path. All of them would
		// otherwise look like stale cloud updates waiting to happen.
		o.tracker.RecordSiblings(ev.Siblings)
		o.tracker.RecordSubtree(ev.Subtree)

	case browser.EventRemoved:
		if ev.Node.URL != "" {
			o.recordTombstone(ev.Node.URL)
		}
	}
}

func (o *Orchestrator) recordTombstone(url string) {
	pending, err := o.tombs.PendingTombstones()
	if err != nil {
		o.logger.Warn("loading pending tombstones", slog.String("error", err.Error()))
		pending = nil
	}

	merged := bookmarks.MergeTombstones(pending, []bookmarks.Tombstone{
		{URL: url, DeletedAt: o.now().UnixMilli()},
	})

	if err := o.tombs.SetPendingTombstones(merged); err != nil {
		o.logger.Warn("persisting pending tombstones", slog.String("error", err.Error()))
	}
}

// SyncOnce performs one full reconciliation round.
func (o *Orchestrator) SyncOnce(ctx context.Context) error {
	o.setState(StateSyncing, nil, 0)

	// Snapshot the protected set up front: ids recorded while this
	// round runs must stay protected for the next one.
	protected := o.tracker.IDs()
	modified := o.tracker.Set()

	snap, err := o.service.Fetch(ctx)
	if err != nil {
		return o.fail(err)
	}

	local, err := o.localItems(ctx)
	if err != nil {
		return o.fail(err)
	}

	pending, err := o.tombs.PendingTombstones()
	if err != nil {
		o.logger.Warn("loading pending tombstones", slog.String("error", err.Error()))
		pending = nil
	}

	allTombs := bookmarks.MergeTombstones(snap.Tombstones, pending)

	changes := bookmarks.Categorize(snap.Items, local, allTombs, modified)
	o.applyCloudChanges(ctx, changes)
	o.applyDeletions(ctx, allTombs, local, modified)

	// Re-scan after applying: the push must reflect what the browser
	// actually holds now, including per-item failures above.
	local, err = o.localItems(ctx)
	if err != nil {
		return o.fail(err)
	}

	// Nothing diverged and nothing pending: skip the push entirely.
	if len(pending) == 0 &&
		bookmarks.Checksum(local) == snap.Checksum &&
		bookmarks.TombstonesEqual(allTombs, snap.Tombstones) {
		o.setState(StateSynced, nil, snap.Version)

		return nil
	}

	receipt, err := o.service.Push(ctx, local, pending, o.source.Name())
	if err != nil {
		return o.fail(err)
	}

	if err := o.tombs.SetPendingTombstones(nil); err != nil {
		o.logger.Warn("clearing pending tombstones", slog.String("error", err.Error()))
	}

	o.tracker.Clear(protected)

	o.recordHistory(snap.Items, local, receipt)
	o.pushMirrors(ctx, local, allTombs, receipt.Version)

	o.setState(StateSynced, nil, receipt.Version)
	o.logger.Info("sync complete",
		slog.Int64("version", receipt.Version),
		slog.Int("added", receipt.Added),
		slog.Int("updated", receipt.Updated),
		slog.Int("deleted", receipt.Deleted),
		slog.Bool("skipped", receipt.Skipped),
	)

	return nil
}

func (o *Orchestrator) localItems(ctx context.Context) ([]bookmarks.Item, error) {
	tree, err := o.source.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading browser tree: %w", err)
	}

	return o.filter.Apply(bookmarks.Classify(browser.Flatten(tree))), nil
}

// applyCloudChanges creates and updates local bookmarks per the
// categorizer's decisions. Failures are per-item: one unwritable
// bookmark must not stall the rest of the round.
func (o *Orchestrator) applyCloudChanges(ctx context.Context, changes bookmarks.Changes) {
	for _, c := range changes.ToAdd {
		if o.filter != nil && !o.filter.Allow(c) {
			continue
		}

		folderID, err := o.source.EnsureFolder(ctx, c.FolderPath)
		if err != nil {
			o.logger.Warn("ensuring folder", slog.String("path", c.FolderPath), slog.String("error", err.Error()))
			continue
		}

		_, err = o.source.Create(ctx, folderID, browser.Node{
			Title:     c.Title,
			URL:       c.URL,
			Index:     c.IndexOrZero(),
			DateAdded: c.DateAdded,
		})
		if err != nil {
			o.logger.Warn("creating bookmark", slog.String("url", c.URL), slog.String("error", err.Error()))
		}
	}

	for _, pair := range changes.ToUpdate {
		if pair.Cloud.Title != pair.Local.Title {
			err := o.source.Update(ctx, browser.Node{
				ID:    pair.Local.ID,
				Title: pair.Cloud.Title,
				URL:   pair.Local.URL,
			})
			if err != nil {
				o.logger.Warn("updating bookmark", slog.String("url", pair.Local.URL), slog.String("error", err.Error()))
				continue
			}
		}

		if o.needsMove(pair) {
			folderID, err := o.source.EnsureFolder(ctx, pair.Cloud.FolderPath)
			if err != nil {
				o.logger.Warn("ensuring folder", slog.String("path", pair.Cloud.FolderPath), slog.String("error", err.Error()))
				continue
			}

			if err := o.source.Move(ctx, pair.Local.ID, folderID, pair.Cloud.IndexOrZero()); err != nil {
				o.logger.Warn("moving bookmark", slog.String("url", pair.Local.URL), slog.String("error", err.Error()))
			}
		}
	}

	for _, skipped := range changes.SkippedByLocalModification {
		o.logger.Debug("cloud update skipped, locally modified", slog.String("url", skipped))
	}
}

func (o *Orchestrator) needsMove(pair bookmarks.UpdatePair) bool {
	if bookmarks.NormalizeFolderPath(pair.Cloud.FolderPath) != bookmarks.NormalizeFolderPath(pair.Local.FolderPath) {
		return true
	}

	return pair.Cloud.Index != nil && pair.Local.Index != nil && *pair.Cloud.Index != *pair.Local.Index
}

// applyDeletions removes local bookmarks the tombstone set has
// deleted, honoring the local-modification guard.
func (o *Orchestrator) applyDeletions(ctx context.Context, tombstones []bookmarks.Tombstone, local []bookmarks.Item, modified map[string]struct{}) {
	dels := bookmarks.ApplyTombstones(tombstones, local, modified)

	for _, it := range dels.ToDelete {
		if err := o.source.Remove(ctx, it.ID); err != nil {
			o.logger.Warn("removing bookmark", slog.String("url", it.URL), slog.String("error", err.Error()))
		}
	}

	for _, url := range dels.SkippedByLocalModification {
		o.logger.Debug("tombstone skipped, locally modified", slog.String("url", url))
	}
}

func (o *Orchestrator) recordHistory(before, after []bookmarks.Item, receipt *bookmarks.PushReceipt) {
	if o.histores == nil || receipt.Skipped {
		return
	}

	if receipt.Added+receipt.Updated+receipt.Deleted == 0 {
		return
	}

	entry := history.NewEntry(o.source.Name(), *receipt, history.Summarize(before, after))
	if err := o.histores.AppendHistory(o.account, entry); err != nil {
		o.logger.Warn("recording history", slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) pushMirrors(ctx context.Context, items []bookmarks.Item, tombstones []bookmarks.Tombstone, version int64) {
	if len(o.mirrors) == 0 {
		return
	}

	snap := &bookmarks.Snapshot{
		Items:      items,
		Tombstones: tombstones,
		Version:    version,
	}

	go mirror.PushAll(ctx, o.logger, o.mirrors, snap)
}

// fail records a failed round. A revoked session is terminal for the
// round, logged at error level; transient failures resolve themselves
// on the next tick.
func (o *Orchestrator) fail(err error) error {
	o.setState(StateError, err, 0)

	switch {
	case stderrors.Is(err, errors.ErrSessionRevoked):
		o.logger.Error("session revoked, re-authentication required")
	case cloud.IsTransient(err):
		o.logger.Warn("transient sync failure, will retry", slog.String("error", err.Error()))
	}

	return err
}

func (o *Orchestrator) setState(s State, err error, version int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.status.State = s

	switch s {
	case StateSynced:
		o.status.LastSync = o.now()
		o.status.LastError = ""
		o.status.Version = version
	case StateError:
		if err != nil {
			o.status.LastError = err.Error()
		}
	}
}
