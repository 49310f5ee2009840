package browser

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// watchDebounceInterval is how often pending filesystem events are
	// checked, batching Chrome's rapid temp-write-rename sequences into
	// a single rescan.
	watchDebounceInterval = 500 * time.Millisecond

	// watchSettleDelay is how long the file must be quiet before a
	// rescan runs.
	watchSettleDelay = 300 * time.Millisecond
)

// Watch monitors the Bookmarks file for external changes and emits diff
// events on Events. It blocks until the context is cancelled. The
// containing directory is watched rather than the file itself because
// Chrome replaces the file by rename, which would invalidate a direct
// file watch.
func (s *ChromeSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watching bookmarks directory: %w", err)
	}

	if err := s.initBaseline(); err != nil {
		return err
	}

	s.logger.Info("bookmarks watcher started", slog.String("file", s.path))

	var (
		dirty     bool
		lastEvent time.Time
	)

	ticker := time.NewTicker(watchDebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed unexpectedly")
			}

			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}

			dirty = true
			lastEvent = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed unexpectedly")
			}

			s.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			if !dirty || time.Since(lastEvent) < watchSettleDelay {
				continue
			}

			dirty = false
			s.rescan()
		}
	}
}

func (s *ChromeSource) initBaseline() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseline != nil {
		return nil
	}

	tree, err := s.readTree()
	if err != nil {
		return err
	}

	s.baseline = indexTree(tree)

	return nil
}

// rescan re-reads the tree, diffs it against the baseline, and emits
// one event per changed node.
func (s *ChromeSource) rescan() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.readTree()
	if err != nil {
		// Chrome may be mid-rewrite; the next debounce tick retries.
		s.logger.Warn("rescanning bookmarks file", slog.String("error", err.Error()))

		return
	}

	current := indexTree(tree)

	for _, ev := range diffTrees(s.baseline, current) {
		select {
		case s.events <- ev:
		default:
			s.logger.Warn("dropping bookmark change event, channel full",
				slog.String("kind", ev.Kind.String()),
				slog.String("id", ev.Node.ID),
			)
		}
	}

	s.baseline = current
}

// indexTree flattens a tree into an id-indexed map. Root folders are
// included so sibling lookups work for nodes directly under a root.
func indexTree(roots []Node) map[string]Node {
	idx := make(map[string]Node)

	var walk func(nodes []Node)

	walk = func(nodes []Node) {
		for _, n := range nodes {
			idx[n.ID] = n
			walk(n.Children)
		}
	}

	walk(roots)

	return idx
}

// diffTrees compares two flat tree indexes and returns the per-node
// change events, additions first, then removals, then edits and moves.
func diffTrees(old, current map[string]Node) []Event {
	var events []Event

	for id, n := range current {
		if _, ok := old[id]; !ok {
			events = append(events, Event{Kind: EventCreated, Node: n})
		}
	}

	for id, n := range old {
		if _, ok := current[id]; !ok {
			events = append(events, Event{Kind: EventRemoved, Node: n})
		}
	}

	for id, n := range current {
		prev, ok := old[id]
		if !ok {
			continue
		}

		if n.Title != prev.Title || n.URL != prev.URL {
			events = append(events, Event{Kind: EventChanged, Node: n})
		}

		if n.ParentID != prev.ParentID || n.Index != prev.Index {
			ev := Event{Kind: EventMoved, Node: n}

			if parent, ok := current[n.ParentID]; ok {
				ev.Siblings = parent.Children
			}

			if n.IsFolder() {
				ev.Subtree = n.Children
			}

			events = append(events, ev)
		}
	}

	return events
}
