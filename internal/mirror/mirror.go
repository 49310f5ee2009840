// Package mirror publishes the merged bookmark collection to external
// destinations (a GitHub repo file, a Dropbox file) after each
// successful sync. Mirrors are best-effort: a failing mirror is logged
// and retried on the next sync, never blocking the sync itself.
package mirror

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/profullstack/marksyncr/internal/bookmarks"
)

// Result describes one completed mirror push.
type Result struct {
	// Created is true when the destination file did not exist before.
	Created bool
	// BookmarkCount is the number of bookmarks in the pushed document.
	BookmarkCount int
	// Rev is the destination's revision identifier for the new content.
	Rev string
}

// Mirror is a single external destination.
type Mirror interface {
	Name() string
	Push(ctx context.Context, snap *bookmarks.Snapshot) (*Result, error)
}

// PushAll pushes the snapshot to every mirror concurrently. Individual
// failures are logged and swallowed.
func PushAll(ctx context.Context, logger *slog.Logger, mirrors []Mirror, snap *bookmarks.Snapshot) {
	g, ctx := errgroup.WithContext(ctx)

	for _, m := range mirrors {
		m := m
		g.Go(func() error {
			res, err := m.Push(ctx, snap)
			if err != nil {
				logger.Warn("mirror push failed",
					slog.String("mirror", m.Name()),
					slog.String("error", err.Error()),
				)

				return nil
			}

			logger.Info("mirror updated",
				slog.String("mirror", m.Name()),
				slog.Bool("created", res.Created),
				slog.Int("bookmarks", res.BookmarkCount),
				slog.String("rev", res.Rev),
			)

			return nil
		})
	}

	_ = g.Wait()
}
