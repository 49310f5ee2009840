package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/profullstack/marksyncr/internal/browser"
	"github.com/profullstack/marksyncr/internal/cloud"
	"github.com/profullstack/marksyncr/internal/config"
	"github.com/profullstack/marksyncr/internal/logging"
	"github.com/profullstack/marksyncr/internal/mirror"
	"github.com/profullstack/marksyncr/internal/snapshot"
	"github.com/profullstack/marksyncr/internal/state"
	"github.com/profullstack/marksyncr/internal/sync"
	"github.com/profullstack/marksyncr/internal/tracker"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	logger.Info("marksyncr starting",
		slog.String("version", Version),
		slog.String("device", cfg.DeviceName),
		slog.Bool("local_mode", cfg.LocalMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appState, err := loadState(cfg)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer appState.Close()

	if err := appState.InitAccountBuckets(cfg.AccountID); err != nil {
		return fmt.Errorf("initializing account buckets: %w", err)
	}

	bookmarksFile, err := cfg.ResolveBookmarksFile()
	if err != nil {
		return fmt.Errorf("resolving bookmarks file: %w", err)
	}
	logger.Info("watching bookmarks", slog.String("path", bookmarksFile))

	source := browser.NewChromeSource(bookmarksFile, logger)

	var service sync.SnapshotService
	if cfg.LocalMode {
		service = snapshot.New(appState, cfg.AccountID)
	} else {
		service = cloud.NewClient(cfg.APIURL, cfg.APIToken, nil)
	}

	mirrors, err := mirror.Load(cfg.MirrorsFile)
	if err != nil {
		return fmt.Errorf("loading mirrors config: %w", err)
	}
	if len(mirrors) > 0 {
		logger.Info("mirrors configured", slog.Int("count", len(mirrors)))
	}

	tr := tracker.Load(appState, logger)

	orch := sync.New(source, service, tr, appState, cfg.AccountID, logger, sync.Options{
		History:  appState,
		Mirrors:  mirrors,
		Filter:   sync.NewFilter(cfg.CleanExcludeFolders()),
		Interval: cfg.SyncInterval,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return source.Watch(gctx)
	})
	g.Go(func() error {
		return orch.Run(gctx)
	})

	return g.Wait()
}

func loadState(cfg *config.Config) (*state.State, error) {
	if cfg.StateFile != "" {
		return state.LoadAt(cfg.StateFile)
	}

	return state.Load()
}
