package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/killallgit/subclip/internal/database"
	"github.com/killallgit/subclip/internal/services/cache"
	"github.com/killallgit/subclip/internal/services/clips"
	"github.com/killallgit/subclip/internal/services/corpus"
	"github.com/killallgit/subclip/internal/services/media"
	"github.com/killallgit/subclip/internal/services/search"
	"github.com/killallgit/subclip/internal/services/workers"
	"github.com/killallgit/subclip/pkg/config"
	"github.com/killallgit/subclip/pkg/ffmpeg"
)

const searchCacheSizeMB = 32

// app wires the services every command works with
type app struct {
	cfg     *config.Config
	db      *database.DB
	cache   *cache.MemoryCache
	store   *search.Store
	indexer *corpus.Indexer
	layout  *clips.OutputLayout
	manager *clips.Manager
}

// newApp opens the database and builds the services, extracting clips with ffmpeg
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	ff := ffmpeg.New(cfg.Clips.FFmpegPath, cfg.Clips.FFprobePath, cfg.Clips.TranscodeTimeout)
	return newAppWithExtractor(ctx, cfg, clips.NewFFmpegExtractor(ff))
}

func newAppWithExtractor(ctx context.Context, cfg *config.Config, extractor clips.Extractor) (*app, error) {
	db, err := database.Open(database.Options{
		Path:               cfg.Database.Path,
		Verbose:            cfg.Database.Verbose,
		MaxOpenConnections: cfg.Database.MaxConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		BusyTimeout:        cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	a := &app{cfg: cfg, db: db, cache: cache.NewMemoryCache(searchCacheSizeMB, time.Minute)}

	a.store = search.NewStore(db, a.cache, search.Options{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		CacheTTL:     cfg.Search.CacheTTL,
	})
	if err := a.store.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.indexer = corpus.NewIndexer(db, a.store, corpus.Options{
		Workers:   cfg.Corpus.IndexWorkers,
		BatchSize: cfg.Corpus.BatchSize,
	})

	a.layout, err = clips.NewOutputLayout(cfg.Clips.OutputDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.manager = clips.NewManager(
		clips.NewRepository(db.DB),
		media.NewResolver(cfg.Corpus.Roots),
		extractor,
		a.layout,
		clips.Config{
			DefaultPadding:    cfg.Clips.DefaultPadding,
			DefaultPriority:   cfg.Clips.DefaultPriority,
			HeartbeatInterval: cfg.Processing.HeartbeatInterval,
		},
	)

	return a, nil
}

// workerPool builds the background fulfilment pool from config
func (a *app) workerPool() *workers.WorkerPool {
	return workers.NewWorkerPool(a.manager, a.cfg.Processing.Workers, a.cfg.Processing.PollInterval)
}

// Close releases the cache and database
func (a *app) Close() error {
	a.cache.Stop()
	return a.db.Close()
}

// withApp runs fn with a freshly wired app and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	if appConfig == nil {
		return errors.New("configuration not loaded")
	}

	a, err := newApp(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}
