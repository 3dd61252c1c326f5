package cmd

import (
	"context"
	"fmt"
	"time"

	"tbl-merger/core/cache"
	"tbl-merger/core/config"
	"tbl-merger/core/database"
	"tbl-merger/core/logger"
	"tbl-merger/core/storage"
	"tbl-merger/feature/container"
	"tbl-merger/feature/history"
	"tbl-merger/feature/integrity"
	"tbl-merger/feature/merge"
	"tbl-merger/feature/modset"

	"go.uber.org/zap"
)

// shutdownTimeout bounds how long commands wait for background persistence.
const shutdownTimeout = 30 * time.Second

// app bundles the components shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	cache   *cache.MergedFileCache
	mods    *modset.Provider
	service *merge.Service
	history *history.Repository
	checks  *integrity.Service
}

// loadConfig loads configuration and installs the global logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(logg)
	return cfg, logg, nil
}

// newApp wires configuration, cache, containers, mods and the optional
// history store.
func newApp(ctx context.Context) (*app, error) {
	cfg, logg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	mergedCache, err := cache.Open(cfg.Cache, logg)
	if err != nil {
		return nil, err
	}

	var store storage.Client
	if cfg.Storage.Enabled {
		store, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
	}
	locator, err := container.Build(ctx, cfg.Containers, store, cfg.Storage.Bucket, logg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up containers: %w", err)
	}
	if len(locator.Containers()) == 0 {
		logg.Warn("No baseline containers configured, every table will stay unmerged")
	}

	registry, err := cfg.Merge.Registry()
	if err != nil {
		return nil, err
	}

	mods := modset.NewProvider(cfg.Mods, logg)
	orchestrator := merge.NewOrchestrator(cfg.Merge, locator, mergedCache, logg)

	a := &app{cfg: cfg, logger: logg, cache: mergedCache, mods: mods}

	// History is optional; a failed connection only disables it.
	if cfg.History.Enabled {
		if db, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed, merge history disabled", zap.Error(err))
		} else {
			repo := history.NewRepository(db)
			if err := repo.Migrate(); err != nil {
				logg.Warn("Merge history disabled", zap.Error(err))
			} else {
				a.history = repo
				orchestrator.SetRecorder(history.NewRecorder(repo, cfg.History.Keep, logg))
				logg.Info("Recording merge history", zap.String("driver", cfg.Database.Driver))
			}
		}
	}

	a.service = merge.NewService(orchestrator, mods, registry, mergedCache, logg)
	a.checks = integrity.NewService(locator, mods, registry, cfg.Merge.StripPrefixes, logg)
	return a, nil
}

// close waits for background persistence and flushes the logger.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.service.Wait(ctx); err != nil {
		a.logger.Warn("Gave up waiting for background work", zap.Error(err))
	}
	_ = a.logger.Sync()
}
