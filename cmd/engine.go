package cmd

import (
	"context"
	"fmt"
	"strings"

	"dem-manager/core/config"
	"dem-manager/core/database"
	"dem-manager/core/fetch"
	"dem-manager/core/ledger"
	"dem-manager/core/logger"
	"dem-manager/core/provider"
	"dem-manager/core/source"
	"dem-manager/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// engine is the tile provider together with the resources it owns.
type engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider *provider.Provider
	sources  []source.Source
	ledger   *ledger.Ledger
	store    storage.Client
	db       *gorm.DB
}

// loadEngine reads the configuration and builds the provider. The database is optional:
// a failed connection only disables the download ledger.
func loadEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	e := &engine{cfg: cfg, logger: logg, sources: source.FromConfig(cfg.Sources)}

	if cfg.Database.Enabled {
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed, download ledger disabled", zap.Error(err))
		} else {
			e.db = conn
			logg.Info("Connected to ledger database", zap.String("driver", cfg.Database.Driver))
		}
	}
	e.ledger = ledger.New(e.db, logg)
	if err := e.ledger.Migrate(ctx); err != nil {
		logg.Warn("Download ledger migration failed", zap.Error(err))
	}

	if usesS3(e.sources) {
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		e.store = store
	}

	p, err := provider.New(cfg.Elevation, e.sources,
		provider.WithLogger(logg),
		provider.WithLedger(e.ledger),
		provider.WithFetcher(e.newFetcher),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile provider: %w", err)
	}
	e.provider = p

	for _, s := range e.sources {
		logg.Info("Elevation source",
			zap.String("name", s.Name),
			zap.String("directory", s.Directory),
			zap.Bool("download", s.CanDownload()))
	}
	return e, nil
}

func (e *engine) newFetcher() (provider.Fetcher, error) {
	var opts []fetch.Option
	if e.store != nil {
		opts = append(opts, fetch.WithStorage(e.store))
	}
	return fetch.NewPool(e.cfg.Fetch, e.logger, opts...), nil
}

func usesS3(sources []source.Source) bool {
	for _, s := range sources {
		if strings.HasPrefix(s.DownloadURL, "s3://") {
			return true
		}
	}
	return false
}

// Close stops the provider and releases the database.
func (e *engine) Close(ctx context.Context) {
	if err := e.provider.Close(ctx); err != nil {
		e.logger.Warn("Tile provider did not stop cleanly", zap.Error(err))
	}
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = e.logger.Sync()
}
