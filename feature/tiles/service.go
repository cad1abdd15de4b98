package tiles

import (
	"context"
	"errors"
	"fmt"

	"dem-manager/core/grid"
	"dem-manager/core/ledger"
	"dem-manager/core/provider"
	"dem-manager/core/server"
	"dem-manager/core/tile"
	"dem-manager/core/tilecache"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// ErrInvalidArgument wraps every validation failure of the service.
var ErrInvalidArgument = errors.New("invalid argument")

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
}

// Engine is the tile administration surface of *provider.Provider.
type Engine interface {
	CacheTiles(b orb.Bound) []string
	CacheStats() tilecache.Stats
	Tiles() []tilecache.Info
	ClearTiles(status tile.Status) int
	Downloads(ctx context.Context, status string) ([]ledger.TileDownload, error)
	ForgetDownloads(ctx context.Context, id string) error
	Settings() provider.Settings
	SetCacheSizeLimit(mibs int64) int64
	SetAutoDownloadEnabled(enabled bool) error
	SetPreferredResolutionType(typ tile.Type) error
	SetInterpolationMode(mode tile.Interpolation)
}

// SettingsUpdate changes the provider settings. Omitted fields are left unchanged.
type SettingsUpdate struct {
	CacheSizeMiB        *int64  `json:"cache_size_mib,omitempty"`
	AutoDownload        *bool   `json:"auto_download,omitempty"`
	PreferredResolution *string `json:"preferred_resolution,omitempty"`
	Interpolation       *string `json:"interpolation,omitempty"`
}

// Overview is the state of the tile cache.
type Overview struct {
	Stats    tilecache.Stats   `json:"stats"`
	Settings provider.Settings `json:"settings"`
	Tiles    []tilecache.Info  `json:"tiles"`
}

// Service administers the tile cache.
type Service struct {
	engine Engine
	limits server.Config
	logger *zap.Logger
}

// NewService creates a new tiles service.
func NewService(engine Engine, limits server.Config, logger *zap.Logger) *Service {
	return &Service{
		engine: engine,
		limits: limits,
		logger: logger,
	}
}

// Overview returns the cache counters, settings and cached tiles.
func (s *Service) Overview() Overview {
	return Overview{
		Stats:    s.engine.CacheStats(),
		Settings: s.engine.Settings(),
		Tiles:    s.engine.Tiles(),
	}
}

// Prefetch schedules every tile intersecting b.
func (s *Service) Prefetch(b orb.Bound) ([]string, error) {
	width, height := grid.Width(b), b.Max.Lat()-b.Min.Lat()
	if !s.limits.AllowsArea(width, height) {
		return nil, fmt.Errorf("%w: prefetch area of %.3f square degrees exceeds %.3f", ErrInvalidArgument, width*height, s.limits.MaxAreaDegrees)
	}
	ids := s.engine.CacheTiles(b)
	s.logger.Info("Prefetch scheduled", zap.Strings("tiles", ids))
	return ids, nil
}

// Clear removes every cached tile in the named status.
func (s *Service) Clear(status string) (int, error) {
	st, err := tile.ParseStatus(status)
	if err != nil {
		return 0, invalid(err)
	}
	n := s.engine.ClearTiles(st)
	s.logger.Info("Tiles cleared", zap.String("status", st.String()), zap.Int("count", n))
	return n, nil
}

// Downloads lists the download ledger.
func (s *Service) Downloads(ctx context.Context, status string) ([]ledger.TileDownload, error) {
	if status != "" {
		if _, err := tile.ParseStatus(status); err != nil {
			return nil, invalid(err)
		}
	}
	return s.engine.Downloads(ctx, status)
}

// ForgetDownloads drops the ledger rows of a tile.
func (s *Service) ForgetDownloads(ctx context.Context, id string) error {
	if _, _, err := tile.ParseID(id); err != nil {
		return invalid(err)
	}
	return s.engine.ForgetDownloads(ctx, id)
}

// UpdateSettings validates every field first and applies them only when all are valid.
func (s *Service) UpdateSettings(u SettingsUpdate) (provider.Settings, error) {
	var (
		typ  tile.Type
		mode tile.Interpolation
		err  error
	)
	if u.PreferredResolution != nil {
		if typ, err = tile.ParseType(*u.PreferredResolution); err != nil {
			return provider.Settings{}, invalid(err)
		}
	}
	if u.Interpolation != nil {
		if mode, err = tile.ParseInterpolation(*u.Interpolation); err != nil {
			return provider.Settings{}, invalid(err)
		}
	}
	if u.CacheSizeMiB != nil && *u.CacheSizeMiB <= 0 {
		return provider.Settings{}, fmt.Errorf("%w: cache size must be positive, got %d", ErrInvalidArgument, *u.CacheSizeMiB)
	}

	if u.CacheSizeMiB != nil {
		s.engine.SetCacheSizeLimit(*u.CacheSizeMiB)
	}
	if u.PreferredResolution != nil {
		if err := s.engine.SetPreferredResolutionType(typ); err != nil {
			return provider.Settings{}, err
		}
	}
	if u.Interpolation != nil {
		s.engine.SetInterpolationMode(mode)
	}
	if u.AutoDownload != nil {
		if err := s.engine.SetAutoDownloadEnabled(*u.AutoDownload); err != nil {
			return provider.Settings{}, err
		}
	}
	return s.engine.Settings(), nil
}
