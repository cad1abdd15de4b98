package provider

import (
	"context"
	"fmt"

	"dem-manager/core/grid"
	"dem-manager/core/ledger"
	"dem-manager/core/raster"
	"dem-manager/core/tile"
	"dem-manager/core/tilecache"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// reuseFactor is how much larger than the requested bounds a reused grid may be.
const reuseFactor = 1.5

// Elevation returns the elevation at pt using the configured interpolation. Without data
// the sample keeps pt and is not valid.
func (p *Provider) Elevation(pt orb.Point) tile.Sample {
	lat, lon := pt.Lat(), pt.Lon()
	if !(lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180) {
		panic(fmt.Sprintf("provider: coordinate (%f,%f) out of range", lat, lon))
	}
	t := p.Tile(tile.IDFor(lat, lon))
	return t.SampleValueAndCoordinate(lat, lon, p.InterpolationMode())
}

// CacheTiles schedules every tile intersecting b and returns their ids. It does not wait.
func (p *Provider) CacheTiles(b orb.Bound) []string {
	ids := grid.CellIDs(b)
	for _, id := range ids {
		p.Tile(id)
	}
	return ids
}

// Grid returns a grid covering b, reusing the previous one when it fits.
func (p *Provider) Grid(b orb.Bound) *grid.Grid {
	typ := p.PreferredResolutionType()

	p.gridMu.Lock()
	g := p.lastGrid
	p.gridMu.Unlock()
	if g != nil && g.Type() == typ && g.Covers(b) && !oversized(g, b) && !g.Detached() {
		return g
	}

	g = grid.New(p, b, typ)
	if g.Detached() {
		// Some reads were rejected; the next call rebuilds and retries them.
		p.invalidateGrid()
		return g
	}
	settled := g.AllTilesCached()

	p.gridMu.Lock()
	p.lastGrid = g
	if !settled {
		p.pending[g] = struct{}{}
	}
	p.gridMu.Unlock()

	if !settled {
		// Tiles may have settled before the grid was registered.
		p.checkPending()
	}
	return g
}

// oversized reports whether g is more than reuseFactor times wider or taller than b.
func oversized(g *grid.Grid, b orb.Bound) bool {
	return g.NominalWidth() > reuseFactor*grid.Width(b) ||
		g.NominalHeight() > reuseFactor*(b.Max.Lat()-b.Min.Lat())
}

// ElevationRaster returns the samples of b, or false while tiles are loading.
func (p *Provider) ElevationRaster(b orb.Bound) (*raster.ElevationRaster, bool) {
	return p.Grid(b).ElevationRaster(b)
}

// ContourLines returns the isolines of b at multiples of step within [lower, upper].
func (p *Provider) ContourLines(b orb.Bound, step, lower, upper int) ([]raster.ContourSet, bool) {
	return p.Grid(b).ContourLines(b, step, lower, upper)
}

// Hillshade shades b with the sun at altitude degrees above the horizon and azimuth degrees
// clockwise from north. Areas too small to shade return raster.ErrTooFewSamples.
func (p *Provider) Hillshade(b orb.Bound, altitude, azimuth float64, withPerimeter bool) (*raster.HillshadeImage, bool, error) {
	return p.Grid(b).Hillshade(b, altitude, azimuth, withPerimeter)
}

// Extremes returns the lowest and highest points of b.
func (p *Provider) Extremes(b orb.Bound) (raster.Extremes, bool) {
	return p.Grid(b).Extremes(b)
}

// checkPending notifies listeners of every pending grid that has settled and drops the
// grids holding detached tiles.
func (p *Provider) checkPending() {
	p.gridMu.Lock()
	var ready []*grid.Grid
	for g := range p.pending {
		if g.Detached() {
			delete(p.pending, g)
			if p.lastGrid == g {
				p.lastGrid = nil
			}
			continue
		}
		if g.AllTilesCached() {
			ready = append(ready, g)
			delete(p.pending, g)
		}
	}
	p.gridMu.Unlock()

	for _, g := range ready {
		p.notify(g)
	}
}

// invalidateGrid drops the reusable grid after a retry reset.
func (p *Provider) invalidateGrid() {
	p.gridMu.Lock()
	p.lastGrid = nil
	p.gridMu.Unlock()
}

// Listener is told when a grid has settled.
type Listener interface {
	OnElevationDataAvailable(g *grid.Grid)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(g *grid.Grid)

// OnElevationDataAvailable implements Listener.
func (f ListenerFunc) OnElevationDataAvailable(g *grid.Grid) { f(g) }

// Handle identifies a registered listener.
type Handle uint64

// AddListener registers l and returns its handle.
func (p *Provider) AddListener(l Listener) Handle {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()
	p.nextHandle++
	p.listeners[p.nextHandle] = l
	return p.nextHandle
}

// RemoveListener unregisters a listener and reports whether it was registered.
func (p *Provider) RemoveListener(h Handle) bool {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()
	_, ok := p.listeners[h]
	delete(p.listeners, h)
	return ok
}

func (p *Provider) notify(g *grid.Grid) {
	p.listenersMu.RLock()
	ls := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		ls = append(ls, l)
	}
	p.listenersMu.RUnlock()

	for _, l := range ls {
		l.OnElevationDataAvailable(g)
	}
}

// SetCacheSizeLimit changes the cache limit and returns the effective limit in MiB.
func (p *Provider) SetCacheSizeLimit(mibs int64) int64 {
	limit := p.cache.SetSizeLimit(mibs * mib)
	p.logger.Info("Tile cache limit changed", zap.Int64("limit_mib", limit/mib))
	return limit / mib
}

// SetAutoDownloadEnabled turns downloads on or off. Turning them on clears DOWNLOAD_FAILED
// tiles, and FILE_MISSING tiles when downloads were off, so they are attempted again.
func (p *Provider) SetAutoDownloadEnabled(enabled bool) error {
	p.settingsMu.Lock()
	was := p.autoDownload
	var stale Fetcher
	if enabled {
		if p.fetcher == nil && p.newFetcher != nil {
			f, err := p.newFetcher()
			if err != nil {
				p.settingsMu.Unlock()
				return fmt.Errorf("failed to create tile fetcher: %w", err)
			}
			p.fetcher = f
		}
	} else {
		stale = p.fetcher
		p.fetcher = nil
	}
	p.autoDownload = enabled
	p.settingsMu.Unlock()

	if stale != nil {
		if err := stale.Close(); err != nil {
			p.logger.Warn("Failed to close tile fetcher", zap.Error(err))
		}
	}
	if enabled {
		cleared := 0
		if !was {
			cleared += p.cache.ClearAllWithStatus(tile.StatusFileMissing)
		}
		cleared += p.cache.ClearAllWithStatus(tile.StatusDownloadFailed)
		p.invalidateGrid()
		p.logger.Info("Tile downloads enabled", zap.Int("cleared", cleared))
	} else if was {
		p.logger.Info("Tile downloads disabled")
	}
	return nil
}

// SetPreferredResolutionType changes the source order and the resolution of new grids.
func (p *Provider) SetPreferredResolutionType(typ tile.Type) error {
	if typ.SideLength() == 0 {
		return fmt.Errorf("unsupported resolution %v", typ)
	}
	p.settingsMu.Lock()
	p.preferred = typ
	p.settingsMu.Unlock()
	p.invalidateGrid()
	return nil
}

// SetInterpolationMode changes how point queries sample tiles.
func (p *Provider) SetInterpolationMode(mode tile.Interpolation) {
	p.settingsMu.Lock()
	p.interpolation = mode
	p.settingsMu.Unlock()
}

// PreferredResolutionType returns the preferred resolution.
func (p *Provider) PreferredResolutionType() tile.Type {
	p.settingsMu.RLock()
	defer p.settingsMu.RUnlock()
	return p.preferred
}

// InterpolationMode returns the point query interpolation.
func (p *Provider) InterpolationMode() tile.Interpolation {
	p.settingsMu.RLock()
	defer p.settingsMu.RUnlock()
	return p.interpolation
}

// Settings is a snapshot of the runtime settings.
type Settings struct {
	CacheSizeMiB        int64  `json:"cache_size_mib"`
	AutoDownload        bool   `json:"auto_download"`
	PreferredResolution string `json:"preferred_resolution"`
	Interpolation       string `json:"interpolation"`
}

// Settings returns the current settings.
func (p *Provider) Settings() Settings {
	limit := p.cache.Stats().Limit
	p.settingsMu.RLock()
	defer p.settingsMu.RUnlock()
	return Settings{
		CacheSizeMiB:        limit / mib,
		AutoDownload:        p.autoDownload,
		PreferredResolution: p.preferred.String(),
		Interpolation:       p.interpolation.String(),
	}
}

// CacheStats returns the cache counters.
func (p *Provider) CacheStats() tilecache.Stats {
	return p.cache.Stats()
}

// Tiles lists the cached tiles.
func (p *Provider) Tiles() []tilecache.Info {
	return p.cache.Snapshot()
}

// ClearTiles removes every cached tile in status so it is looked up again.
func (p *Provider) ClearTiles(status tile.Status) int {
	n := p.cache.ClearAllWithStatus(status)
	if n > 0 {
		p.invalidateGrid()
	}
	return n
}

// Downloads lists the download ledger, optionally filtered by status.
func (p *Provider) Downloads(ctx context.Context, status string) ([]ledger.TileDownload, error) {
	return p.ledger.List(ctx, status)
}

// ForgetDownloads drops the ledger rows of a tile.
func (p *Provider) ForgetDownloads(ctx context.Context, id string) error {
	return p.ledger.Forget(ctx, id)
}
