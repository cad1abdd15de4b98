package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"dem-manager/core/fetch"
	"dem-manager/core/grid"
	"dem-manager/core/hgt"
	"dem-manager/core/ledger"
	"dem-manager/core/source"
	"dem-manager/core/tile"
	"dem-manager/core/tilecache"
	"dem-manager/core/worker"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader finds and reads local tile files.
type Loader interface {
	Locate(dir, id string, typ tile.Type) (string, bool)
	ReadTile(path string, typ tile.Type) ([]int16, error)
}

// Fetcher downloads missing tiles. Fetch must not block and returns an error when the
// download cannot be queued.
type Fetcher interface {
	Fetch(id string, src source.Source, l fetch.Listener) error
	Close() error
}

// FetcherFactory builds the fetcher when downloads get enabled.
type FetcherFactory func() (Fetcher, error)

// Option customizes a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLoader replaces the HGT file loader.
func WithLoader(l Loader) Option {
	return func(p *Provider) {
		if l != nil {
			p.loader = l
		}
	}
}

// WithLedger records download progress.
func WithLedger(l *ledger.Ledger) Option {
	return func(p *Provider) {
		if l != nil {
			p.ledger = l
		}
	}
}

// WithFetcher sets the factory used to build the tile fetcher.
func WithFetcher(f FetcherFactory) Option {
	return func(p *Provider) {
		p.newFetcher = f
	}
}

// Provider orchestrates tile loading and answers elevation queries.
type Provider struct {
	logger     *zap.Logger
	cache      *tilecache.Cache
	queue      *worker.Queue
	loader     Loader
	ledger     *ledger.Ledger
	newFetcher FetcherFactory
	misses     singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	settingsMu    sync.RWMutex
	sources       []source.Source
	preferred     tile.Type
	interpolation tile.Interpolation
	autoDownload  bool
	fetcher       Fetcher

	lastMu   sync.Mutex
	lastTile *tile.Tile

	gridMu   sync.Mutex
	lastGrid *grid.Grid
	pending  map[*grid.Grid]struct{}

	listenersMu sync.RWMutex
	listeners   map[Handle]Listener
	nextHandle  Handle
}

// New creates a provider searching sources. Downloads start enabled when cfg says so.
func New(cfg Config, sources []source.Source, opts ...Option) (*Provider, error) {
	preferred, err := tile.ParseType(cfg.PreferredResolution)
	if err != nil {
		return nil, fmt.Errorf("invalid preferred resolution: %w", err)
	}
	interpolation, err := tile.ParseInterpolation(cfg.Interpolation)
	if err != nil {
		return nil, fmt.Errorf("invalid interpolation: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Provider{
		logger:        zap.NewNop(),
		loader:        hgt.Reader{},
		ledger:        ledger.New(nil, nil),
		ctx:           ctx,
		cancel:        cancel,
		sources:       append([]source.Source(nil), sources...),
		preferred:     preferred,
		interpolation: interpolation,
		pending:       make(map[*grid.Grid]struct{}),
		listeners:     make(map[Handle]Listener),
	}
	for _, opt := range opts {
		opt(p)
	}

	minLimit, maxLimit := cfg.MinCacheSizeMiB*mib, cfg.MaxCacheSizeMiB*mib
	if minLimit <= 0 {
		minLimit = tilecache.DefaultMinLimit
	}
	if maxLimit <= 0 {
		maxLimit = tilecache.DefaultMaxLimit
	}
	p.cache = tilecache.New(cfg.CacheSizeMiB*mib,
		tilecache.WithLogger(p.logger),
		tilecache.WithLimitRange(minLimit, maxLimit),
		tilecache.WithEvictHook(p.forget),
	)
	p.queue = worker.New(cfg.QueueCapacity, p.logger)

	if cfg.AutoDownload {
		if err := p.SetAutoDownloadEnabled(true); err != nil {
			p.queue.Shutdown(context.Background())
			cancel()
			return nil, err
		}
	}
	return p, nil
}

// Close stops downloads, cancels pending reads and waits for the running one.
func (p *Provider) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.settingsMu.Lock()
	f := p.fetcher
	p.fetcher = nil
	p.settingsMu.Unlock()

	var errs []error
	if f != nil {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close fetcher: %w", err))
		}
	}
	cancelled, err := p.queue.Shutdown(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to stop read queue: %w", err))
	}
	if len(cancelled) > 0 {
		p.logger.Info("Cancelled pending tile reads", zap.Int("count", len(cancelled)))
	}
	p.cancel()
	return errors.Join(errs...)
}

// Tile returns the tile for id, scheduling its load on a miss. It never blocks on I/O and
// never returns nil. A malformed id panics.
func (p *Provider) Tile(id string) *tile.Tile {
	p.lastMu.Lock()
	last := p.lastTile
	p.lastMu.Unlock()
	if last != nil && last.ID() == id {
		return last
	}

	t, ok := p.cache.Get(id)
	if !ok {
		v, _, _ := p.misses.Do(id, func() (interface{}, error) {
			return p.resolve(id), nil
		})
		t = v.(*tile.Tile)
	}

	// Only cached tiles may take the slot; the evict hook clears it under the same lock.
	p.lastMu.Lock()
	if cached, ok := p.cache.Get(id); ok && cached == t {
		p.lastTile = t
	}
	p.lastMu.Unlock()
	return t
}

// resolve creates the cache entry of a missing tile.
func (p *Provider) resolve(id string) *tile.Tile {
	if t, ok := p.cache.Get(id); ok {
		return t
	}
	sources, fetcher := p.searchPath()

	for _, src := range sources {
		path, ok := p.loader.Locate(src.Directory, id, src.Type)
		if !ok {
			continue
		}
		t := p.mustApply(id, tile.EventScheduleRead, tile.TypeUnknown, nil)
		p.scheduleRead(t, path, src.Type)
		return t
	}

	if fetcher != nil {
		for _, src := range sources {
			if !src.CanDownload() {
				continue
			}
			t := p.mustApply(id, tile.EventScheduleDownload, tile.TypeUnknown, nil)
			p.record(id, src.Name, tile.StatusDownloadScheduled, nil)
			if err := fetcher.Fetch(id, src, &downloadListener{p: p, src: src}); err != nil {
				p.logger.Warn("Tile download rejected",
					zap.String("tile", id),
					zap.String("source", src.Name),
					zap.Error(err))
				p.abandon(t)
			}
			return t
		}
	}

	return p.mustApply(id, tile.EventMissing, tile.TypeUnknown, nil)
}

// searchPath returns the sources in preference order and the fetcher when downloads are on.
func (p *Provider) searchPath() ([]source.Source, Fetcher) {
	p.settingsMu.RLock()
	defer p.settingsMu.RUnlock()
	var f Fetcher
	if p.autoDownload {
		f = p.fetcher
	}
	return source.Ordered(p.sources, p.preferred), f
}

// mustApply moves a fresh tile out of StatusNone. Only a malformed id can fail here.
func (p *Provider) mustApply(id string, e tile.Event, typ tile.Type, data []int16) *tile.Tile {
	t, err := p.cache.Apply(id, e, typ, data)
	if t == nil {
		panic(fmt.Sprintf("provider: %v", err))
	}
	if err != nil {
		p.logger.Debug("Tile already tracked", zap.String("tile", id), zap.Stringer("event", e), zap.Error(err))
	}
	return t
}

// apply advances a cached tile. A tile removed meanwhile is left alone.
func (p *Provider) apply(id string, e tile.Event, typ tile.Type, data []int16) (*tile.Tile, bool) {
	t, err := p.cache.Apply(id, e, typ, data)
	if err != nil {
		p.logger.Debug("Ignoring tile event",
			zap.String("tile", id),
			zap.Stringer("event", e),
			zap.Error(err))
		return t, false
	}
	return t, true
}

// abandon drops a placeholder whose work could not be scheduled. Holders of the detached
// tile see it as missing; the next query starts over.
func (p *Provider) abandon(t *tile.Tile) {
	if cached, ok := p.cache.Get(t.ID()); ok && cached == t {
		p.cache.Remove(t.ID())
	}
	t.Detach()
	p.checkPending()
}

func (p *Provider) scheduleRead(t *tile.Tile, path string, typ tile.Type) {
	id := t.ID()
	_, err := p.queue.Submit("read "+id, func(ctx context.Context) error {
		return p.read(ctx, id, path, typ)
	})
	if err != nil {
		p.logger.Warn("Tile read rejected", zap.String("tile", id), zap.Error(err))
		p.abandon(t)
	}
}

// read runs on the worker queue.
func (p *Provider) read(ctx context.Context, id, path string, typ tile.Type) error {
	if _, ok := p.apply(id, tile.EventStartRead, tile.TypeUnknown, nil); !ok {
		return nil
	}
	data, err := p.loader.ReadTile(path, typ)
	if err == nil && len(data) != typ.SampleCount() {
		err = fmt.Errorf("%d samples for %s, want %d", len(data), typ, typ.SampleCount())
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		p.logger.Warn("Failed to read tile",
			zap.String("tile", id),
			zap.String("path", path),
			zap.Error(err))
		p.apply(id, tile.EventReadFailed, tile.TypeUnknown, nil)
	} else {
		p.logger.Debug("Tile loaded", zap.String("tile", id), zap.Stringer("type", typ))
		p.apply(id, tile.EventReadSucceeded, typ, data)
	}
	p.checkPending()
	return err
}

// record writes the ledger. A failing ledger never blocks tile loading.
func (p *Provider) record(id, src string, status tile.Status, cause error) {
	if err := p.ledger.Record(p.ctx, id, src, status, cause); err != nil {
		p.logger.Debug("Download not recorded",
			zap.String("tile", id),
			zap.String("source", src),
			zap.Stringer("status", status),
			zap.Error(err))
	}
}

// downloadListener turns fetcher callbacks into tile events.
type downloadListener struct {
	p   *Provider
	src source.Source
}

func (l *downloadListener) OnStarted(id string) {
	if _, ok := l.p.apply(id, tile.EventStartDownload, tile.TypeUnknown, nil); ok {
		l.p.record(id, l.src.Name, tile.StatusDownloading, nil)
	}
}

func (l *downloadListener) OnSucceeded(id, path string, typ tile.Type) {
	l.p.logger.Info("Tile downloaded", zap.String("tile", id), zap.String("path", path))
	t, ok := l.p.apply(id, tile.EventDownloadSucceeded, tile.TypeUnknown, nil)
	l.p.record(id, l.src.Name, tile.StatusReadingScheduled, nil)
	if ok {
		l.p.scheduleRead(t, path, typ)
	}
}

func (l *downloadListener) OnFailed(id string, err error) {
	l.p.apply(id, tile.EventDownloadFailed, tile.TypeUnknown, nil)
	l.p.record(id, l.src.Name, tile.StatusDownloadFailed, err)
	l.p.checkPending()
}

// forget empties the locality slots referencing an evicted or cleared tile.
func (p *Provider) forget(t *tile.Tile) {
	p.lastMu.Lock()
	if p.lastTile == t {
		p.lastTile = nil
	}
	p.lastMu.Unlock()

	p.gridMu.Lock()
	if p.lastGrid != nil && p.lastGrid.HasTile(t.ID()) {
		p.lastGrid = nil
	}
	p.gridMu.Unlock()
}
