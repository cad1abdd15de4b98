package provider_test

import (
	"context"
	"errors"
	"math"
	"path"
	"sync"
	"testing"
	"time"

	"dem-manager/core/database"
	"dem-manager/core/fetch"
	"dem-manager/core/grid"
	"dem-manager/core/ledger"
	"dem-manager/core/provider"
	"dem-manager/core/raster"
	"dem-manager/core/source"
	"dem-manager/core/tile"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const waitFor = 5 * time.Second

// memLoader serves tiles from memory. Paths are dir/id.
type memLoader struct {
	mu      sync.Mutex
	data    map[string][]int16
	fail    map[string]error
	locates int
	reads   []string
	gate    chan struct{}
}

func newMemLoader() *memLoader {
	return &memLoader{data: map[string][]int16{}, fail: map[string]error{}}
}

func (m *memLoader) put(p string, data []int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p] = data
}

func (m *memLoader) Locate(dir, id string, typ tile.Type) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locates++
	p := path.Join(dir, id)
	_, ok := m.data[p]
	if _, failing := m.fail[p]; failing {
		ok = true
	}
	return p, ok
}

func (m *memLoader) ReadTile(p string, typ tile.Type) ([]int16, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, p)
	if err := m.fail[p]; err != nil {
		return nil, err
	}
	return m.data[p], nil
}

func (m *memLoader) locateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locates
}

type fakeFetcher struct {
	mu        sync.Mutex
	err       error
	calls     []string
	listeners map[string]fetch.Listener
	closed    int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{listeners: map[string]fetch.Listener{}}
}

func (f *fakeFetcher) Fetch(id string, src source.Source, l fetch.Listener) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, id)
	f.listeners[id] = l
	return nil
}

func (f *fakeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeFetcher) listener(id string) fetch.Listener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listeners[id]
}

func filled(v int16) []int16 {
	data := make([]int16, tile.SRTM3.SampleCount())
	for i := range data {
		data[i] = v
	}
	return data
}

// set writes v at a south-based index.
func set(data []int16, latIndex, lonIndex int, v int16) {
	side := tile.SRTM3.SideLength()
	data[(side-1-latIndex)*side+lonIndex] = v
}

func localSources() []source.Source {
	return []source.Source{
		{Name: "SRTM1", Directory: "srtm1", Type: tile.SRTM1},
		{Name: "SRTM3", Directory: "srtm3", Type: tile.SRTM3},
	}
}

func testConfig() provider.Config {
	return provider.Config{
		CacheSizeMiB:        64,
		PreferredResolution: "SRTM3",
		Interpolation:       "none",
		QueueCapacity:       16,
	}
}

func newProvider(t *testing.T, cfg provider.Config, sources []source.Source, opts ...provider.Option) *provider.Provider {
	t.Helper()
	opts = append([]provider.Option{provider.WithLogger(zap.NewNop())}, opts...)
	p, err := provider.New(cfg, sources, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func bound(w, s, e, n float64) orb.Bound {
	return orb.Bound{Min: orb.Point{w, s}, Max: orb.Point{e, n}}
}

func statusOf(p *provider.Provider, id string) func() bool {
	return func() bool { return p.Tile(id).Status().IsTerminal() }
}

func TestProvider_EndToEnd(t *testing.T) {
	data := filled(1000)
	for _, i := range []int{600, 601} {
		for _, j := range []int{600, 601} {
			set(data, i, j, 2000)
		}
	}
	loader := newMemLoader()
	loader.put("srtm3/N46E007", data)

	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(loader))

	center := orb.Point{7.5, 46.5}
	require.Eventually(t, func() bool { return p.Elevation(center).Valid }, waitFor, 5*time.Millisecond)
	s := p.Elevation(center)
	assert.Equal(t, 2000.0, s.Elevation)
	assert.Equal(t, center, s.Coordinate)
	assert.Equal(t, tile.StatusValid, p.Tile("N46E007").Status())

	b := bound(7.49, 46.49, 7.51, 46.51)
	sets, ok := p.ContourLines(b, 500, -1000, 9000)
	require.True(t, ok)

	byIso := map[int]int{}
	for _, set := range sets {
		byIso[set.Isovalue] = len(set.Segments)
	}
	assert.Equal(t, map[int]int{1000: 0, 1500: 8, 2000: 4}, byIso)

	ex, ok := p.Extremes(b)
	require.True(t, ok)
	assert.Equal(t, int16(2000), ex.Highest)
	assert.Len(t, ex.HighestPoints, 4)
	assert.Equal(t, int16(1000), ex.Lowest)
}

func TestProvider_Bilinear(t *testing.T) {
	data := filled(0)
	set(data, 0, 1, 100)
	set(data, 1, 1, 100)
	loader := newMemLoader()
	loader.put("srtm3/N46E007", data)

	cfg := testConfig()
	cfg.Interpolation = "bilinear"
	p := newProvider(t, cfg, localSources(), provider.WithLoader(loader))
	require.Eventually(t, statusOf(p, "N46E007"), waitFor, 5*time.Millisecond)

	pt := orb.Point{7 + 0.25/1200, 46 + 0.5/1200}
	s := p.Elevation(pt)
	require.True(t, s.Valid)
	assert.InDelta(t, 25.0, s.Elevation, 1e-6)
	assert.Equal(t, pt, s.Coordinate)
}

func TestProvider_ElevationRejectsInvalidCoordinates(t *testing.T) {
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(newMemLoader()))

	for _, pt := range []orb.Point{{7, math.NaN()}, {math.NaN(), 46}, {7, 91}, {math.Inf(1), 46}} {
		assert.Panics(t, func() { p.Elevation(pt) })
	}
	assert.Zero(t, p.CacheStats().Tiles)
}

func TestProvider_MissingTileIsRemembered(t *testing.T) {
	loader := newMemLoader()
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(loader))

	tl := p.Tile("N10E010")
	assert.Equal(t, tile.StatusFileMissing, tl.Status())
	locates := loader.locateCount()
	assert.Equal(t, 2, locates)

	for i := 0; i < 3; i++ {
		s := p.Elevation(orb.Point{10.5, 10.5})
		assert.False(t, s.Valid)
	}
	assert.Equal(t, locates, loader.locateCount())
}

func TestProvider_ReadFailure(t *testing.T) {
	loader := newMemLoader()
	loader.fail["srtm3/N46E007"] = errors.New("corrupt archive")
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(loader))

	p.Tile("N46E007")
	require.Eventually(t, statusOf(p, "N46E007"), waitFor, 5*time.Millisecond)
	assert.Equal(t, tile.StatusFileInvalid, p.Tile("N46E007").Status())
}

func TestProvider_WrongSampleCount(t *testing.T) {
	loader := newMemLoader()
	loader.put("srtm3/N46E007", make([]int16, 10))
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(loader))

	p.Tile("N46E007")
	require.Eventually(t, statusOf(p, "N46E007"), waitFor, 5*time.Millisecond)
	assert.Equal(t, tile.StatusFileInvalid, p.Tile("N46E007").Status())
	assert.Equal(t, 1, p.CacheStats().Tiles)
}

func TestProvider_RejectedReadsAreRetried(t *testing.T) {
	loader := newMemLoader()
	loader.gate = make(chan struct{})
	ids := []string{"N46E007", "N46E008", "N46E009"}
	for _, id := range ids {
		loader.put("srtm3/"+id, filled(500))
	}
	cfg := testConfig()
	cfg.QueueCapacity = 1
	p := newProvider(t, cfg, localSources(), provider.WithLoader(loader))

	b := bound(7.2, 46.2, 9.8, 46.8)
	_, ok := p.ElevationRaster(b)
	assert.False(t, ok)
	close(loader.gate)

	var r *raster.ElevationRaster
	require.Eventually(t, func() bool {
		r, ok = p.ElevationRaster(b)
		return ok
	}, waitFor, 5*time.Millisecond)

	for i := 0; i < r.Height(); i += 100 {
		for j := 0; j < r.Width(); j += 100 {
			require.True(t, r.At(i, j).Valid(), "sample %d,%d", i, j)
			assert.Equal(t, int16(500), r.At(i, j).Elevation)
		}
	}
	for _, id := range ids {
		assert.Equal(t, tile.StatusValid, p.Tile(id).Status(), id)
	}
}

func TestProvider_SourcePreference(t *testing.T) {
	loader := newMemLoader()
	loader.put("srtm3/N46E007", filled(3))
	loader.fail["srtm1/N46E007"] = errors.New("not read")

	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(loader))
	p.Tile("N46E007")
	require.Eventually(t, statusOf(p, "N46E007"), waitFor, 5*time.Millisecond)

	assert.Equal(t, tile.StatusValid, p.Tile("N46E007").Status())
	assert.Equal(t, tile.SRTM3, p.Tile("N46E007").Type())
	loader.mu.Lock()
	assert.Equal(t, []string{"srtm3/N46E007"}, loader.reads)
	loader.mu.Unlock()
}

func TestProvider_Download(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	l := ledger.New(db, zap.NewNop())
	require.NoError(t, l.Migrate(context.Background()))

	loader := newMemLoader()
	ff := newFakeFetcher()
	factoryCalls := 0
	sources := []source.Source{{Name: "SRTM3", Directory: "srtm3", Type: tile.SRTM3, DownloadURL: "https://dem.example/srtm3", AutoDownload: true}}

	cfg := testConfig()
	cfg.AutoDownload = true
	p := newProvider(t, cfg, sources,
		provider.WithLoader(loader),
		provider.WithLedger(l),
		provider.WithFetcher(func() (provider.Fetcher, error) {
			factoryCalls++
			return ff, nil
		}),
	)

	t.Run("Success", func(t *testing.T) {
		tl := p.Tile("N46E007")
		assert.Equal(t, tile.StatusDownloadScheduled, tl.Status())
		require.Equal(t, []string{"N46E007"}, ff.calls)

		dl := ff.listener("N46E007")
		dl.OnStarted("N46E007")
		assert.Equal(t, tile.StatusDownloading, tl.Status())

		loader.put("downloads/N46E007.hgt.zip", filled(1500))
		dl.OnSucceeded("N46E007", "downloads/N46E007.hgt.zip", tile.SRTM3)
		require.Eventually(t, statusOf(p, "N46E007"), waitFor, 5*time.Millisecond)
		assert.Equal(t, tile.StatusValid, tl.Status())

		rows, err := p.Downloads(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, tile.StatusReadingScheduled.String(), rows[0].Status)
		assert.Equal(t, 1, rows[0].Attempts)
	})

	t.Run("FailureAndRetry", func(t *testing.T) {
		tl := p.Tile("N47E007")
		dl := ff.listener("N47E007")
		require.NotNil(t, dl)
		dl.OnStarted("N47E007")
		dl.OnFailed("N47E007", errors.New("connection reset"))
		assert.Equal(t, tile.StatusDownloadFailed, tl.Status())

		failed, err := p.Downloads(context.Background(), tile.StatusDownloadFailed.String())
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, "connection reset", failed[0].LastError)

		require.NoError(t, p.SetAutoDownloadEnabled(true))
		assert.Equal(t, tile.StatusDownloadScheduled, p.Tile("N47E007").Status())
		assert.Equal(t, 1, factoryCalls)
	})

	t.Run("Forget", func(t *testing.T) {
		require.NoError(t, p.ForgetDownloads(context.Background(), "N46E007"))
		rows, err := p.Downloads(context.Background(), "")
		require.NoError(t, err)
		for _, r := range rows {
			assert.NotEqual(t, "N46E007", r.TileID)
		}
	})
}

func TestProvider_LedgerFailureDoesNotBlockDownloads(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	l := ledger.New(db, zap.NewNop())
	require.NoError(t, l.Migrate(context.Background()))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	core, logs := observer.New(zap.DebugLevel)
	ff := newFakeFetcher()
	sources := []source.Source{{Name: "SRTM3", Directory: "srtm3", Type: tile.SRTM3, DownloadURL: "https://dem.example", AutoDownload: true}}
	cfg := testConfig()
	cfg.AutoDownload = true
	p := newProvider(t, cfg, sources,
		provider.WithLogger(zap.New(core)),
		provider.WithLoader(newMemLoader()),
		provider.WithLedger(l),
		provider.WithFetcher(func() (provider.Fetcher, error) { return ff, nil }),
	)

	tl := p.Tile("N46E007")
	assert.Equal(t, tile.StatusDownloadScheduled, tl.Status())
	ff.listener("N46E007").OnStarted("N46E007")
	assert.Equal(t, tile.StatusDownloading, tl.Status())

	entries := logs.FilterMessage("Download not recorded").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "N46E007", entries[0].ContextMap()["tile"])
}

func TestProvider_AutoDownloadToggle(t *testing.T) {
	loader := newMemLoader()
	var fetchers []*fakeFetcher
	sources := []source.Source{{Name: "SRTM3", Directory: "srtm3", Type: tile.SRTM3, DownloadURL: "s3://dem/srtm3", AutoDownload: true}}
	p := newProvider(t, testConfig(), sources,
		provider.WithLoader(loader),
		provider.WithFetcher(func() (provider.Fetcher, error) {
			ff := newFakeFetcher()
			fetchers = append(fetchers, ff)
			return ff, nil
		}),
	)

	missing := p.Tile("N46E007")
	assert.Equal(t, tile.StatusFileMissing, missing.Status())
	assert.Empty(t, fetchers)

	require.NoError(t, p.SetAutoDownloadEnabled(true))
	require.Len(t, fetchers, 1)
	again := p.Tile("N46E007")
	assert.NotSame(t, missing, again)
	assert.Equal(t, tile.StatusDownloadScheduled, again.Status())
	assert.True(t, p.Settings().AutoDownload)

	require.NoError(t, p.SetAutoDownloadEnabled(false))
	assert.Equal(t, 1, fetchers[0].closed)
	assert.Equal(t, tile.StatusFileMissing, p.Tile("N47E007").Status())

	require.NoError(t, p.SetAutoDownloadEnabled(true))
	assert.Len(t, fetchers, 2)
}

func TestProvider_AutoDownloadFactoryError(t *testing.T) {
	p := newProvider(t, testConfig(), localSources(),
		provider.WithLoader(newMemLoader()),
		provider.WithFetcher(func() (provider.Fetcher, error) {
			return nil, errors.New("no credentials")
		}),
	)
	assert.Error(t, p.SetAutoDownloadEnabled(true))
	assert.False(t, p.Settings().AutoDownload)
}

func TestProvider_FetchRejected(t *testing.T) {
	ff := newFakeFetcher()
	ff.err = fetch.ErrRejected
	sources := []source.Source{{Name: "SRTM3", Directory: "srtm3", Type: tile.SRTM3, DownloadURL: "https://dem.example", AutoDownload: true}}
	cfg := testConfig()
	cfg.AutoDownload = true
	p := newProvider(t, cfg, sources,
		provider.WithLoader(newMemLoader()),
		provider.WithFetcher(func() (provider.Fetcher, error) { return ff, nil }),
	)

	tl := p.Tile("N46E007")
	assert.Equal(t, tile.StatusFileMissing, tl.Status())
	assert.Zero(t, p.CacheStats().Tiles)

	ff.mu.Lock()
	ff.err = nil
	ff.mu.Unlock()
	assert.Equal(t, tile.StatusDownloadScheduled, p.Tile("N46E007").Status())
}

func TestProvider_ReadRejectedAfterClose(t *testing.T) {
	loader := newMemLoader()
	loader.put("srtm3/N46E007", filled(1))
	p, err := provider.New(testConfig(), localSources(), provider.WithLoader(loader))
	require.NoError(t, err)
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))

	tl := p.Tile("N46E007")
	assert.Equal(t, tile.StatusFileMissing, tl.Status())
	assert.Zero(t, p.CacheStats().Tiles)
}

func TestProvider_CacheTilesMeridian(t *testing.T) {
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(newMemLoader()))

	ids := p.CacheTiles(bound(179.2, 10.2, -179.2, 10.8))
	assert.Equal(t, []string{"N10E179", "N10W180"}, ids)

	cached := map[string]bool{}
	for _, info := range p.Tiles() {
		cached[info.ID] = true
	}
	assert.True(t, cached["N10E179"])
	assert.True(t, cached["N10W180"])
}

func TestProvider_GridReuse(t *testing.T) {
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(newMemLoader()))

	b := bound(7.1, 46.1, 7.7, 46.7)
	g := p.Grid(b)
	assert.Same(t, g, p.Grid(b))

	// 0.6 wide against 0.45: within the 1.5 factor.
	assert.Same(t, g, p.Grid(bound(7.2, 46.2, 7.65, 46.65)))

	// 0.6 wide against 0.3: rebuilt.
	smaller := p.Grid(bound(7.2, 46.2, 7.5, 46.5))
	assert.NotSame(t, g, smaller)

	// Not covered: rebuilt.
	assert.NotSame(t, smaller, p.Grid(bound(8.2, 46.2, 8.5, 46.5)))

	// A resolution change rebuilds.
	last := p.Grid(bound(8.2, 46.2, 8.5, 46.5))
	require.NoError(t, p.SetPreferredResolutionType(tile.SRTM1))
	rebuilt := p.Grid(bound(8.2, 46.2, 8.5, 46.5))
	assert.NotSame(t, last, rebuilt)
	assert.Equal(t, tile.SRTM1, rebuilt.Type())
}

func TestProvider_Listener(t *testing.T) {
	loader := newMemLoader()
	loader.put("srtm3/N46E007", filled(700))
	loader.gate = make(chan struct{})
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(loader))

	notified := make(chan *grid.Grid, 4)
	h := p.AddListener(provider.ListenerFunc(func(g *grid.Grid) { notified <- g }))

	b := bound(7.2, 46.2, 7.8, 46.8)
	_, ok := p.ElevationRaster(b)
	assert.False(t, ok)
	g := p.Grid(b)

	close(loader.gate)
	select {
	case got := <-notified:
		assert.Same(t, g, got)
	case <-time.After(waitFor):
		t.Fatal("listener not notified")
	}

	r, ok := p.ElevationRaster(b)
	require.True(t, ok)
	assert.Equal(t, int16(700), r.At(0, 0).Elevation)

	assert.True(t, p.RemoveListener(h))
	assert.False(t, p.RemoveListener(h))
}

func TestProvider_ClearResetsLocality(t *testing.T) {
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(newMemLoader()))

	first := p.Tile("N46E007")
	assert.Same(t, first, p.Tile("N46E007"))

	assert.Equal(t, 1, p.ClearTiles(tile.StatusFileMissing))
	assert.NotSame(t, first, p.Tile("N46E007"))
}

func TestProvider_Settings(t *testing.T) {
	p := newProvider(t, testConfig(), localSources(), provider.WithLoader(newMemLoader()))

	assert.Equal(t, provider.Settings{
		CacheSizeMiB:        64,
		PreferredResolution: "SRTM3",
		Interpolation:       tile.None.String(),
	}, p.Settings())

	assert.Equal(t, int64(1), p.SetCacheSizeLimit(0))
	assert.Equal(t, int64(128), p.SetCacheSizeLimit(128))

	p.SetInterpolationMode(tile.Bilinear)
	assert.Equal(t, tile.Bilinear, p.InterpolationMode())

	assert.Error(t, p.SetPreferredResolutionType(tile.TypeUnknown))
	assert.Equal(t, tile.SRTM3, p.PreferredResolutionType())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.PreferredResolution = "SRTM90"
	_, err := provider.New(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Interpolation = "cubic"
	_, err = provider.New(cfg, nil)
	assert.Error(t, err)
}
