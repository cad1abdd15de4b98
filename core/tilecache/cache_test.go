package tilecache_test

import (
	"sync"
	"testing"

	"dem-manager/core/tile"
	"dem-manager/core/tilecache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tileBytes = int64(2 * tile.SRTM3.SampleCount())

func samples() []int16 {
	return make([]int16, tile.SRTM3.SampleCount())
}

func newCache(limit int64, opts ...tilecache.Option) *tilecache.Cache {
	opts = append([]tilecache.Option{tilecache.WithLimitRange(0, 1<<40)}, opts...)
	return tilecache.New(limit, opts...)
}

func TestUpsertEvictsLeastRecentlyUsed(t *testing.T) {
	// Room for two tiles but not three.
	c := newCache(2*tileBytes + tileBytes/2)

	for _, id := range []string{"N46E007", "N46E008", "N46E009"} {
		_, err := c.Upsert(id, tile.SRTM3, samples(), tile.StatusValid)
		require.NoError(t, err)
		assert.LessOrEqual(t, c.Stats().SizeBytes, c.Stats().Limit)
	}

	_, ok := c.Get("N46E007")
	assert.False(t, ok, "oldest tile evicted")
	_, ok = c.Get("N46E008")
	assert.True(t, ok)
	_, ok = c.Get("N46E009")
	assert.True(t, ok)
	assert.Equal(t, 2*tileBytes, c.Stats().SizeBytes)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestAccessRefreshesRecency(t *testing.T) {
	c := newCache(2*tileBytes + tileBytes/2)

	a, err := c.Upsert("N46E007", tile.SRTM3, samples(), tile.StatusValid)
	require.NoError(t, err)
	_, err = c.Upsert("N46E008", tile.SRTM3, samples(), tile.StatusValid)
	require.NoError(t, err)

	// Reading A makes B the least recently used tile.
	a.SampleValueAndCoordinate(46.5, 7.5, tile.None)

	_, err = c.Upsert("N46E009", tile.SRTM3, samples(), tile.StatusValid)
	require.NoError(t, err)

	_, ok := c.Get("N46E007")
	assert.True(t, ok)
	_, ok = c.Get("N46E008")
	assert.False(t, ok)
}

func TestPlaceholdersAreNeverEvicted(t *testing.T) {
	c := newCache(tileBytes)

	_, err := c.Apply("N10E010", tile.EventMissing, tile.TypeUnknown, nil)
	require.NoError(t, err)
	_, err = c.Upsert("N46E007", tile.SRTM3, samples(), tile.StatusValid)
	require.NoError(t, err)
	_, err = c.Upsert("N46E008", tile.SRTM3, samples(), tile.StatusValid)
	require.NoError(t, err)

	_, ok := c.Get("N10E010")
	assert.True(t, ok, "zero-size placeholder kept")
	_, ok = c.Get("N46E007")
	assert.False(t, ok)
	assert.Equal(t, tileBytes, c.Stats().SizeBytes)
}

func TestUpsertReplacesSize(t *testing.T) {
	c := newCache(10 * tileBytes)

	_, err := c.Upsert("N46E007", tile.SRTM3, samples(), tile.StatusValid)
	require.NoError(t, err)
	assert.Equal(t, tileBytes, c.Stats().SizeBytes)

	_, err = c.Upsert("N46E007", tile.TypeUnknown, nil, tile.StatusFileInvalid)
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Stats().SizeBytes)
	assert.Equal(t, 1, c.Stats().Tiles)

	_, err = c.Upsert("bogus", tile.SRTM3, samples(), tile.StatusValid)
	assert.ErrorIs(t, err, tile.ErrInvalidID)
}

func TestApply(t *testing.T) {
	c := newCache(10 * tileBytes)

	tl, err := c.Apply("N46E007", tile.EventScheduleRead, tile.TypeUnknown, nil)
	require.NoError(t, err)
	assert.Equal(t, tile.StatusReadingScheduled, tl.Status())

	_, err = c.Apply("N46E007", tile.EventScheduleRead, tile.TypeUnknown, nil)
	assert.ErrorIs(t, err, tile.ErrIllegalTransition)
	assert.Equal(t, tile.StatusReadingScheduled, tl.Status())

	_, err = c.Apply("N46E007", tile.EventStartRead, tile.TypeUnknown, nil)
	require.NoError(t, err)
	tl, err = c.Apply("N46E007", tile.EventReadSucceeded, tile.SRTM3, samples())
	require.NoError(t, err)
	assert.Equal(t, tile.StatusValid, tl.Status())
	assert.Equal(t, tileBytes, c.Stats().SizeBytes)
}

func TestRemoveAndClear(t *testing.T) {
	var hooked []string
	c := newCache(10*tileBytes, tilecache.WithEvictHook(func(t *tile.Tile) {
		hooked = append(hooked, t.ID())
	}))

	_, _ = c.Upsert("N46E007", tile.SRTM3, samples(), tile.StatusValid)
	_, _ = c.Apply("N01E001", tile.EventMissing, tile.TypeUnknown, nil)
	_, _ = c.Apply("N02E002", tile.EventMissing, tile.TypeUnknown, nil)
	_, _ = c.Upsert("N03E003", tile.TypeUnknown, nil, tile.StatusDownloadFailed)

	assert.Equal(t, 2, c.ClearAllWithStatus(tile.StatusFileMissing))
	assert.Equal(t, 2, c.Stats().Tiles)
	assert.ElementsMatch(t, []string{"N01E001", "N02E002"}, hooked)

	removed, ok := c.Remove("N46E007")
	require.True(t, ok)
	assert.Equal(t, "N46E007", removed.ID())
	assert.Equal(t, int64(0), c.Stats().SizeBytes)

	_, ok = c.Remove("N46E007")
	assert.False(t, ok)

	infos := c.Snapshot()
	require.Len(t, infos, 1)
	assert.Equal(t, "DOWNLOAD_FAILED", infos[0].Status)
}

func TestSetSizeLimit(t *testing.T) {
	c := tilecache.New(10*tileBytes, tilecache.WithLimitRange(tileBytes, 4*tileBytes))
	assert.Equal(t, 4*tileBytes, c.Stats().Limit, "constructor clamps")

	for _, id := range []string{"N46E007", "N46E008", "N46E009"} {
		_, err := c.Upsert(id, tile.SRTM3, samples(), tile.StatusValid)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.Stats().Tiles)

	assert.Equal(t, tileBytes, c.SetSizeLimit(1))
	assert.Equal(t, 1, c.Stats().Tiles)
	_, ok := c.Get("N46E009")
	assert.True(t, ok, "most recent tile survives")

	assert.Equal(t, 4*tileBytes, c.SetSizeLimit(1<<40))
}

func TestConcurrentUpserts(t *testing.T) {
	c := newCache(3 * tileBytes)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				_, err := c.Upsert(tile.FormatID(i, j), tile.SRTM3, samples(), tile.StatusValid)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	stats := c.Stats()
	assert.LessOrEqual(t, stats.SizeBytes, stats.Limit)
	assert.Equal(t, int64(stats.Tiles)*tileBytes, stats.SizeBytes)
}

func TestPanickingUpdateReleasesLock(t *testing.T) {
	c := newCache(4 * tileBytes)
	_, err := c.Upsert("N46E007", tile.SRTM3, samples(), tile.StatusValid)
	require.NoError(t, err)

	_, err = c.Upsert("N46E009", tile.TypeUnknown, nil, tile.StatusReading)
	require.NoError(t, err)
	assert.Panics(t, func() {
		_, _ = c.Apply("N46E009", tile.EventReadSucceeded, tile.SRTM3, make([]int16, 10))
	})
	assert.Panics(t, func() {
		_, _ = c.Upsert("N46E008", tile.SRTM3, make([]int16, 10), tile.StatusValid)
	})

	stats := c.Stats()
	assert.Equal(t, 2, stats.Tiles)
	assert.Equal(t, tileBytes, stats.SizeBytes)
	_, ok := c.Get("N46E008")
	assert.False(t, ok)
	reading, ok := c.Get("N46E009")
	require.True(t, ok)
	assert.Equal(t, tile.StatusReading, reading.Status())
}
