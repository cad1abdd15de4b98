package tilecache

import (
	"sort"
	"sync"

	"dem-manager/core/tile"

	"go.uber.org/zap"
)

const (
	// DefaultMinLimit is the smallest size limit accepted by SetSizeLimit.
	DefaultMinLimit int64 = 1 << 20
	// DefaultMaxLimit is the largest size limit accepted by SetSizeLimit.
	DefaultMaxLimit int64 = 64 << 30
)

// EvictHook is called with every tile removed by eviction or bulk clearing.
type EvictHook func(t *tile.Tile)

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for eviction diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithLimitRange sets the range SetSizeLimit clamps to.
func WithLimitRange(min, max int64) Option {
	return func(c *Cache) {
		c.minLimit = min
		c.maxLimit = max
	}
}

// WithEvictHook registers a hook that observes removed tiles.
func WithEvictHook(h EvictHook) Option {
	return func(c *Cache) { c.hooks = append(c.hooks, h) }
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Tiles     int   `json:"tiles"`
	SizeBytes int64 `json:"size_bytes"`
	Limit     int64 `json:"limit_bytes"`
	Evictions int64 `json:"evictions"`
}

// Info describes one cached tile.
type Info struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	SizeBytes  int64  `json:"size_bytes"`
	AccessTime int64  `json:"access_time"`
}

// Cache is a size-bounded LRU store of tiles.
type Cache struct {
	mu        sync.Mutex
	tiles     map[string]*tile.Tile
	size      int64
	limit     int64
	evictions int64

	minLimit int64
	maxLimit int64
	hooks    []EvictHook
	logger   *zap.Logger
}

// New creates a cache bounded to limitBytes (clamped to the configured range).
func New(limitBytes int64, opts ...Option) *Cache {
	c := &Cache{
		tiles:    make(map[string]*tile.Tile),
		minLimit: DefaultMinLimit,
		maxLimit: DefaultMaxLimit,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.limit = c.clamp(limitBytes)
	return c
}

func (c *Cache) clamp(limit int64) int64 {
	if limit < c.minLimit {
		return c.minLimit
	}
	if limit > c.maxLimit {
		return c.maxLimit
	}
	return limit
}

// Get returns the cached tile. It does not refresh the tile's access time.
func (c *Cache) Get(id string) (*tile.Tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tiles[id]
	return t, ok
}

// Upsert stores type, data and status for id, creating the tile when absent, and evicts
// least recently used tiles if the cache grew over its limit.
func (c *Cache) Upsert(id string, typ tile.Type, data []int16, status tile.Status) (*tile.Tile, error) {
	return c.change(id, func(*tile.Tile) (tile.Status, error) { return status, nil }, typ, data)
}

// Apply drives the tile for id through event, storing typ and data with the resulting
// status. Absent tiles start from tile.StatusNone. On an illegal transition the tile is left
// untouched and returned together with the error.
func (c *Cache) Apply(id string, event tile.Event, typ tile.Type, data []int16) (*tile.Tile, error) {
	return c.change(id, func(t *tile.Tile) (tile.Status, error) {
		return t.Status().Transition(event)
	}, typ, data)
}

// change runs an upsert and the eviction it may trigger, then calls the hooks outside the lock.
func (c *Cache) change(id string, next func(*tile.Tile) (tile.Status, error), typ tile.Type, data []int16) (*tile.Tile, error) {
	t, evicted, err := c.changeLocked(id, next, typ, data)
	c.notify(evicted)
	return t, err
}

func (c *Cache) changeLocked(id string, next func(*tile.Tile) (tile.Status, error), typ tile.Type, data []int16) (*tile.Tile, []*tile.Tile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.upsertLocked(id, next, typ, data)
	return t, c.evictLocked(), err
}

func (c *Cache) upsertLocked(id string, next func(*tile.Tile) (tile.Status, error), typ tile.Type, data []int16) (*tile.Tile, error) {
	t, ok := c.tiles[id]
	if !ok {
		created, err := tile.New(id)
		if err != nil {
			return nil, err
		}
		t = created
	}

	status, err := next(t)
	if err != nil {
		return t, err
	}

	before := t.SizeBytes()
	t.Update(typ, data, status)
	if ok {
		c.size += t.SizeBytes() - before
	} else {
		c.size += t.SizeBytes()
	}
	c.tiles[id] = t
	return t, nil
}

// evictLocked removes least recently used tiles until the cache fits its limit.
func (c *Cache) evictLocked() []*tile.Tile {
	if c.size <= c.limit {
		return nil
	}

	type candidate struct {
		t      *tile.Tile
		access int64
		size   int64
	}
	candidates := make([]candidate, 0, len(c.tiles))
	for _, t := range c.tiles {
		candidates = append(candidates, candidate{t: t, access: t.AccessTime(), size: t.SizeBytes()})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].access < candidates[j].access
	})

	var evicted []*tile.Tile
	for _, cand := range candidates {
		if c.size <= c.limit {
			break
		}
		if cand.size == 0 {
			continue
		}
		delete(c.tiles, cand.t.ID())
		c.size -= cand.size
		c.evictions++
		evicted = append(evicted, cand.t)
	}

	if len(evicted) > 0 {
		c.logger.Debug("Evicted tiles",
			zap.Int("count", len(evicted)),
			zap.Int64("size", c.size),
			zap.Int64("limit", c.limit))
	}
	return evicted
}

func (c *Cache) notify(removed []*tile.Tile) {
	for _, t := range removed {
		for _, h := range c.hooks {
			h(t)
		}
	}
}

// Remove deletes a single tile.
func (c *Cache) Remove(id string) (*tile.Tile, bool) {
	c.mu.Lock()
	t, ok := c.tiles[id]
	if ok {
		delete(c.tiles, id)
		c.size -= t.SizeBytes()
	}
	c.mu.Unlock()

	if ok {
		c.notify([]*tile.Tile{t})
	}
	return t, ok
}

// ClearAllWithStatus removes every tile currently in status and returns how many were removed.
func (c *Cache) ClearAllWithStatus(status tile.Status) int {
	c.mu.Lock()
	var removed []*tile.Tile
	for id, t := range c.tiles {
		if t.Status() == status {
			delete(c.tiles, id)
			c.size -= t.SizeBytes()
			removed = append(removed, t)
		}
	}
	c.mu.Unlock()

	c.notify(removed)
	return len(removed)
}

// SetSizeLimit changes the limit, clamped to the configured range, and evicts immediately
// when the cache no longer fits. It returns the effective limit.
func (c *Cache) SetSizeLimit(limitBytes int64) int64 {
	c.mu.Lock()
	c.limit = c.clamp(limitBytes)
	limit := c.limit
	evicted := c.evictLocked()
	c.mu.Unlock()

	c.notify(evicted)
	return limit
}

// Stats returns counters describing the cache.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Tiles:     len(c.tiles),
		SizeBytes: c.size,
		Limit:     c.limit,
		Evictions: c.evictions,
	}
}

// Snapshot lists the cached tiles ordered by identifier.
func (c *Cache) Snapshot() []Info {
	c.mu.Lock()
	infos := make([]Info, 0, len(c.tiles))
	for _, t := range c.tiles {
		infos = append(infos, Info{
			ID:         t.ID(),
			Type:       t.Type().String(),
			Status:     t.Status().String(),
			SizeBytes:  t.SizeBytes(),
			AccessTime: t.AccessTime(),
		})
	}
	c.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
