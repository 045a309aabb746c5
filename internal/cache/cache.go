// Package cache implements the shared bounded store used for hot lookups of
// slowly-changing entities. Entries carry a per-category TTL fixed at
// construction; capacity pressure evicts by least-recent access, and a
// background sweep purges expired entries that are never re-requested.
//
// The cache is the one piece of mutable state shared across interleaved
// requests, so every key operation is an atomic read-modify-write under a
// single lock (workloads here are I/O-bound; bucket sharding is not worth
// the complexity).
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"attune/internal/logging"
)

// Loader produces a value on cache miss.
type Loader func(ctx context.Context) (any, error)

// entry is a single cached value with access bookkeeping.
type entry struct {
	data           any
	writtenAt      time.Time
	ttl            time.Duration
	accessCount    int64
	lastAccessedAt time.Time
	category       string
}

// CategoryStats tracks per-category observability counters. Informational
// only; never consulted for correctness.
type CategoryStats struct {
	Requests  int64
	Hits      int64
	Misses    int64
	TimeSaved time.Duration
}

// HitRate returns hits/requests, or 0 for an unused category.
func (s CategoryStats) HitRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Requests)
}

// Options configures a Cache.
type Options struct {
	Capacity      int
	SweepInterval time.Duration
	// CategoryTTLs registers every category up front. Lookups against an
	// unregistered category use DefaultTTL.
	CategoryTTLs map[string]time.Duration
	DefaultTTL   time.Duration
}

// Cache is a capacity-bounded keyed store with per-category TTL and LRU
// eviction. Keys are namespaced as "<category>:<identity>".
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	stats    map[string]*CategoryStats
	loadCost map[string]time.Duration

	capacity   int
	ttls       map[string]time.Duration
	defaultTTL time.Duration

	group singleflight.Group

	// now is swappable so TTL boundaries are testable without sleeping.
	now func() time.Time

	sweepInterval time.Duration
	done          chan struct{}
	closeOnce     sync.Once
}

// New creates a cache and starts its background sweep. Call Close on
// shutdown to stop the sweep goroutine.
func New(opts Options) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = 1000
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Minute
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 15 * time.Minute
	}

	c := &Cache{
		entries:       make(map[string]*entry),
		stats:         make(map[string]*CategoryStats),
		loadCost:      make(map[string]time.Duration),
		capacity:      opts.Capacity,
		ttls:          make(map[string]time.Duration, len(opts.CategoryTTLs)),
		defaultTTL:    opts.DefaultTTL,
		now:           time.Now,
		sweepInterval: opts.SweepInterval,
		done:          make(chan struct{}),
	}
	for cat, ttl := range opts.CategoryTTLs {
		if ttl > 0 {
			c.ttls[cat] = ttl
		}
	}

	go c.sweepLoop()
	return c
}

// Close stops the background sweep. Idempotent.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Key builds the canonical cache key for a category and identity.
func Key(category, identity string) string {
	return category + ":" + identity
}

// Get returns the cached value for key, or nil and false on miss or expiry.
// Expired entries are purged on read.
func (c *Cache) Get(key, category string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.statsFor(category)
	st.Requests++

	e, ok := c.entries[key]
	if !ok {
		st.Misses++
		return nil, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		st.Misses++
		return nil, false
	}

	e.accessCount++
	e.lastAccessedAt = c.now()
	st.Hits++
	if cost, ok := c.loadCost[category]; ok {
		st.TimeSaved += cost
	}
	return e.data, true
}

// Set stores a value under key with the category's fixed TTL, evicting the
// least-recently-accessed entry if the cache is at capacity.
func (c *Cache) Set(key string, value any, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, category)
}

func (c *Cache) setLocked(key string, value any, category string) {
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLRULocked()
	}
	now := c.now()
	c.entries[key] = &entry{
		data:           value,
		writtenAt:      now,
		ttl:            c.ttlFor(category),
		lastAccessedAt: now,
		category:       category,
	}
}

// GetOrSet returns the cached value for key, loading and storing it on
// miss. Concurrent loads of the same key are collapsed into one.
func (c *Cache) GetOrSet(ctx context.Context, key, category string, load Loader) (any, error) {
	if v, ok := c.Get(key, category); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have populated the key while we queued.
		if v, ok := c.Get(key, category); ok {
			return v, nil
		}
		start := time.Now()
		loaded, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("cache load for %s failed: %w", key, err)
		}
		cost := time.Since(start)

		c.mu.Lock()
		c.setLocked(key, loaded, category)
		c.loadCost[category] = cost
		c.mu.Unlock()
		return loaded, nil
	})
	return v, err
}

// Invalidate removes keys. A trailing "*" matches every key beginning with
// the literal prefix before the wildcard; otherwise the exact key is
// removed. Returns the number of entries dropped. Owners of cached data
// must call this on every write path that mutates it.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.Contains(pattern, "*") {
		if _, ok := c.entries[pattern]; ok {
			delete(c.entries, pattern)
			return 1
		}
		return 0
	}

	prefix := pattern[:strings.Index(pattern, "*")]
	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// ClearCategory drops every entry belonging to a category.
func (c *Cache) ClearCategory(category string) int {
	return c.Invalidate(category + ":*")
}

// Len returns the current number of live entries (including not-yet-swept
// expired ones).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of per-category counters.
func (c *Cache) Stats() map[string]CategoryStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]CategoryStats, len(c.stats))
	for cat, st := range c.stats {
		out[cat] = *st
	}
	return out
}

func (c *Cache) statsFor(category string) *CategoryStats {
	st, ok := c.stats[category]
	if !ok {
		st = &CategoryStats{}
		c.stats[category] = st
	}
	return st
}

func (c *Cache) ttlFor(category string) time.Duration {
	if ttl, ok := c.ttls[category]; ok {
		return ttl
	}
	return c.defaultTTL
}

func (c *Cache) expired(e *entry) bool {
	return c.now().Sub(e.writtenAt) > e.ttl
}

// evictLRULocked removes the entry with the oldest last access, not the
// oldest write.
func (c *Cache) evictLRULocked() {
	var victim string
	var oldest time.Time
	for k, e := range c.entries {
		if victim == "" || e.lastAccessedAt.Before(oldest) {
			victim = k
			oldest = e.lastAccessedAt
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

// sweepLoop purges expired entries on a fixed interval and flushes stats to
// the log so memory stays bounded even for never-re-requested keys.
func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			removed := c.sweepExpired()
			c.flushStats(removed)
		}
	}
}

func (c *Cache) sweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) flushStats(swept int) {
	log := logging.Get(logging.CategoryCache)
	for cat, st := range c.Stats() {
		log.Debug("cache stats",
			zap.String("category", cat),
			zap.Int64("requests", st.Requests),
			zap.Int64("hits", st.Hits),
			zap.Int64("misses", st.Misses),
			zap.Float64("hit_rate", st.HitRate()),
			zap.Duration("time_saved", st.TimeSaved),
		)
	}
	if swept > 0 {
		log.Debug("cache sweep", zap.Int("removed", swept))
	}
}
