package cache

import (
	"context"
	"sync"
	"time"
)

// Config configures a cache.
type Config struct {
	// Name identifies this cache for metrics/logging.
	Name string
	// MaxSize is the maximum number of entries held.
	MaxSize int
	// DefaultTTL is applied by Set. Zero or negative means entries never expire.
	DefaultTTL time.Duration
	// OnEvict is called when an entry is evicted to make room.
	OnEvict func(name, key string)
	// OnExpire is called when an expired entry is dropped.
	OnExpire func(name, key string)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:       name,
		MaxSize:    128,
		DefaultTTL: 5 * time.Minute,
	}
}

// Stats is a read-only snapshot of cumulative cache counters.
type Stats struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	MaxSize   int    `json:"max_size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Expired   uint64 `json:"expired"`
}

// entry is a cached value with its expiry and recency bookkeeping.
type entry[V any] struct {
	value        V
	createdAt    time.Time
	ttl          time.Duration
	accessCount  uint64
	lastAccessed time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) > e.ttl
}

// Cache is a TTL+LRU key-value store. All operations are serialized under a
// single mutex so concurrent readers and writers cannot corrupt the
// eviction bookkeeping; loaders run outside the lock.
type Cache[V any] struct {
	config Config

	mu      sync.Mutex
	entries map[string]*entry[V]
	now     func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
	expired   uint64
}

// New creates a new cache.
func New[V any](config Config) *Cache[V] {
	if config.MaxSize <= 0 {
		config.MaxSize = 128
	}

	return &Cache[V]{
		config:  config,
		entries: make(map[string]*entry[V]),
		now:     time.Now,
	}
}

// Get returns the value for key. An entry past its TTL is removed and
// reported as a miss; a hit bumps the entry's recency.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}

	now := c.now()
	if e.expired(now) {
		delete(c.entries, key)
		c.expired++
		c.misses++
		if c.config.OnExpire != nil {
			c.config.OnExpire(c.config.Name, key)
		}
		return zero, false
	}

	e.accessCount++
	e.lastAccessed = now
	c.hits++
	return e.value, true
}

// Set stores a value with the default TTL. Setting an existing key refreshes
// its value and timestamps.
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.config.DefaultTTL)
}

// SetTTL stores a value with an explicit TTL. A TTL of zero or less means
// the entry never expires. Expired entries are swept first; if the cache is
// full and the key is new, the least-recently-accessed entry is evicted.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.config.MaxSize {
		c.evictLRU()
	}

	c.entries[key] = &entry[V]{
		value:        value,
		createdAt:    now,
		ttl:          ttl,
		lastAccessed: now,
	}
}

// Delete removes a key. Returns true if the key was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// GetOrLoad returns the cached value or runs loader to produce one. The
// loader runs outside the cache lock; concurrent misses on the same key may
// load more than once, last write wins.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, loader func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := loader(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.Set(key, v)
	return v, nil
}

// Len returns the number of entries currently held, including any not yet
// swept expired entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup removes all expired entries and returns how many were dropped.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweep(c.now())
}

// Clear removes all entries. Counters are not reset.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
}

// StartJanitor sweeps expired entries every interval until ctx is done.
func (c *Cache[V]) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}

// Stats returns a read-only snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Name:      c.config.Name,
		Size:      len(c.entries),
		MaxSize:   c.config.MaxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
	}
}

// sweep drops expired entries. Caller holds the lock.
func (c *Cache[V]) sweep(now time.Time) int {
	dropped := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			c.expired++
			dropped++
			if c.config.OnExpire != nil {
				c.config.OnExpire(c.config.Name, key)
			}
		}
	}
	return dropped
}

// evictLRU removes the entry with the oldest lastAccessed. Caller holds the
// lock. The map is bounded by MaxSize, so a scan is acceptable.
func (c *Cache[V]) evictLRU() {
	var oldestKey string
	var oldest time.Time
	first := true

	for key, e := range c.entries {
		if first || e.lastAccessed.Before(oldest) {
			oldestKey = key
			oldest = e.lastAccessed
			first = false
		}
	}

	if !first {
		delete(c.entries, oldestKey)
		c.evictions++
		if c.config.OnEvict != nil {
			c.config.OnEvict(c.config.Name, oldestKey)
		}
	}
}
