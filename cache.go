package quilt

import (
	"sync"
	"time"
)

// CacheKey uniquely identifies a build. Version is the registry version the
// build was made against, so any registry change misses the cache.
type CacheKey struct {
	Root       string
	UseCTE     bool
	UseAliases bool
	Version    uint64
}

// cacheEntry stores the result of a build.
// Failed builds are cached too: they are deterministic for a registry version.
type cacheEntry struct {
	query     Query
	err       error
	expiresAt time.Time // zero means no expiry
}

// Cache stores build results.
// It is safe for concurrent use from multiple goroutines.
//
// A cache must not be shared between composers over different registries:
// keys do not identify the registry, only its version.
type Cache interface {
	// Get retrieves a cached build result.
	// Returns (query, err, found). If found is false, the entry doesn't exist or is expired.
	Get(key CacheKey) (q Query, err error, ok bool)

	// Set stores a build result in the cache.
	Set(key CacheKey, q Query, err error)
}

// CacheImpl is the default in-memory cache implementation with optional TTL.
// It uses a sync.RWMutex for goroutine safety.
//
// Entries for old registry versions are never hit again; they are dropped on
// expiry or by Clear.
type CacheImpl struct {
	mu    sync.RWMutex
	items map[CacheKey]cacheEntry
	ttl   time.Duration // 0 means no expiry
}

// CacheOption configures a Cache.
type CacheOption func(*CacheImpl)

// WithTTL sets the time-to-live for cache entries.
// A TTL of 0 (default) means entries never expire within the cache's lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CacheImpl) {
		c.ttl = ttl
	}
}

// NewCache creates a new build cache.
func NewCache(opts ...CacheOption) *CacheImpl {
	c := &CacheImpl{
		items: make(map[CacheKey]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached build result.
func (c *CacheImpl) Get(key CacheKey) (Query, error, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, nil, false
	}

	return entry.query, entry.err, true
}

// Set stores a build result in the cache.
func (c *CacheImpl) Set(key CacheKey, q Query, err error) {
	entry := cacheEntry{
		query: q,
		err:   err,
	}

	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache.
func (c *CacheImpl) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries from the cache.
func (c *CacheImpl) Clear() {
	c.mu.Lock()
	c.items = make(map[CacheKey]cacheEntry)
	c.mu.Unlock()
}

// Ensure CacheImpl implements Cache.
var _ Cache = (*CacheImpl)(nil)
