package channels

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the look-aside cache capability used by the channel authority.
// The cache is advisory: a miss or an outage must never change authorization
// semantics beyond the documented fallback chain.
type Cache interface {
	Get(key string) ([]string, bool)
	Set(key string, value []string, ttl time.Duration)
}

// MemoryCache is an in-process TTL cache
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a MemoryCache with the given default TTL
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *MemoryCache) Get(key string) ([]string, bool) {
	value, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	ids, ok := value.([]string)
	return ids, ok
}

func (c *MemoryCache) Set(key string, value []string, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// NopCache is used when caching is disabled; every lookup misses
type NopCache struct{}

func (NopCache) Get(string) ([]string, bool)         { return nil, false }
func (NopCache) Set(string, []string, time.Duration) {}
