package simulation

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheKey identifies a forecast. Identical keys always map to identical results.
type CacheKey struct {
	ReqID          string
	PipelineHash   string
	Seed           string
	AdjustmentHash string
}

// Cache is a bounded LRU of forecast results owned by its caller. A nil *Cache is a
// valid, always-missing cache.
type Cache struct {
	entries *lru.Cache[CacheKey, Result]
}

// NewCache creates a cache holding at most size results.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[CacheKey, Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached result for key.
func (c *Cache) Get(key CacheKey) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	return c.entries.Get(key)
}

// Add stores res under key.
func (c *Cache) Add(key CacheKey, res Result) {
	if c == nil {
		return
	}
	c.entries.Add(key, res)
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}
