package api

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// resultCache is a concurrency-safe LRU of parse results keyed by query
// text. A zero size disables caching.
type resultCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newResultCache(size int) *resultCache {
	if size <= 0 {
		return &resultCache{}
	}
	return &resultCache{cache: lru.New(size)}
}

func (c *resultCache) get(query string) (*Result, bool) {
	if c.cache == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(query)
	if !ok {
		return nil, false
	}
	return v.(*Result), true
}

func (c *resultCache) add(query string, r *Result) {
	if c.cache == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(query, r)
}

func (c *resultCache) len() int {
	if c.cache == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
