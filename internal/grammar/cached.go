package grammar

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of parse results kept by NewCached when a
// non-positive size is requested.
const DefaultCacheSize = 4096

// Cached memoizes another Grammar's Parse results in a bounded LRU.
// Parse results are pure, so caching never changes behavior.
type Cached struct {
	Grammar
	cache *lru.Cache[string, ParsedClass]
}

// NewCached wraps g with an LRU cache of the given size.
func NewCached(g Grammar, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, ParsedClass](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &Cached{Grammar: g, cache: cache}
}

// Parse implements Grammar.
func (c *Cached) Parse(className string) ParsedClass {
	if pc, ok := c.cache.Get(className); ok {
		return pc
	}
	pc := c.Grammar.Parse(className)
	c.cache.Add(className, pc)
	return pc
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *Cached) Purge() {
	c.cache.Purge()
}
