package scene

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// SourceCache caches loaded RasterSource values by their path or handle,
// so repeated cloth/viewer frames referencing the same scene don't
// reparse it. Eviction here only affects in-memory parsed scenes, never
// the tile cache managed by texture.VirtualTexture.
type SourceCache struct {
	cache *lru.Cache[string, RasterSource]
}

// NewSourceCache creates a SourceCache holding at most size entries.
func NewSourceCache(size int) (*SourceCache, error) {
	c, err := lru.New[string, RasterSource](size)
	if err != nil {
		return nil, err
	}
	return &SourceCache{cache: c}, nil
}

// Get returns the cached source for key, if present.
func (c *SourceCache) Get(key string) (RasterSource, bool) {
	return c.cache.Get(key)
}

// Put inserts or replaces the source cached under key.
func (c *SourceCache) Put(key string, src RasterSource) {
	c.cache.Add(key, src)
}

// GetOrLoad returns the cached source for key, calling load and caching
// its result on a miss. load's error, if any, is propagated and nothing
// is cached.
func (c *SourceCache) GetOrLoad(key string, load func() (RasterSource, error)) (RasterSource, error) {
	if src, ok := c.cache.Get(key); ok {
		return src, nil
	}
	src, err := load()
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, src)
	return src, nil
}

// Len returns the number of cached sources.
func (c *SourceCache) Len() int {
	return c.cache.Len()
}
