package embedding

import (
	"container/list"
	"sync"
)

// EmbeddingCache keeps the most recently used vectors keyed by the embedded text. Vectors are
// copied on the way in and out, so callers may modify what they receive.
type EmbeddingCache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]*list.Element
	order   *list.List // front is most recent
	hits    uint64
	misses  uint64
}

type cachedVector struct {
	text string
	vec  []float32
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// NewEmbeddingCache returns a cache holding at most limit vectors. A limit of zero or less
// yields a cache that stores nothing.
func NewEmbeddingCache(limit int) *EmbeddingCache {
	return &EmbeddingCache{
		limit:   limit,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns a copy of the vector cached for text.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[text]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return cloneVector(el.Value.(*cachedVector).vec), true
}

// Set caches a copy of vec for text, dropping the least recently used entry when full.
func (c *EmbeddingCache) Set(text string, vec []float32) {
	if c.limit <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[text]; ok {
		el.Value.(*cachedVector).vec = cloneVector(vec)
		c.order.MoveToFront(el)
		return
	}
	c.entries[text] = c.order.PushFront(&cachedVector{text: text, vec: cloneVector(vec)})
	for c.order.Len() > c.limit {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*cachedVector).text)
	}
}

// Stats returns the entry count and hit/miss counters.
func (c *EmbeddingCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: c.order.Len(), Hits: c.hits, Misses: c.misses}
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
