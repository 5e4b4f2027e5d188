package embedding

import (
	"context"
	"sync"

	"github.com/pgvector/pgvector-go"
)

// CachedProvider wraps another Provider and memoizes single-text embeddings.
// Repeated questions (the common case for a support FAQ) skip the provider
// round-trip entirely. The cache is bounded; when full it evicts in insertion
// order, which is close enough to LRU for this workload.
type CachedProvider struct {
	inner   Provider
	maxSize int

	mu      sync.Mutex
	entries map[string]pgvector.Vector
	order   []string
}

// NewCachedProvider wraps inner with a cache of at most maxSize entries.
// A non-positive maxSize disables caching and returns inner unchanged.
func NewCachedProvider(inner Provider, maxSize int) Provider {
	if maxSize <= 0 {
		return inner
	}
	return &CachedProvider{
		inner:   inner,
		maxSize: maxSize,
		entries: make(map[string]pgvector.Vector, maxSize),
	}
}

// Dimensions returns the wrapped provider's vector size.
func (c *CachedProvider) Dimensions() int {
	return c.inner.Dimensions()
}

// Embed returns a cached vector when available, otherwise delegates and
// stores the result. Errors are never cached.
func (c *CachedProvider) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	c.mu.Lock()
	if vec, ok := c.entries[text]; ok {
		c.mu.Unlock()
		return vec, nil
	}
	c.mu.Unlock()

	// The provider call runs outside the lock; a slow embedding backend
	// must not serialize unrelated requests.
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[text]; !ok {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.entries[text] = vec
		c.order = append(c.order, text)
	}
	return vec, nil
}

// EmbedBatch delegates to the wrapped provider. Batch calls happen at
// startup and during ingest where caching individual rows buys nothing.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	return c.inner.EmbedBatch(ctx, texts)
}

// Len reports the number of cached entries. Used in tests.
func (c *CachedProvider) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
