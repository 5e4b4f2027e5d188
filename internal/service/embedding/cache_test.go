package embedding

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider returns a distinct vector per text and counts Embed calls.
type countingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) Embed(_ context.Context, text string) (pgvector.Vector, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return pgvector.NewVector([]float32{float32(len(text))}), nil
}

func (p *countingProvider) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	vecs := make([]pgvector.Vector, len(texts))
	for i, t := range texts {
		v, _ := p.Embed(ctx, t)
		vecs[i] = v
	}
	return vecs, nil
}

func (p *countingProvider) Dimensions() int { return 1 }

func TestCachedProviderReusesVectors(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, 10)

	ctx := context.Background()
	v1, err := cached.Embed(ctx, "how do I reset my password?")
	require.NoError(t, err)
	v2, err := cached.Embed(ctx, "how do I reset my password?")
	require.NoError(t, err)

	assert.Equal(t, v1.Slice(), v2.Slice())
	assert.Equal(t, 1, inner.calls, "second call must hit the cache")
}

func TestCachedProviderEvictsWhenFull(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, 2).(*CachedProvider)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := cached.Embed(ctx, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cached.Len())
}

func TestCachedProviderDisabledForNonPositiveSize(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, 0)
	assert.Same(t, Provider(inner), p)
}

func TestCachedProviderConcurrentAccess(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, 64)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := cached.Embed(context.Background(), fmt.Sprintf("q%d", j%4))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	// Only 4 distinct texts exist; dedup may race on first fill but the
	// call count must stay far below the 160 total lookups.
	assert.LessOrEqual(t, inner.calls, 32)
}
