package faq

import (
	"context"
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotae-ai/kotae/internal/model"
)

// stubProvider maps known texts to fixed vectors.
type stubProvider struct {
	dims    int
	vectors map[string][]float32
}

func (p *stubProvider) Embed(_ context.Context, text string) (pgvector.Vector, error) {
	if v, ok := p.vectors[text]; ok {
		return pgvector.NewVector(v), nil
	}
	return pgvector.NewVector(make([]float32, p.dims)), nil
}

func (p *stubProvider) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	vecs := make([]pgvector.Vector, len(texts))
	for i, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func (p *stubProvider) Dimensions() int { return p.dims }

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	provider := &stubProvider{
		dims: 3,
		vectors: map[string][]float32{
			"How do I reset my password?": {1, 0, 0},
			"How do I close my account?":  {0, 1, 0},
			"What are your office hours?": {0, 0, 1},
		},
	}
	idx, err := BuildIndex(context.Background(), []model.FAQEntry{
		{ID: "1", Question: "How do I reset my password?", Answer: "Visit /reset", Category: "account"},
		{ID: "2", Question: "How do I close my account?", Answer: "Email support", Category: "account"},
		{ID: "3", Question: "What are your office hours?", Answer: "9-5 weekdays", Category: "general"},
	}, provider)
	require.NoError(t, err)
	return idx
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	// Unnormalized magnitudes must not change the similarity.
	assert.InDelta(t, 1.0, Cosine([]float32{2, 0}, []float32{5, 0}), 1e-9)
}

func TestCosineZeroVector(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{0, 0, 0}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2, 3}, []float32{0, 0, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{0, 0}))
}

func TestBestExactMatch(t *testing.T) {
	idx := buildTestIndex(t)

	m := idx.Best([]float32{1, 0, 0})
	assert.Equal(t, "1", m.Entry.ID)
	assert.Equal(t, "Visit /reset", m.Entry.Answer)
	assert.InDelta(t, 1.0, m.Score, 1e-9)
}

func TestBestZeroQueryScoresZero(t *testing.T) {
	idx := buildTestIndex(t)

	m := idx.Best([]float32{0, 0, 0})
	assert.Equal(t, 0.0, m.Score)
}

func TestBestTieBreaksOnLowestID(t *testing.T) {
	provider := &stubProvider{
		dims: 2,
		vectors: map[string][]float32{
			"alpha": {3, 4},
			"beta":  {6, 8}, // Same direction, same cosine against any query.
		},
	}
	// Entry order deliberately puts the higher ID first.
	idx, err := BuildIndex(context.Background(), []model.FAQEntry{
		{ID: "10", Question: "beta", Answer: "B"},
		{ID: "9", Question: "alpha", Answer: "A"},
	}, provider)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		m := idx.Best([]float32{3, 4})
		assert.Equal(t, "9", m.Entry.ID, "lowest id must win ties deterministically")
	}
}

func TestBuildIndexDimensionMismatch(t *testing.T) {
	provider := &stubProvider{
		dims: 4, // Claims 4 but emits 2-dim vectors.
		vectors: map[string][]float32{
			"q": {1, 0},
		},
	}
	_, err := BuildIndex(context.Background(), []model.FAQEntry{
		{ID: "1", Question: "q", Answer: "a"},
	}, provider)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensionality")
}

func TestBuildIndexEmpty(t *testing.T) {
	_, err := BuildIndex(context.Background(), nil, &stubProvider{dims: 2})
	assert.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	in := strings.NewReader(`id,question,answer,category
1,How do I reset my password?,Visit /reset,account
2,,missing question row,
,What are your hours?,9-5,general
3,How do I pay?,,billing
4,How do I export data?,Use the export page,data
`)
	entries, err := parseCSV(in)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "1", entries[0].ID)
	assert.Equal(t, "Visit /reset", entries[0].Answer)
	// Missing id falls back to positional.
	assert.Equal(t, "1", entries[1].ID)
	assert.Equal(t, "What are your hours?", entries[1].Question)
	assert.Equal(t, "4", entries[2].ID)
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, err := parseCSV(strings.NewReader("id,text\n1,hello\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question")
}
