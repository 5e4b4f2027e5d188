package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotae-ai/kotae/internal/search"
)

type fixedEmbedder struct{ vec []float32 }

func (f *fixedEmbedder) Embed(context.Context, string) (pgvector.Vector, error) {
	return pgvector.NewVector(f.vec), nil
}

func (f *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([]pgvector.Vector, error) {
	vecs := make([]pgvector.Vector, len(texts))
	for i := range vecs {
		vecs[i] = pgvector.NewVector(f.vec)
	}
	return vecs, nil
}

func (f *fixedEmbedder) Dimensions() int { return len(f.vec) }

type stubRetriever struct {
	candidates []search.Candidate
	err        error
}

func (s *stubRetriever) TopK(context.Context, []float32, int) ([]search.Candidate, error) {
	return s.candidates, s.err
}

func TestRetrievalAgentSynthesizesFromTopCandidate(t *testing.T) {
	a := NewRetrievalAgent(&fixedEmbedder{vec: []float32{1, 0}}, &stubRetriever{
		candidates: []search.Candidate{
			{ID: "7", Question: "How do I pay?", Answer: "Use the billing page", Score: 0.64},
			{ID: "2", Question: "How do I get a refund?", Answer: "Email billing", Score: 0.41},
		},
	}, 5)

	res, err := a.Answer(context.Background(), "paying for my plan")
	require.NoError(t, err)

	assert.Contains(t, res.Answer, "Use the billing page")
	assert.Contains(t, res.Answer, "How do I get a refund?")
	assert.InDelta(t, 0.64, res.Confidence, 1e-9)

	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "faq_candidates", res.ToolCalls[0].Tool)
	assert.Contains(t, res.ToolCalls[0].ResultSummary, "faq#7")
	assert.Equal(t, "paying for my plan", res.ToolCalls[0].Arguments["query"])
}

func TestRetrievalAgentNoCandidates(t *testing.T) {
	a := NewRetrievalAgent(&fixedEmbedder{vec: []float32{1, 0}}, &stubRetriever{}, 5)

	res, err := a.Answer(context.Background(), "???")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Contains(t, res.Answer, "support ticket")
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "no candidates", res.ToolCalls[0].ResultSummary)
}

func TestRetrievalAgentRetrieverFailureIsUnavailable(t *testing.T) {
	a := NewRetrievalAgent(&fixedEmbedder{vec: []float32{1, 0}}, &stubRetriever{
		err: errors.New("connection refused"),
	}, 5)

	_, err := a.Answer(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRetrievalAgentClampsConfidence(t *testing.T) {
	a := NewRetrievalAgent(&fixedEmbedder{vec: []float32{1, 0}}, &stubRetriever{
		candidates: []search.Candidate{
			{ID: "1", Question: "q", Answer: "a", Score: 1.2},
		},
	}, 3)

	res, err := a.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Confidence)
}
