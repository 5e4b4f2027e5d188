// Package agent wraps the optional reasoning component consulted when the
// local FAQ index is not confident.
//
// Availability is resolved once at startup: the Decision Engine holds an
// Adapter that is either configured or nil, never scattered presence checks.
// Any invocation failure surfaces as ErrUnavailable and degrades the request
// to the unavailable path instead of failing it.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kotae-ai/kotae/internal/model"
	"github.com/kotae-ai/kotae/internal/search"
	"github.com/kotae-ai/kotae/internal/service/embedding"
)

// ErrUnavailable reports that the agent could not be invoked. The Decision
// Engine recovers from it; it never reaches a client as an error.
var ErrUnavailable = errors.New("agent: unavailable")

// Result is the agent's answer plus the trace of tools it actually called.
type Result struct {
	Answer     string
	Confidence float64
	ToolCalls  []model.ToolCall
}

// Adapter produces an answer for a query the local index could not resolve.
type Adapter interface {
	Answer(ctx context.Context, message string) (Result, error)
}

// CandidateRetriever is the one tool the retrieval agent may call.
// Satisfied by *search.QdrantIndex.
type CandidateRetriever interface {
	TopK(ctx context.Context, embedding []float32, k int) ([]search.Candidate, error)
}

// RetrievalAgent answers by retrieving top-k candidates from the persistent
// store and synthesizing a reply from the best hit.
type RetrievalAgent struct {
	embedder  embedding.Provider
	retriever CandidateRetriever
	topK      int
}

// NewRetrievalAgent creates the retrieval-backed adapter.
func NewRetrievalAgent(embedder embedding.Provider, retriever CandidateRetriever, topK int) *RetrievalAgent {
	if topK <= 0 {
		topK = 5
	}
	return &RetrievalAgent{embedder: embedder, retriever: retriever, topK: topK}
}

// Answer retrieves candidates and synthesizes a reply. Every tool invocation
// is recorded in order for the decision trace.
func (a *RetrievalAgent) Answer(ctx context.Context, message string) (Result, error) {
	vec, err := a.embedder.Embed(ctx, message)
	if err != nil {
		return Result{}, fmt.Errorf("%w: embed query: %w", ErrUnavailable, err)
	}

	candidates, err := a.retriever.TopK(ctx, vec.Slice(), a.topK)
	if err != nil {
		return Result{}, fmt.Errorf("%w: retrieve candidates: %w", ErrUnavailable, err)
	}

	call := model.ToolCall{
		Tool: "faq_candidates",
		Arguments: map[string]any{
			"query": message,
			"top_k": a.topK,
		},
		ResultSummary: summarizeCandidates(candidates),
	}

	if len(candidates) == 0 {
		return Result{
			Answer:     "I couldn't find a matching FAQ entry. You can create a support ticket to reach a human.",
			Confidence: 0,
			ToolCalls:  []model.ToolCall{call},
		}, nil
	}

	best := candidates[0]
	var b strings.Builder
	b.WriteString(best.Answer)
	if len(candidates) > 1 {
		b.WriteString("\n\nRelated questions:")
		for _, c := range candidates[1:] {
			b.WriteString("\n- ")
			b.WriteString(c.Question)
		}
	}

	return Result{
		Answer:     b.String(),
		Confidence: clamp01(best.Score),
		ToolCalls:  []model.ToolCall{call},
	}, nil
}

func summarizeCandidates(candidates []search.Candidate) string {
	if len(candidates) == 0 {
		return "no candidates"
	}
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = fmt.Sprintf("faq#%s (%.3f)", c.ID, c.Score)
	}
	return fmt.Sprintf("%d candidates: %s", len(candidates), strings.Join(parts, ", "))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
