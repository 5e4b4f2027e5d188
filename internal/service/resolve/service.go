// Package resolve implements the Decision Engine: given a query, decide
// between answering from the local FAQ index and escalating to the agent
// path, and produce a structured, auditable Decision either way.
package resolve

import (
	"context"
	"log/slog"
	"time"

	"github.com/kotae-ai/kotae/internal/agent"
	"github.com/kotae-ai/kotae/internal/faq"
	"github.com/kotae-ai/kotae/internal/metrics"
	"github.com/kotae-ai/kotae/internal/model"
	"github.com/kotae-ai/kotae/internal/service/embedding"
)

// FallbackAnswer is returned on the unavailable path. Fixed so clients and
// tests can rely on it.
const FallbackAnswer = "I couldn't find a confident answer and the assistant is currently unavailable. " +
	"Please try again later or create a support ticket to reach a human."

// Config holds the engine's tunables.
type Config struct {
	Threshold    float64       // Minimum cosine similarity for a local answer.
	EmbedTimeout time.Duration // Deadline for the embedding call.
	AgentTimeout time.Duration // Deadline for the agent invocation.
}

// Service is the Decision Engine.
type Service struct {
	index    *faq.Index
	embedder embedding.Provider
	adapter  agent.Adapter // nil when no agent is configured.
	cfg      Config
	logger   *slog.Logger
}

// New creates a Decision Engine. adapter may be nil; queries below the
// confidence threshold then resolve on the unavailable path.
func New(index *faq.Index, embedder embedding.Provider, adapter agent.Adapter, cfg Config, logger *slog.Logger) *Service {
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 10 * time.Second
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 15 * time.Second
	}
	return &Service{
		index:    index,
		embedder: embedder,
		adapter:  adapter,
		cfg:      cfg,
		logger:   logger,
	}
}

// AgentConfigured reports whether an agent adapter was wired at startup.
func (s *Service) AgentConfigured() bool {
	return s.adapter != nil
}

// Resolve scores the query against the local FAQ index and either answers
// locally or escalates to the agent adapter. It always produces a Decision:
// agent absence and every downstream failure degrade to the unavailable
// path rather than failing the request.
func (s *Service) Resolve(ctx context.Context, q model.Query) model.Decision {
	decision := s.resolve(ctx, q)
	metrics.ResolutionsTotal.WithLabelValues(string(decision.Path)).Inc()
	return decision
}

func (s *Service) resolve(ctx context.Context, q model.Query) model.Decision {
	now := time.Now().UTC()

	var best faq.Match
	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	vec, err := s.embedder.Embed(embedCtx, q.Message)
	cancel()
	if err != nil {
		// Without a query vector the local tier cannot score; fall through
		// to the agent, which embeds on its own.
		s.logger.Warn("resolve: embedding failed, skipping local tier", "error", err)
	} else {
		best = s.index.Best(vec.Slice())
	}

	if err == nil && best.Score >= s.cfg.Threshold {
		return model.Decision{
			Answer:       best.Entry.Answer,
			Confidence:   best.Score,
			Path:         model.PathLocal,
			ToolCalls:    []model.ToolCall{},
			MatchedFAQID: best.Entry.ID,
			CreatedAt:    now,
		}
	}

	if s.adapter == nil {
		return s.unavailable(now)
	}

	agentCtx, cancel := context.WithTimeout(ctx, s.cfg.AgentTimeout)
	defer cancel()
	res, err := s.adapter.Answer(agentCtx, q.Message)
	if err != nil {
		// Adapter failure (including timeout) is a valid, reportable
		// outcome, not a request failure.
		s.logger.Warn("resolve: agent unavailable", "error", err, "local_score", best.Score)
		return s.unavailable(now)
	}

	toolCalls := res.ToolCalls
	if toolCalls == nil {
		toolCalls = []model.ToolCall{}
	}
	return model.Decision{
		Answer:     res.Answer,
		Confidence: clamp01(res.Confidence),
		Path:       model.PathAgent,
		ToolCalls:  toolCalls,
		CreatedAt:  now,
	}
}

func (s *Service) unavailable(at time.Time) model.Decision {
	return model.Decision{
		Answer:     FallbackAnswer,
		Confidence: 0,
		Path:       model.PathUnavailable,
		ToolCalls:  []model.ToolCall{},
		CreatedAt:  at,
	}
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
