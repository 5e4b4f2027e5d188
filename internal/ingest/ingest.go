// Package ingest loads FAQ documents into the persistent candidate store.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kotae-ai/kotae/internal/faq"
	"github.com/kotae-ai/kotae/internal/metrics"
	"github.com/kotae-ai/kotae/internal/model"
	"github.com/kotae-ai/kotae/internal/service/embedding"
)

// Upserter receives embedded FAQ entries. Satisfied by *search.QdrantIndex.
type Upserter interface {
	Upsert(ctx context.Context, entries []model.FAQEntry) error
}

// Service embeds uploaded FAQ documents and writes them to the candidate
// store in one shot.
type Service struct {
	embedder embedding.Provider
	upserter Upserter
	logger   *slog.Logger
}

// New creates an ingest service.
func New(embedder embedding.Provider, upserter Upserter, logger *slog.Logger) *Service {
	return &Service{embedder: embedder, upserter: upserter, logger: logger}
}

// IngestCSV parses CSV data, embeds every question, and upserts the batch.
// Returns the number of entries written. A partial failure writes nothing.
func (s *Service) IngestCSV(ctx context.Context, r io.Reader) (int, error) {
	entries, err := faq.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("ingest: parse csv: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	questions := make([]string, len(entries))
	for i, e := range entries {
		questions[i] = e.Question
	}
	vecs, err := s.embedder.EmbedBatch(ctx, questions)
	if err != nil {
		return 0, fmt.Errorf("ingest: embed questions: %w", err)
	}
	for i := range entries {
		entries[i].Embedding = vecs[i]
	}

	if err := s.upserter.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("ingest: upsert: %w", err)
	}

	metrics.IngestDocumentsTotal.Add(float64(len(entries)))
	s.logger.Info("ingested FAQ documents", "count", len(entries))
	return len(entries), nil
}
