// Package faq implements the in-memory FAQ index used for first-tier
// query resolution.
//
// The index is immutable after construction and safe for concurrent reads
// without locking. A reload builds a fresh index and swaps the reference;
// entries are never mutated in place.
package faq

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/kotae-ai/kotae/internal/model"
	"github.com/kotae-ai/kotae/internal/service/embedding"
)

// Index holds the FAQ corpus with precomputed question embeddings.
type Index struct {
	entries []model.FAQEntry
	dims    int
}

// Match is the best local hit for a query vector.
type Match struct {
	Entry model.FAQEntry
	Score float64
}

// BuildIndex embeds every entry's question in one batch and verifies that
// the embedder's dimensionality matches. A mismatch is a fatal configuration
// error: serving with misaligned vectors would silently score garbage.
func BuildIndex(ctx context.Context, entries []model.FAQEntry, embedder embedding.Provider) (*Index, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("faq: no entries to index")
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Question
	}

	vecs, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("faq: embed questions: %w", err)
	}
	if len(vecs) != len(entries) {
		return nil, fmt.Errorf("faq: embedder returned %d vectors for %d questions", len(vecs), len(entries))
	}

	dims := embedder.Dimensions()
	indexed := make([]model.FAQEntry, len(entries))
	for i, e := range entries {
		if got := len(vecs[i].Slice()); got != dims {
			return nil, fmt.Errorf("faq: entry %s: embedding dimensionality %d does not match configured %d", e.ID, got, dims)
		}
		e.Embedding = vecs[i]
		indexed[i] = e
	}

	return &Index{entries: indexed, dims: dims}, nil
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Dimensions returns the vector size the index was built with.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Entries returns the indexed corpus. Callers must treat it as read-only.
func (idx *Index) Entries() []model.FAQEntry {
	return idx.entries
}

// Best returns the maximum-similarity entry for the query vector.
// Exact score ties resolve to the lowest entry ID so repeated identical
// queries always resolve identically.
func (idx *Index) Best(query []float32) Match {
	best := Match{Score: -1}
	for _, e := range idx.entries {
		score := Cosine(query, e.Embedding.Slice())
		if score > best.Score || (score == best.Score && idLess(e.ID, best.Entry.ID)) {
			best = Match{Entry: e, Score: score}
		}
	}
	if best.Score < 0 {
		best.Score = 0
	}
	return best
}

// Cosine computes cosine similarity on raw (unnormalized) vectors.
// A zero vector on either side yields 0 rather than a division fault.
// Mismatched lengths also yield 0; BuildIndex makes that unreachable for
// index entries, so it only guards ad-hoc callers.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// idLess orders entry IDs for tie-breaking: both-numeric IDs compare as
// numbers (so "9" < "10"), anything else compares bytewise.
func idLess(a, b string) bool {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a < b
}
