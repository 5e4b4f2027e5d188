// Package search implements the persistent candidate store backed by Qdrant.
//
// The store is only consulted on the fallback path: the Decision Engine asks
// the agent adapter for candidates when the local FAQ index is not confident.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/singleflight"

	"github.com/kotae-ai/kotae/internal/model"
)

// Config holds configuration for connecting to Qdrant.
type Config struct {
	URL        string // e.g. "https://xyz.cloud.qdrant.io:6333" or "http://localhost:6333"
	APIKey     string
	Collection string
	Dims       uint64
}

// Candidate is one nearest-neighbor hit from the candidate store.
type Candidate struct {
	ID       string  `json:"id"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Category string  `json:"category,omitempty"`
	Score    float64 `json:"score"`
}

// pointNamespace derives stable Qdrant point UUIDs from FAQ entry IDs so
// that re-ingesting the same corpus upserts instead of duplicating.
var pointNamespace = uuid.MustParse("7d9f1c1e-90aa-4a6b-b5a8-3f2f6f9d4c21")

// QdrantIndex is the Qdrant-backed candidate store.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dims       uint64
	logger     *slog.Logger

	healthGroup singleflight.Group
	healthErr   atomic.Value // stores *error (pointer-to-error, never nil pointer; inner error may be nil)
	healthAt    atomic.Int64 // unix nanos of last check
}

// parseQdrantURL extracts host, port, and TLS flag from a Qdrant URL.
// Accepts forms like "https://host:6333", "http://host:6333", or "host:6334".
func parseQdrantURL(rawURL string) (host string, port int, useTLS bool, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("search: invalid qdrant URL: %q", rawURL)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()

	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return "", 0, false, fmt.Errorf("search: invalid port in qdrant URL: %q", portStr)
		}
		// If the user specified the REST port (6333), use the gRPC port (6334).
		if p == 6333 {
			port = 6334
		} else {
			port = p
		}
	} else {
		port = 6334
	}

	return host, port, useTLS, nil
}

// NewQdrantIndex creates a QdrantIndex and connects to the server via gRPC.
func NewQdrantIndex(cfg Config, logger *slog.Logger) (*QdrantIndex, error) {
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("search: connect to qdrant at %s:%d: %w", host, port, err)
	}

	return &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dims:       cfg.Dims,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if it doesn't already exist and
// ensures the category payload index is present. CreateFieldIndex is
// idempotent on Qdrant, so the index is safely backfilled on every restart.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("search: check collection exists: %w", err)
	}

	if !exists {
		if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     q.dims,
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("search: create collection %q: %w", q.collection, err)
		}
		q.logger.Info("qdrant: created collection", "collection", q.collection, "dims", q.dims)
	} else {
		q.logger.Info("qdrant: collection already exists", "collection", q.collection)
	}

	keywordType := qdrant.FieldType_FieldTypeKeyword
	for _, field := range []string{"faq_id", "category"} {
		if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.collection,
			FieldName:      field,
			FieldType:      &keywordType,
		}); err != nil {
			return fmt.Errorf("search: ensure index on %q: %w", field, err)
		}
	}

	return nil
}

// Upsert writes FAQ entries (with their embeddings) into the collection.
// Point IDs derive deterministically from entry IDs, so re-ingesting the
// same CSV replaces rather than duplicates.
func (q *QdrantIndex) Upsert(ctx context.Context, entries []model.FAQEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for i, e := range entries {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.NewSHA1(pointNamespace, []byte(e.ID)).String()),
			Vectors: qdrant.NewVectorsDense(e.Embedding.Slice()),
			Payload: qdrant.NewValueMap(map[string]any{
				"faq_id":   e.ID,
				"question": e.Question,
				"answer":   e.Answer,
				"category": e.Category,
			}),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("search: qdrant upsert %d points: %w", len(entries), err)
	}
	return nil
}

// TopK returns the k nearest candidates for the embedding, deduplicated by
// FAQ id (the store may hold reingested duplicates during a migration).
func (q *QdrantIndex) TopK(ctx context.Context, embedding []float32, k int) ([]Candidate, error) {
	if k <= 0 {
		k = 5
	}

	// Over-fetch to absorb dedup losses.
	fetchLimit := uint64(k) * 2 //nolint:gosec // k is bounded by config validation
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(embedding),
		Limit:          &fetchLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search: qdrant query: %w", err)
	}

	seen := make(map[string]bool, len(scored))
	candidates := make([]Candidate, 0, k)
	for _, sp := range scored {
		payload := sp.Payload
		c := Candidate{
			ID:       payload["faq_id"].GetStringValue(),
			Question: payload["question"].GetStringValue(),
			Answer:   payload["answer"].GetStringValue(),
			Category: payload["category"].GetStringValue(),
			Score:    float64(sp.Score),
		}
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		candidates = append(candidates, c)
		if len(candidates) == k {
			break
		}
	}

	return candidates, nil
}

// Healthy returns nil if Qdrant is reachable. Results are cached for 5
// seconds to avoid hammering the health endpoint; concurrent checks after
// cache expiry are deduplicated via singleflight.
func (q *QdrantIndex) Healthy(ctx context.Context) error {
	if time.Since(time.Unix(0, q.healthAt.Load())) < 5*time.Second {
		return q.loadHealthErr()
	}

	// Use context.Background() instead of the caller's ctx because
	// singleflight reuses the first caller's context — if that caller
	// cancels, all waiters would get a stale error.
	result, _, _ := q.healthGroup.Do("health", func() (any, error) {
		checkCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := q.client.HealthCheck(checkCtx)
		if err != nil {
			q.storeHealthErr(fmt.Errorf("search: qdrant unhealthy: %w", err))
		} else {
			q.storeHealthErr(nil)
		}
		q.healthAt.Store(time.Now().UnixNano())
		return q.loadHealthErr(), nil
	})
	if result == nil {
		return nil
	}
	return result.(error)
}

// storeHealthErr stores an error (or nil) in the atomic.Value.
// atomic.Value cannot store nil directly, so we wrap it in a pointer.
func (q *QdrantIndex) storeHealthErr(err error) {
	q.healthErr.Store(&err)
}

func (q *QdrantIndex) loadHealthErr() error {
	v := q.healthErr.Load()
	if v == nil {
		return nil
	}
	return *v.(*error)
}

// Close shuts down the Qdrant gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
