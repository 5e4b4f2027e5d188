package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotae-ai/kotae/internal/audit"
	"github.com/kotae-ai/kotae/internal/faq"
	"github.com/kotae-ai/kotae/internal/model"
	"github.com/kotae-ai/kotae/internal/search"
	"github.com/kotae-ai/kotae/internal/service/resolve"
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

type stubRetriever struct{ candidates []search.Candidate }

func (s *stubRetriever) TopK(context.Context, []float32, int) ([]search.Candidate, error) {
	return s.candidates, nil
}

func callRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// toolText extracts the first TextContent text from a CallToolResult.
func toolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

func newTestServer(t *testing.T, retriever *stubRetriever) (*Server, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	embedder := &fixedEmbedder{vec: []float32{1, 0}}

	idx, err := faq.BuildIndex(context.Background(), []model.FAQEntry{
		{ID: "1", Question: "How do I reset my password?", Answer: "Visit /reset"},
	}, embedder)
	require.NoError(t, err)

	auditPath := filepath.Join(t.TempDir(), "audit.jsonl")
	auditor, err := audit.NewWriter(auditPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = auditor.Close() })

	resolver := resolve.New(idx, embedder, nil, resolve.Config{Threshold: 0.7}, logger)
	if retriever == nil {
		return New(resolver, auditor, embedder, nil, logger), auditPath
	}
	return New(resolver, auditor, embedder, retriever, logger), auditPath
}

func readAuditRecords(t *testing.T, path string) []model.AuditRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var records []model.AuditRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec model.AuditRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, sc.Err())
	return records
}

func TestHandleAskLocal(t *testing.T) {
	s, _ := newTestServer(t, nil)

	result, err := s.handleAsk(context.Background(), callRequest("kotae_ask", map[string]any{
		"query": "How do I reset my password?",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	var resp model.AskResponse
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &resp))
	assert.Equal(t, model.PathLocal, resp.Path)
	assert.Equal(t, "Visit /reset", resp.Answer)
}

func TestHandleAskWritesAuditRecord(t *testing.T) {
	s, auditPath := newTestServer(t, nil)

	result, err := s.handleAsk(context.Background(), callRequest("kotae_ask", map[string]any{
		"query":   "my email is jane@example.com, how do I reset my password?",
		"user_id": "u1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	records := readAuditRecords(t, auditPath)
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0].UserID)
	assert.NotContains(t, records[0].RedactedMessage, "jane@example.com")
	assert.Contains(t, records[0].RedactedMessage, "[REDACTED_EMAIL]")
	assert.NotEmpty(t, records[0].Answer)
}

func TestHandleAskMissingQuery(t *testing.T) {
	s, auditPath := newTestServer(t, nil)

	result, err := s.handleAsk(context.Background(), callRequest("kotae_ask", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "query is required")

	// Nothing resolved, nothing audited.
	assert.Empty(t, readAuditRecords(t, auditPath))
}

func TestHandleCandidates(t *testing.T) {
	s, _ := newTestServer(t, &stubRetriever{candidates: []search.Candidate{
		{ID: "1", Question: "q1", Answer: "a1", Score: 0.9},
		{ID: "2", Question: "q2", Answer: "a2", Score: 0.5},
	}})

	result, err := s.handleCandidates(context.Background(), callRequest("kotae_candidates", map[string]any{
		"query": "anything",
		"top_k": 2,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	var resp struct {
		Candidates []search.Candidate `json:"candidates"`
		Total      int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "1", resp.Candidates[0].ID)
}

func TestHandleCandidatesWithoutStore(t *testing.T) {
	s, _ := newTestServer(t, nil)

	result, err := s.handleCandidates(context.Background(), callRequest("kotae_candidates", map[string]any{
		"query": "anything",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "not configured")
}
