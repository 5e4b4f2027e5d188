package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embedding: []float32{0.1, 0.2, 0.3},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model", 3)
	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec.Slice())
}

func TestOllamaEmbedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing", 3)
	_, err := p.Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "status 404")
}

func TestOllamaEmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model", 3)
	_, err := p.Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "empty embedding")
}

func TestOllamaEmbedBatchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Encode the prompt length so each item gets a distinguishable vector.
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embedding: []float32{float32(len(req.Prompt))},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model", 1)
	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff"})
	require.NoError(t, err)
	require.Len(t, vecs, 6)
	for i, v := range vecs {
		assert.Equal(t, float32(i+1), v.Slice()[0])
	}
}

func TestNoopProviderZeroVectors(t *testing.T) {
	p := NewNoopProvider(4)
	vec, err := p.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0}, vec.Slice())
	assert.Equal(t, 4, p.Dimensions())
}
