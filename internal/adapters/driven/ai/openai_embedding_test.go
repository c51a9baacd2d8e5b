package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chonkit/internal/core/domain"
)

func TestNewOpenAIEmbeddingRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedding("", "")
	assert.Error(t, err)
}

func TestNewOpenAIEmbeddingDefaultBaseURL(t *testing.T) {
	e, err := NewOpenAIEmbedding("sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", e.baseURL)
}

func TestOpenAIEmbeddingDimension(t *testing.T) {
	e, err := NewOpenAIEmbedding("sk-test", "")
	require.NoError(t, err)

	d, err := e.Dimension(context.Background(), "text-embedding-3-small")
	require.NoError(t, err)
	assert.Equal(t, 1536, d)

	d, err = e.Dimension(context.Background(), "text-embedding-3-large")
	require.NoError(t, err)
	assert.Equal(t, 3072, d)

	_, err = e.Dimension(context.Background(), "unknown-model")
	assert.ErrorIs(t, err, domain.ErrModelUnknown)
}

func TestOpenAIEmbeddingEmbedEmptyInput(t *testing.T) {
	e, err := NewOpenAIEmbedding("sk-test", "")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), "text-embedding-3-small", nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestOpenAIEmbeddingEmbedUnknownModel(t *testing.T) {
	e, err := NewOpenAIEmbedding("sk-test", "")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "unknown-model", []string{"hi"})
	assert.ErrorIs(t, err, domain.ErrModelUnknown)
}

func TestOpenAIEmbeddingEmbedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := embeddingResponse{
			Object: "list",
			Data: []struct {
				Object    string    `json:"object"`
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{
				{Object: "embedding", Index: 0, Embedding: []float32{0.1, 0.2, 0.3}},
				{Object: "embedding", Index: 1, Embedding: []float32{0.4, 0.5, 0.6}},
			},
			Model: "text-embedding-3-small",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedding("sk-test", server.URL)
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), "text-embedding-3-small", []string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, result[0])
}

func TestOpenAIEmbeddingEmbedAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{
			Error: &struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			}{Message: "Invalid API key", Type: "invalid_request_error", Code: "invalid_api_key"},
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedding("sk-invalid", server.URL)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text-embedding-3-small", []string{"test"})
	assert.ErrorIs(t, err, domain.ErrEmbedUpstream)
}

func TestOpenAIEmbeddingEmbedInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedding("sk-test", server.URL)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text-embedding-3-small", []string{"test"})
	assert.Error(t, err)
}

func TestOpenAIEmbeddingEmbedNetworkError(t *testing.T) {
	e, err := NewOpenAIEmbedding("sk-test", "http://127.0.0.1:0")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text-embedding-3-small", []string{"test"})
	assert.ErrorIs(t, err, domain.ErrEmbedUpstream)
}

func TestOpenAIEmbeddingListModels(t *testing.T) {
	e, err := NewOpenAIEmbedding("sk-test", "")
	require.NoError(t, err)

	models, err := e.ListModels(context.Background())
	require.NoError(t, err)
	assert.Contains(t, models, "text-embedding-3-small")
}

func TestOpenAIEmbeddingProvider(t *testing.T) {
	e, err := NewOpenAIEmbedding("sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", e.Provider())
}
