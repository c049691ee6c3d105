package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captionrag/config"
	"captionrag/internal/adapter/httpretry"
)

func fastRetry() Option {
	return WithRetryPolicy(httpretry.Policy{MaxRetries: 3, Backoff: func(int) time.Duration { return 0 }})
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)

		// Reply out of order to check index handling.
		resp := embeddingResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingData{Index: i, Embedding: []float32{float32(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	t.Setenv("TEST_EMBED_KEY", "test-key")
	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "text-embedding-3-small", server.URL, fastRetry())
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimension())

	texts := make([]string, 150)
	for i := range texts {
		texts[i] = "text"
	}
	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, vectors, 150)
	assert.Equal(t, float32(0), vectors[0][0])
	assert.Equal(t, float32(99), vectors[99][0])
	assert.Equal(t, float32(49), vectors[149][0])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIEmbedderRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{{Index: 0, Embedding: []float32{1}}}})
	}))
	defer server.Close()

	t.Setenv("TEST_EMBED_KEY", "k")
	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "m", server.URL, fastRetry())
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIEmbedderClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	t.Setenv("TEST_EMBED_KEY", "k")
	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "m", server.URL, fastRetry())
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAIEmbedderMissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewOpenAIEmbedder("TEST_EMBED_KEY", "text-embedding-3-small")
	assert.Error(t, err)
}

func TestMockEmbedderDistinguishesTexts(t *testing.T) {
	e := NewMockEmbedder(16)
	vectors, err := e.Embed(context.Background(), []string{"caching basics", "caching basics", "basics caching"})
	require.NoError(t, err)

	assert.Len(t, vectors[0], 16)
	assert.Equal(t, vectors[0], vectors[1])
	assert.NotEqual(t, vectors[0], vectors[2])
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Embedding
	cfg.Provider = "mock"
	cfg.Dimension = 32

	e, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 32, e.Dimension())
	assert.Equal(t, "mock", e.ModelName())

	cfg.Provider = "ollama"
	cfg.Model = "all-minilm"
	e, err = NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 384, e.Dimension())

	cfg.Provider = "bogus"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}
