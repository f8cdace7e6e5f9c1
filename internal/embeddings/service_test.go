package embeddings

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
	"go.uber.org/zap"
)

func embedServer(t *testing.T, dimension int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var count int
		switch inputs := req.Inputs.(type) {
		case []interface{}:
			count = len(inputs)
		case string:
			count = 1
		}

		vectors := make([][]float32, count)
		for i := range vectors {
			vectors[i] = make([]float32, dimension)
			vectors[i][0] = float32(i + 1)
		}
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	}))
}

func TestServiceEmbedDocuments(t *testing.T) {
	server := embedServer(t, 4)
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL, Model: "bge-small-en-v1.5"}, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	vectors, err := svc.EmbedDocuments(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
}

func TestServiceEmbedQuery(t *testing.T) {
	server := embedServer(t, 4)
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL, Model: "bge-small-en-v1.5"}, zap.NewNop())
	require.NoError(t, err)

	vec, err := svc.EmbedQuery(context.Background(), "a query")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestServiceRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([][]float32{{1, 2, 3, 4}})
	}))
	defer server.Close()

	svc, err := NewService(Config{
		BaseURL:      server.URL,
		Model:        "bge-small-en-v1.5",
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	vec, err := svc.EmbedQuery(context.Background(), "retry me")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, int32(3), calls.Load())
}

func TestServiceExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, err := NewService(Config{
		BaseURL:      server.URL,
		Model:        "bge-small-en-v1.5",
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), []string{"x"})
	require.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestServiceCancellationNotRetried(t *testing.T) {
	server := embedServer(t, 4)
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL, Model: "bge-small-en-v1.5"}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.EmbedQuery(ctx, "too late")
	require.ErrorIs(t, err, context.Canceled)
}

func TestServiceValidation(t *testing.T) {
	_, err := NewService(Config{}, zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidConfig)

	server := embedServer(t, 4)
	defer server.Close()
	svc, err := NewService(Config{BaseURL: server.URL, Model: "bge-small-en-v1.5"}, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestDetectDimension(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"BAAI/bge-small-en-v1.5", 384},
		{"all-MiniLM-L6-v2", 384},
		{"BAAI/bge-base-en-v1.5", 768},
		{"BAAI/bge-large-en-v1.5", 1024},
		{"unknown-model", 384},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectDimension(tt.model), "model %s", tt.model)
	}
}
