package relevance

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPJudgeValidation(t *testing.T) {
	_, err := NewHTTPJudge(HTTPConfig{}, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	judge, err := NewHTTPJudge(HTTPConfig{BaseURL: "http://localhost:8080"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, judge.config.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, judge.config.RetryBackoff)
	assert.Equal(t, 30*time.Second, judge.config.Timeout)
}

func TestHTTPJudgeScoreBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rerank", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "how to index documents", req.Query)
		require.Len(t, req.Texts, 3)

		// TEI returns results sorted by score, not input order.
		results := []rerankResult{
			{Index: 2, Score: 0.92},
			{Index: 0, Score: 0.41},
			{Index: 1, Score: 1.25},
		}
		require.NoError(t, json.NewEncoder(w).Encode(results))
	}))
	defer server.Close()

	judge, err := NewHTTPJudge(HTTPConfig{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	scores, err := judge.ScoreBatch(context.Background(), "how to index documents", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.InDelta(t, 0.41, scores[0], 0.001)
	assert.InDelta(t, 1.0, scores[1], 0.001, "out-of-range scores are clamped")
	assert.InDelta(t, 0.92, scores[2], 0.001)
}

func TestHTTPJudgeScoreBatchIgnoresBadIndexes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := []rerankResult{
			{Index: 0, Score: 0.5},
			{Index: 9, Score: 0.9},
			{Index: -1, Score: 0.7},
		}
		require.NoError(t, json.NewEncoder(w).Encode(results))
	}))
	defer server.Close()

	judge, err := NewHTTPJudge(HTTPConfig{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	scores, err := judge.ScoreBatch(context.Background(), "q", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0}, scores)
}

func TestHTTPJudgeScoreBatchEmpty(t *testing.T) {
	judge, err := NewHTTPJudge(HTTPConfig{BaseURL: "http://localhost:1"}, nil)
	require.NoError(t, err)

	scores, err := judge.ScoreBatch(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores, "no texts means no HTTP call")
}

func TestHTTPJudgeRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode([]rerankResult{{Index: 0, Score: 0.8}}))
	}))
	defer server.Close()

	judge, err := NewHTTPJudge(HTTPConfig{
		BaseURL:      server.URL,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, nil)
	require.NoError(t, err)

	score, err := judge.Score(context.Background(), "q", "text")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, score, 0.001)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPJudgeExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	judge, err := NewHTTPJudge(HTTPConfig{
		BaseURL:      server.URL,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, nil)
	require.NoError(t, err)

	_, err = judge.Score(context.Background(), "q", "text")
	require.ErrorIs(t, err, ErrScoringFailed)
}

func TestHTTPJudgeCancellationNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// Drain the body so the server can detect the client disconnect;
		// with unread body bytes the request context is never canceled and
		// server.Close would block forever.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	judge, err := NewHTTPJudge(HTTPConfig{
		BaseURL:      server.URL,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = judge.Score(ctx, "q", "text")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
}
