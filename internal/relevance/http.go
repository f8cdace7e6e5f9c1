package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPConfig holds configuration for the HTTP rerank judge.
type HTTPConfig struct {
	// BaseURL is the base URL for the rerank API (TEI-compatible).
	BaseURL string

	// APIKey is the bearer token (optional for local TEI).
	APIKey string

	// MaxRetries is the number of retry attempts for transient failures.
	// Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff duration, doubled per retry.
	// Default: 500ms
	RetryBackoff time.Duration

	// Timeout is the per-request HTTP timeout. Default: 30s
	Timeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *HTTPConfig) ApplyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate validates the configuration.
func (c HTTPConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// HTTPJudge scores candidates via a TEI-compatible /rerank endpoint.
type HTTPJudge struct {
	config HTTPConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPJudge creates a new HTTP rerank judge with the given configuration.
func NewHTTPJudge(config HTTPConfig, logger *zap.Logger) (*HTTPJudge, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPJudge{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

// rerankRequest is the request body for the TEI rerank endpoint.
type rerankRequest struct {
	Query    string   `json:"query"`
	Texts    []string `json:"texts"`
	Truncate bool     `json:"truncate"`
}

// rerankResult is one entry in the TEI rerank response. Index refers to
// the position of the text in the request.
type rerankResult struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// Score scores a single text against the query.
func (j *HTTPJudge) Score(ctx context.Context, query, text string) (float32, error) {
	scores, err := j.ScoreBatch(ctx, query, []string{text})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// ScoreBatch scores all texts against the query in a single call.
// Scores are returned in input order, clamped to [0,1]. Texts the
// endpoint omits from its response score 0.
func (j *HTTPJudge) ScoreBatch(ctx context.Context, query string, texts []string) ([]float32, error) {
	if len(texts) == 0 {
		return []float32{}, nil
	}

	results, err := j.rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	scores := make([]float32, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(texts) {
			j.logger.Warn("rerank result index out of range",
				zap.Int("index", r.Index),
				zap.Int("texts", len(texts)),
			)
			continue
		}
		scores[r.Index] = clamp(r.Score)
	}
	return scores, nil
}

// rerank posts to the /rerank endpoint with retry on transient failures.
// Cancellation is propagated immediately and never retried.
func (j *HTTPJudge) rerank(ctx context.Context, query string, texts []string) ([]rerankResult, error) {
	backoff := j.config.RetryBackoff

	var lastErr error
	for attempt := 0; attempt <= j.config.MaxRetries; attempt++ {
		results, err := j.rerankOnce(ctx, query, texts)
		if err == nil {
			return results, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err

		if attempt == j.config.MaxRetries {
			break
		}
		j.logger.Warn("rerank request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", j.config.MaxRetries),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("%w: after %d retries: %v", ErrScoringFailed, j.config.MaxRetries, lastErr)
}

func (j *HTTPJudge) rerankOnce(ctx context.Context, query string, texts []string) ([]rerankResult, error) {
	body, err := json.Marshal(rerankRequest{Query: query, Texts: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.config.BaseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if j.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+j.config.APIKey)
	}

	resp, err := j.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrScoringFailed, resp.StatusCode, string(respBody))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return results, nil
}

var (
	_ Judge      = (*HTTPJudge)(nil)
	_ BatchJudge = (*HTTPJudge)(nil)
)
