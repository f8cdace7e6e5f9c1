// Package relevance provides pluggable judges that score how well a
// candidate text answers a query.
//
// A Judge returns a score in [0,1]. The HTTPJudge calls a TEI-compatible
// rerank endpoint; the OverlapJudge is a dependency-free term-overlap
// scorer used as the default. Judges are injected into the reranker via
// constructor, never reached through globals, so tests can substitute
// fakes.
package relevance

import (
	"context"
	"errors"
)

var (
	// ErrInvalidConfig indicates invalid judge configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrScoringFailed indicates a judge call failure after retries.
	ErrScoringFailed = errors.New("relevance scoring failed")
)

// Judge scores a candidate text against a query.
type Judge interface {
	// Score returns a relevance score in [0,1], higher = more relevant.
	Score(ctx context.Context, query, text string) (float32, error)
}

// BatchJudge scores many candidates in one call. Judges that support
// batching implement this in addition to Judge; the reranker prefers it
// when available.
type BatchJudge interface {
	Judge

	// ScoreBatch returns one score per text, in input order.
	ScoreBatch(ctx context.Context, query string, texts []string) ([]float32, error)
}

// clamp bounds a score to [0,1]; judges may return slightly out-of-range
// values that would otherwise skew weighted combination.
func clamp(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
