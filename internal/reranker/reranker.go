// Package reranker reorders retrieval candidates by blending a relevance
// judge score, the vector store similarity score, and the candidate's
// original retrieval position under configurable weights.
package reranker

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docpipe/internal/relevance"
	"github.com/fyrsmithlabs/docpipe/internal/vectorstore"
)

// Result is a reranked candidate. Rank is 1-based in the final ordering.
type Result struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
	Score    float64
	Rank     int
}

// Reranker blends judge, vector, and position signals into a final ranking.
type Reranker struct {
	judge  relevance.Judge
	logger *zap.Logger
}

// New creates a reranker using the given judge. A nil judge falls back to
// the term-overlap judge.
func New(judge relevance.Judge, logger *zap.Logger) *Reranker {
	if judge == nil {
		judge = relevance.NewOverlapJudge()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{judge: judge, logger: logger}
}

// Rerank scores candidates against the query and returns the top topK
// results ordered by blended score. topK <= 0 returns all candidates.
//
// Weights are normalized before use. Ties on the blended score are broken
// by the vector store score. If the judge fails, ranking proceeds with the
// semantic signal zeroed rather than failing the query.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []vectorstore.Candidate, weights Weights, topK int) ([]Result, error) {
	if len(candidates) == 0 {
		return []Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized, changed := weights.Normalize()
	if changed {
		r.logger.Debug("normalized rerank weights",
			zap.Float64("semantic", normalized.Semantic),
			zap.Float64("vector", normalized.Vector),
			zap.Float64("position", normalized.Position),
		)
	}

	semanticScores, err := r.scoreCandidates(ctx, query, candidates)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		r.logger.Warn("relevance judge failed, ranking without semantic signal",
			zap.String("query", query),
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		semanticScores = make([]float64, len(candidates))
	}

	total := len(candidates)
	scored := make([]scoredCandidate, total)
	for i, candidate := range candidates {
		positionScore := 1.0 - float64(i)/float64(total)
		vectorScore := clampUnit(float64(candidate.Score))

		scored[i] = scoredCandidate{
			candidate:   candidate,
			vectorScore: vectorScore,
			final: normalized.Semantic*semanticScores[i] +
				normalized.Vector*vectorScore +
				normalized.Position*positionScore,
			original: i,
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].final != scored[b].final {
			return scored[a].final > scored[b].final
		}
		if scored[a].vectorScore != scored[b].vectorScore {
			return scored[a].vectorScore > scored[b].vectorScore
		}
		return scored[a].original < scored[b].original
	})

	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}

	results := make([]Result, len(scored))
	for i, sc := range scored {
		results[i] = Result{
			ID:       sc.candidate.ID,
			Text:     sc.candidate.Text(),
			Metadata: sc.candidate.Metadata,
			Score:    sc.final,
			Rank:     i + 1,
		}
	}
	return results, nil
}

type scoredCandidate struct {
	candidate   vectorstore.Candidate
	vectorScore float64
	final       float64
	original    int
}

// scoreCandidates asks the judge for semantic scores, using the batch
// interface when the judge supports it.
func (r *Reranker) scoreCandidates(ctx context.Context, query string, candidates []vectorstore.Candidate) ([]float64, error) {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text()
	}

	if batcher, ok := r.judge.(relevance.BatchJudge); ok {
		raw, err := batcher.ScoreBatch(ctx, query, texts)
		if err != nil {
			return nil, err
		}
		if len(raw) != len(texts) {
			return nil, fmt.Errorf("judge returned %d scores for %d candidates", len(raw), len(texts))
		}
		scores := make([]float64, len(raw))
		for i, s := range raw {
			scores[i] = clampUnit(float64(s))
		}
		return scores, nil
	}

	scores := make([]float64, len(texts))
	for i, text := range texts {
		score, err := r.judge.Score(ctx, query, text)
		if err != nil {
			return nil, err
		}
		scores[i] = clampUnit(float64(score))
	}
	return scores, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
