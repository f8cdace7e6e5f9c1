package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docpipe/internal/embeddings"
	"github.com/fyrsmithlabs/docpipe/internal/reranker"
	"github.com/fyrsmithlabs/docpipe/internal/vectorstore"
)

const (
	// DefaultTopK is the number of results returned when unset.
	DefaultTopK = 10

	// DefaultInitialTopK is the candidate oversample fetched from the
	// store before reranking, when unset.
	DefaultInitialTopK = 20
)

// SearchRequest is one retrieval query.
type SearchRequest struct {
	// Index is the vector index to search.
	Index string

	// Query is the natural-language query text.
	Query string

	// TopK is the number of results to return. Default: DefaultTopK.
	TopK int

	// InitialTopK is how many candidates to fetch from the store before
	// reranking. Default: DefaultInitialTopK, never below TopK.
	InitialTopK int

	// Weights blend the reranking signals. Zero value uses defaults.
	Weights reranker.Weights

	// Filter constrains candidates by metadata equality.
	Filter map[string]interface{}

	// BaseFilter is merged under Filter before querying the store;
	// Filter wins on conflicting keys.
	BaseFilter map[string]interface{}
}

// applyDefaults resolves TopK and InitialTopK.
func (r *SearchRequest) applyDefaults() {
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
	if r.InitialTopK <= 0 {
		r.InitialTopK = DefaultInitialTopK
	}
	if r.InitialTopK < r.TopK {
		r.InitialTopK = r.TopK
	}
}

// validate checks request fields that have no usable default.
func (r SearchRequest) validate() error {
	if err := vectorstore.ValidateIndexName(r.Index); err != nil {
		return err
	}
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query cannot be empty", embeddings.ErrEmptyInput)
	}
	return nil
}

// Searcher runs the retrieval path: embed the query, fetch candidates,
// rerank.
type Searcher struct {
	provider embeddings.Provider
	store    vectorstore.Store
	reranker *reranker.Reranker
	logger   *zap.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// NewSearcher creates a Searcher over the given stages.
func NewSearcher(provider embeddings.Provider, store vectorstore.Store, rr *reranker.Reranker, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rr == nil {
		rr = reranker.New(nil, logger)
	}
	return &Searcher{
		provider: provider,
		store:    store,
		reranker: rr,
		logger:   logger,
		metrics:  NewMetrics(logger),
		tracer:   otel.Tracer("docpipe.pipeline.searcher"),
	}
}

// Search returns the reranked top results for the query.
//
// Retrieval fails closed: a query embedding or store error is returned as
// an error, never as silently empty results. An index with no matching
// candidates returns an empty slice without invoking the reranker's
// judge.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) ([]reranker.Result, error) {
	start := time.Now()
	req.applyDefaults()

	ctx, span := s.tracer.Start(ctx, "pipeline.search",
		trace.WithAttributes(
			attribute.String("index", req.Index),
			attribute.Int("top_k", req.TopK),
			attribute.Int("initial_top_k", req.InitialTopK),
		),
	)
	defer span.End()

	var results []reranker.Result
	var runErr error
	defer func() {
		s.metrics.RecordSearch(ctx, req.Index, len(results), time.Since(start), runErr)
		if runErr != nil {
			span.RecordError(runErr)
			span.SetStatus(codes.Error, runErr.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}()

	if err := req.validate(); err != nil {
		runErr = err
		return nil, runErr
	}

	queryVector, err := s.provider.EmbedQuery(ctx, req.Query)
	if err != nil {
		runErr = fmt.Errorf("embedding query: %w", err)
		return nil, runErr
	}

	filter := vectorstore.MergeFilters(req.BaseFilter, req.Filter)
	candidates, err := s.store.Query(ctx, req.Index, queryVector, req.InitialTopK, filter)
	if err != nil {
		runErr = fmt.Errorf("querying index %s: %w", req.Index, err)
		return nil, runErr
	}
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	if len(candidates) == 0 {
		return []reranker.Result{}, nil
	}

	results, err = s.reranker.Rerank(ctx, req.Query, candidates, req.Weights, req.TopK)
	if err != nil {
		runErr = fmt.Errorf("reranking candidates: %w", err)
		return nil, runErr
	}

	s.logger.Debug("search completed",
		zap.String("index", req.Index),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)
	return results, nil
}
