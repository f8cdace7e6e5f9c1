// Package docpipe is a document indexing and semantic retrieval pipeline.
//
// A Pipeline chunks documents, embeds the chunks through a TEI-compatible
// embedding server, stores the vectors in an embedded (chromem) or remote
// (Qdrant) vector index, and answers queries with weighted multi-signal
// reranking.
//
//	p, err := docpipe.Open("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	report, err := p.IndexDocument(ctx, docpipe.Document{Text: text}, docpipe.IndexOptions{
//		Index:              "docs",
//		GenerateEmbeddings: true,
//	})
package docpipe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docpipe/internal/chunking"
	"github.com/fyrsmithlabs/docpipe/internal/config"
	"github.com/fyrsmithlabs/docpipe/internal/embeddings"
	"github.com/fyrsmithlabs/docpipe/internal/logging"
	"github.com/fyrsmithlabs/docpipe/internal/pipeline"
	"github.com/fyrsmithlabs/docpipe/internal/relevance"
	"github.com/fyrsmithlabs/docpipe/internal/reranker"
	"github.com/fyrsmithlabs/docpipe/internal/sanitize"
	"github.com/fyrsmithlabs/docpipe/internal/vectorstore"
)

// Document is a document to index.
type Document struct {
	// Text is the full document content.
	Text string

	// Metadata is attached to every chunk. Keys starting with '$' or
	// containing '.' are dropped before storage.
	Metadata map[string]interface{}
}

// IndexOptions control one indexing run.
type IndexOptions struct {
	// Index is the target index name. It is normalized to lowercase
	// letters, digits, and underscores ("My Docs" becomes "my_docs") and
	// truncated past 64 characters; use IndexNameFor to see the stored
	// name for an arbitrary source.
	Index string

	// Strategy is the chunking strategy name. Empty uses the configured
	// default; unknown names fall back to recursive with a logged warning.
	Strategy string

	// MaxSize overrides the configured maximum chunk size.
	MaxSize int

	// Overlap overrides the configured chunk overlap. Zero keeps the
	// configured default; a negative value requests no overlap.
	Overlap int

	// GenerateEmbeddings controls whether chunks are embedded and stored.
	GenerateEmbeddings bool
}

// ChunkInfo describes one chunk's outcome.
type ChunkInfo struct {
	ID       string
	Index    int
	Embedded bool
}

// Report is the outcome of one indexing run. EmbeddingState is one of
// "full", "partial", "none", or "skipped"; callers that require complete
// embedding coverage must check it, since partial provider outages do not
// fail the run.
type Report struct {
	ChunkCount     int
	Chunks         []ChunkInfo
	EmbeddingState string
	Stored         int
	Duration       time.Duration
}

// Weights blend the search ranking signals. The zero value uses the
// configured defaults.
type Weights struct {
	Semantic float64
	Vector   float64
	Position float64
}

// SearchOptions is one retrieval query.
type SearchOptions struct {
	// Index is the vector index to search, normalized the same way as
	// IndexOptions.Index.
	Index string

	// Query is the natural-language query text.
	Query string

	// TopK is the number of results to return. Zero uses the configured
	// default.
	TopK int

	// InitialTopK is the candidate oversample before reranking. Zero uses
	// the configured default; it is never below TopK.
	InitialTopK int

	// Weights blend the ranking signals.
	Weights Weights

	// Filter constrains candidates by metadata equality.
	Filter map[string]interface{}

	// Source restricts results to chunks whose "source" metadata equals
	// it. A "source" key in Filter takes precedence.
	Source string
}

// Result is one reranked search hit. Rank is 1-based.
type Result struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
	Score    float64
	Rank     int
}

// Pipeline is a configured document pipeline. It is safe for concurrent
// use.
type Pipeline struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider embeddings.Provider
	store    vectorstore.Store
	indexer  *pipeline.Indexer
	searcher *pipeline.Searcher
}

// Open loads configuration and builds a Pipeline.
//
// configPath selects the YAML config file; empty means
// ~/.config/docpipe/config.yaml. Environment variables with the DOCPIPE_
// prefix override the file.
func Open(configPath string) (*Pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	provider, err := embeddings.NewService(embeddings.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		MaxRetries: cfg.Embedding.MaxRetries,
		Timeout:    cfg.Embedding.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("building embedding provider: %w", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	judge, err := openJudge(cfg, logger)
	if err != nil {
		_ = provider.Close()
		_ = store.Close()
		return nil, err
	}

	return newPipeline(cfg, logger, provider, store, judge), nil
}

// newPipeline assembles a Pipeline from already-built stages.
func newPipeline(cfg *config.Config, logger *zap.Logger, provider embeddings.Provider, store vectorstore.Store, judge relevance.Judge) *Pipeline {
	rr := reranker.New(judge, logger)
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		store:    store,
		indexer: pipeline.NewIndexer(
			chunking.NewChunker(logger),
			embeddings.NewBatcher(provider, cfg.Embedding.BatchSize, logger),
			vectorstore.NewWriter(store, logger),
			logger,
		),
		searcher: pipeline.NewSearcher(provider, store, rr, logger),
	}
}

func openStore(cfg *config.Config, logger *zap.Logger) (vectorstore.Store, error) {
	switch cfg.VectorStore.Provider {
	case config.ProviderQdrant:
		store, err := vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
			Host:   cfg.VectorStore.Qdrant.Host,
			Port:   cfg.VectorStore.Qdrant.Port,
			APIKey: cfg.VectorStore.Qdrant.APIKey,
			UseTLS: cfg.VectorStore.Qdrant.UseTLS,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		return store, nil
	default:
		store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
			Path:     cfg.VectorStore.Chromem.Path,
			Compress: cfg.VectorStore.Chromem.Compress,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("opening chromem store: %w", err)
		}
		return store, nil
	}
}

func openJudge(cfg *config.Config, logger *zap.Logger) (relevance.Judge, error) {
	if cfg.Rerank.Judge == config.JudgeHTTP {
		judge, err := relevance.NewHTTPJudge(relevance.HTTPConfig{
			BaseURL: cfg.Rerank.BaseURL,
			APIKey:  cfg.Rerank.APIKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("building rerank judge: %w", err)
		}
		return judge, nil
	}
	return relevance.NewOverlapJudge(), nil
}

// IndexNameFor derives the index name docpipe would use for a document
// source and optional scope, for example
// IndexNameFor("github.com/acme/handbook", "docs") returns
// "github_com_acme_handbook_docs".
func IndexNameFor(source, scope string) string {
	return sanitize.IndexName(source, scope)
}

// indexName normalizes a caller-supplied index name. Empty stays empty
// so the pipeline's required-index validation still fires.
func indexName(name string) string {
	if name == "" {
		return ""
	}
	return sanitize.Identifier(name)
}

// IndexDocument chunks, embeds, and stores a document.
func (p *Pipeline) IndexDocument(ctx context.Context, doc Document, opts IndexOptions) (*Report, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = p.cfg.Chunking.Strategy
	}
	params := chunking.Params{
		MaxSize: p.cfg.Chunking.MaxSize,
		Overlap: p.cfg.Chunking.Overlap,
	}
	if opts.MaxSize > 0 {
		params.MaxSize = opts.MaxSize
	}
	if opts.Overlap > 0 {
		params.Overlap = opts.Overlap
	} else if opts.Overlap < 0 {
		params.Overlap = 0
	}

	report, err := p.indexer.IndexDocument(ctx,
		pipeline.Document{Text: doc.Text, Metadata: doc.Metadata},
		pipeline.IndexOptions{
			Index:              indexName(opts.Index),
			Strategy:           chunking.Strategy(strategy),
			Params:             params,
			GenerateEmbeddings: opts.GenerateEmbeddings,
		},
	)
	if report == nil {
		return nil, err
	}

	out := &Report{
		ChunkCount:     report.ChunkCount,
		Chunks:         make([]ChunkInfo, len(report.Chunks)),
		EmbeddingState: string(report.EmbeddingState),
		Stored:         report.Stored,
		Duration:       report.Duration,
	}
	for i, chunk := range report.Chunks {
		out.Chunks[i] = ChunkInfo{ID: chunk.ID, Index: chunk.Index, Embedded: chunk.Embedded}
	}
	return out, err
}

// Search returns the reranked top results for a query.
func (p *Pipeline) Search(ctx context.Context, opts SearchOptions) ([]Result, error) {
	weights := reranker.Weights(opts.Weights)
	if weights == (reranker.Weights{}) {
		weights = p.cfg.Rerank.Weights
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = p.cfg.Rerank.TopK
	}
	initialTopK := opts.InitialTopK
	if initialTopK <= 0 {
		initialTopK = p.cfg.Rerank.InitialTopK
	}

	base := vectorstore.NewFilterBuilder()
	if opts.Source != "" {
		base.With("source", opts.Source)
	}

	hits, err := p.searcher.Search(ctx, pipeline.SearchRequest{
		Index:       indexName(opts.Index),
		Query:       opts.Query,
		TopK:        topK,
		InitialTopK: initialTopK,
		Weights:     weights,
		Filter:      opts.Filter,
		BaseFilter:  base.Build(),
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			ID:       hit.ID,
			Text:     hit.Text,
			Metadata: hit.Metadata,
			Score:    hit.Score,
			Rank:     hit.Rank,
		}
	}
	return results, nil
}

// Close releases the provider and store connections and flushes the
// logger.
func (p *Pipeline) Close() error {
	var firstErr error
	if err := p.provider.Close(); err != nil {
		firstErr = err
	}
	if err := p.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := logging.Sync(p.logger); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
