package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docpipe/internal/chunking"
	"github.com/fyrsmithlabs/docpipe/internal/embeddings"
	"github.com/fyrsmithlabs/docpipe/internal/vectorstore"
)

// EmbeddingState summarizes how much of a document got embedded.
type EmbeddingState string

const (
	// EmbeddingFull means every non-blank chunk received an embedding.
	EmbeddingFull EmbeddingState = "full"

	// EmbeddingPartial means some chunks were embedded before the
	// provider failed; the embedded subset was stored.
	EmbeddingPartial EmbeddingState = "partial"

	// EmbeddingNone means no chunk received an embedding.
	EmbeddingNone EmbeddingState = "none"

	// EmbeddingSkipped means embedding was not requested.
	EmbeddingSkipped EmbeddingState = "skipped"
)

// Document is the indexing input.
type Document struct {
	// Text is the full document content.
	Text string

	// Metadata is attached to every chunk of the document.
	Metadata map[string]interface{}
}

// IndexOptions control one indexing run.
type IndexOptions struct {
	// Index is the target vector index name.
	Index string

	// Strategy selects the chunking strategy. Empty means recursive.
	Strategy chunking.Strategy

	// Params tune the chunker. Zero values take chunking defaults.
	Params chunking.Params

	// GenerateEmbeddings controls whether chunks are embedded and stored.
	// When false, indexing stops after chunking and reports the chunks.
	GenerateEmbeddings bool
}

// ChunkReport describes one chunk's outcome.
type ChunkReport struct {
	// ID is the generated chunk identifier.
	ID string

	// Index is the chunk's 0-based position in the document.
	Index int

	// Embedded reports whether the chunk received an embedding. Whether
	// embedded chunks reached the store is tracked by Report.Stored and
	// the run error, not per chunk.
	Embedded bool
}

// Report is the outcome of one indexing run.
type Report struct {
	// ChunkCount is the number of chunks the document produced.
	ChunkCount int

	// Chunks has one entry per chunk, in document order.
	Chunks []ChunkReport

	// EmbeddingState summarizes embedding coverage.
	EmbeddingState EmbeddingState

	// Stored is the number of chunks written to the vector store.
	Stored int

	// Dimension is the embedding dimension used for the index, 0 when
	// nothing was embedded.
	Dimension int

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// Indexer runs the document write path: chunk, embed, store.
type Indexer struct {
	chunker *chunking.Chunker
	batcher *embeddings.Batcher
	writer  *vectorstore.Writer
	logger  *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewIndexer creates an Indexer over the given stages.
func NewIndexer(chunker *chunking.Chunker, batcher *embeddings.Batcher, writer *vectorstore.Writer, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		chunker: chunker,
		batcher: batcher,
		writer:  writer,
		logger:  logger,
		metrics: NewMetrics(logger),
		tracer:  otel.Tracer("docpipe.pipeline.indexer"),
	}
}

// IndexDocument chunks the document, embeds the chunks, and upserts the
// embedded ones into the target index.
//
// The index dimension is pinned by the first produced embedding; a
// conflict with an existing index aborts before any write. Embedding
// failure partway through stores the embedded prefix and reports
// EmbeddingPartial rather than erroring. Cancellation returns the partial
// report alongside ctx.Err().
func (ix *Indexer) IndexDocument(ctx context.Context, doc Document, opts IndexOptions) (*Report, error) {
	start := time.Now()
	ctx, span := ix.tracer.Start(ctx, "pipeline.index",
		trace.WithAttributes(
			attribute.String("index", opts.Index),
			attribute.String("strategy", string(opts.Strategy)),
			attribute.Bool("generate_embeddings", opts.GenerateEmbeddings),
		),
	)
	defer span.End()

	report := &Report{EmbeddingState: EmbeddingSkipped}
	var runErr error
	defer func() {
		report.Duration = time.Since(start)
		ix.metrics.RecordIndex(ctx, opts.Index, report.EmbeddingState, report.ChunkCount, report.Duration, runErr)
		if runErr != nil {
			span.RecordError(runErr)
			span.SetStatus(codes.Error, runErr.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}()

	if err := vectorstore.ValidateIndexName(opts.Index); err != nil {
		runErr = err
		return report, runErr
	}

	chunks, err := ix.chunker.Chunk(ctx, doc.Text, doc.Metadata, opts.Strategy, opts.Params)
	if err != nil {
		runErr = fmt.Errorf("chunking document: %w", err)
		return report, runErr
	}

	report.ChunkCount = len(chunks)
	report.Chunks = make([]ChunkReport, len(chunks))
	for i, chunk := range chunks {
		report.Chunks[i] = ChunkReport{ID: chunk.ID, Index: chunk.Index}
	}
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	if !opts.GenerateEmbeddings {
		ix.logger.Debug("embedding generation disabled, stopping after chunking",
			zap.String("index", opts.Index),
			zap.Int("chunks", len(chunks)),
		)
		return report, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	batch, batchErr := ix.batcher.EmbedBatch(ctx, texts)
	report.EmbeddingState = stateFor(batch)
	for i := range report.Chunks {
		report.Chunks[i].Embedded = batch.Vectors[i] != nil
	}
	if batchErr != nil {
		// Cancellation: nothing was stored, surface the interruption
		// with the partial report.
		runErr = batchErr
		return report, runErr
	}

	stored, err := ix.store(ctx, opts.Index, chunks, batch, report)
	report.Stored = stored
	if err != nil {
		runErr = err
		return report, runErr
	}

	ix.logger.Info("indexed document",
		zap.String("index", opts.Index),
		zap.Int("chunks", report.ChunkCount),
		zap.Int("stored", report.Stored),
		zap.String("embedding_state", string(report.EmbeddingState)),
	)
	return report, nil
}

// store ensures the index and upserts the embedded chunks. Returns the
// number of chunks written.
func (ix *Indexer) store(ctx context.Context, index string, chunks []chunking.Chunk, batch *embeddings.BatchResult, report *Report) (int, error) {
	ids := make([]string, 0, batch.Embedded)
	vectors := make([][]float32, 0, batch.Embedded)
	metadata := make([]map[string]interface{}, 0, batch.Embedded)

	for i, vec := range batch.Vectors {
		if vec == nil {
			continue
		}
		md := make(map[string]interface{}, len(chunks[i].Metadata)+3)
		for k, v := range chunks[i].Metadata {
			md[k] = v
		}
		md["text"] = chunks[i].Text
		md["chunk_index"] = chunks[i].Index
		md["total_chunks"] = chunks[i].TotalChunks

		ids = append(ids, chunks[i].ID)
		vectors = append(vectors, vec)
		metadata = append(metadata, md)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	report.Dimension = len(vectors[0])
	if err := ix.writer.EnsureIndex(ctx, index, report.Dimension); err != nil {
		return 0, fmt.Errorf("ensuring index: %w", err)
	}
	if err := ix.writer.Upsert(ctx, index, ids, vectors, metadata); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}
	return len(ids), nil
}

// stateFor maps a batch outcome onto the report's embedding state.
func stateFor(batch *embeddings.BatchResult) EmbeddingState {
	switch {
	case batch.Embedded == 0:
		return EmbeddingNone
	case batch.Complete():
		return EmbeddingFull
	default:
		return EmbeddingPartial
	}
}
