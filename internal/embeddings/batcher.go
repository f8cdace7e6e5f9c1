package embeddings

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// DefaultBatchSize is the maximum number of texts sent to the provider in
// one call when no batch size is configured.
const DefaultBatchSize = 50

// BatchResult is the order-preserving outcome of an EmbedBatch call.
//
// Vectors has one slot per input text. A nil slot means the text was blank
// or its batch failed; such texts receive no embedding and must be excluded
// from storage rather than written as zero-vectors.
type BatchResult struct {
	// Vectors holds one embedding per input text, nil where none was
	// produced. len(Vectors) always equals len(texts).
	Vectors [][]float32

	// Embedded counts texts that received an embedding.
	Embedded int

	// Skipped counts blank texts filtered before calling the provider.
	Skipped int

	// Failed counts non-blank texts whose batch ultimately failed.
	Failed int

	// Err is the provider error that stopped batching, nil when every
	// batch succeeded. A non-nil Err marks the run as partial, not as a
	// failure of the overall document.
	Err error
}

// Complete reports whether every non-blank text received an embedding.
func (r *BatchResult) Complete() bool {
	return r.Failed == 0 && r.Err == nil
}

// Batcher converts chunk texts into vectors in bounded-size batches,
// tolerating empty entries and partial provider failures.
type Batcher struct {
	provider  Provider
	batchSize int
	logger    *zap.Logger
}

// NewBatcher creates a Batcher over the given provider.
// batchSize <= 0 uses DefaultBatchSize.
func NewBatcher(provider Provider, batchSize int, logger *zap.Logger) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batcher{
		provider:  provider,
		batchSize: batchSize,
		logger:    logger,
	}
}

// EmbedBatch embeds texts in groups of at most the configured batch size.
//
// Blank texts are filtered out before calling the provider and their
// positions remembered, so the result stays aligned with the input.
// Batches are issued sequentially; a batch that fails after the provider's
// retry budget stops further batches and the result carries what succeeded
// so far. The only error returned is context cancellation, in which case
// the partial result is still returned alongside it.
func (b *Batcher) EmbedBatch(ctx context.Context, texts []string) (*BatchResult, error) {
	result := &BatchResult{
		Vectors: make([][]float32, len(texts)),
	}
	if len(texts) == 0 {
		return result, nil
	}

	// Filter blanks, remembering original positions.
	positions := make([]int, 0, len(texts))
	payload := make([]string, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			result.Skipped++
			continue
		}
		positions = append(positions, i)
		payload = append(payload, text)
	}
	if len(payload) == 0 {
		return result, nil
	}

	for start := 0; start < len(payload); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			result.Failed = len(payload) - start
			result.Err = err
			return result, err
		}

		end := start + b.batchSize
		if end > len(payload) {
			end = len(payload)
		}

		vectors, err := b.provider.EmbedDocuments(ctx, payload[start:end])
		if err != nil {
			result.Failed = len(payload) - start
			result.Err = err
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			b.logger.Warn("embedding batch failed, keeping partial result",
				zap.Int("batch_start", start),
				zap.Int("batch_size", end-start),
				zap.Int("embedded_so_far", result.Embedded),
				zap.Error(err),
			)
			return result, nil
		}

		for i, vec := range vectors {
			result.Vectors[positions[start+i]] = vec
			result.Embedded++
		}
	}

	return result, nil
}
