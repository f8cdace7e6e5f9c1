package chunking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"
)

// Chunker splits document text into ordered chunks per a selected strategy.
//
// Chunkers are stateless and safe for concurrent use. Strategies that split
// on structural boundaries (recursive, markdown, html, json, latex, token)
// delegate to langchaingo text splitters with strategy-specific separators;
// character, sentence, and semantic-markdown splitting is implemented here.
type Chunker struct {
	logger *zap.Logger
}

// NewChunker creates a new Chunker. A nil logger defaults to a no-op logger.
func NewChunker(logger *zap.Logger) *Chunker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunker{logger: logger}
}

// Chunk splits text into ordered, non-empty chunks.
//
// Shared metadata (strategy, max_size, overlap, processed_at) is attached to
// every chunk in addition to the document-level metadata. Chunk IDs are
// generated UUIDs, unique within the run. A document shorter than
// Params.MaxSize yields a single chunk (sentence strategy excepted, which
// emits one chunk per sentence).
//
// Unknown strategy names fall back to StrategyRecursive with a logged
// warning rather than erroring.
func (c *Chunker) Chunk(ctx context.Context, text string, meta map[string]interface{}, strategy Strategy, params Params) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	params.ApplyDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	resolved, known := ParseStrategy(string(strategy))
	if !known {
		c.logger.Warn("unknown chunking strategy, falling back to recursive",
			zap.String("requested", string(strategy)),
			zap.String("fallback", string(StrategyRecursive)),
		)
	}

	spans, err := c.split(text, resolved, params)
	if err != nil {
		return nil, fmt.Errorf("splitting text with strategy %s: %w", resolved, err)
	}

	// Drop empty spans so every chunk carries content.
	filtered := spans[:0]
	for _, s := range spans {
		if strings.TrimSpace(s) != "" {
			filtered = append(filtered, s)
		}
	}
	spans = filtered

	processedAt := time.Now().UTC().Format(time.RFC3339)
	chunks := make([]Chunk, len(spans))
	for i, span := range spans {
		md := make(map[string]interface{}, len(meta)+4)
		for k, v := range meta {
			md[k] = v
		}
		md["chunk_strategy"] = string(resolved)
		md["chunk_max_size"] = params.MaxSize
		md["chunk_overlap"] = params.Overlap
		md["processed_at"] = processedAt

		chunks[i] = Chunk{
			ID:          uuid.New().String(),
			Text:        span,
			Metadata:    md,
			Index:       i,
			TotalChunks: len(spans),
		}
	}

	c.logger.Debug("chunked document",
		zap.String("strategy", string(resolved)),
		zap.Int("chunks", len(chunks)),
		zap.Int("max_size", params.MaxSize),
		zap.Int("overlap", params.Overlap),
	)
	return chunks, nil
}

// split applies the strategy's split rule and returns ordered text spans.
func (c *Chunker) split(text string, strategy Strategy, params Params) ([]string, error) {
	switch strategy {
	case StrategyCharacter:
		return splitCharacters(text, params.MaxSize, params.Overlap), nil
	case StrategySentence:
		return splitSentences(text, params.MaxSize, params.SentenceTerminators), nil
	case StrategySemanticMarkdown:
		return splitSemanticMarkdown(text, params)
	case StrategyToken:
		splitter := textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(params.MaxSize),
			textsplitter.WithChunkOverlap(params.Overlap),
			textsplitter.WithEncodingName(params.EncodingName),
		)
		return splitter.SplitText(text)
	default:
		return recursiveSplit(text, strategySeparators(strategy, params), params)
	}
}

// recursiveSplit runs langchaingo's recursive character splitter with the
// given separator hierarchy.
func recursiveSplit(text string, separators []string, params Params) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(params.MaxSize),
		textsplitter.WithChunkOverlap(params.Overlap),
		textsplitter.WithSeparators(separators),
	)
	return splitter.SplitText(text)
}

// strategySeparators returns the separator hierarchy for boundary-based
// strategies. Caller-supplied separators win for the recursive strategy.
func strategySeparators(strategy Strategy, params Params) []string {
	if strategy == StrategyRecursive && len(params.Separators) > 0 {
		return params.Separators
	}
	switch strategy {
	case StrategyMarkdown:
		return markdownSeparatorsFor(params.HeaderMarkers)
	case StrategyHTML:
		return htmlSeparators
	case StrategyJSON:
		return jsonSeparators
	case StrategyLaTeX:
		return latexSeparators
	default:
		return recursiveSeparators
	}
}
