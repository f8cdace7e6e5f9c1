package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var chromemTracer = otel.Tracer("docpipe.vectorstore.chromem")

// ChromemConfig holds configuration for the embedded chromem-go store.
type ChromemConfig struct {
	// Path is the persistence directory. Empty means in-memory only.
	Path string

	// Compress enables gzip compression of persisted documents.
	Compress bool
}

// ChromemStore is a Store implementation backed by embedded chromem-go.
//
// It needs no external service, which makes it the default for local use
// and for exercising the pipeline in tests. Vectors are always supplied by
// the caller; the store never embeds text itself.
type ChromemStore struct {
	db     *chromem.DB
	config ChromemConfig
	logger *zap.Logger

	// dimensions tracks the vector dimension per index, since chromem
	// does not record one at creation time.
	mu         sync.RWMutex
	dimensions map[string]int
}

// NewChromemStore creates a new ChromemStore.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
	}

	return &ChromemStore{
		db:         db,
		config:     config,
		logger:     logger,
		dimensions: make(map[string]int),
	}, nil
}

// Close is a no-op; chromem persists on write.
func (s *ChromemStore) Close() error {
	return nil
}

// noEmbeddingFunc rejects any attempt by chromem to embed text itself.
// The pipeline always supplies vectors explicitly.
func noEmbeddingFunc(context.Context, string) ([]float32, error) {
	return nil, errors.New("embeddings must be supplied by the caller")
}

// CreateIndex creates an index with the given vector dimension.
func (s *ChromemStore) CreateIndex(ctx context.Context, name string, dimension int) error {
	_, span := chromemTracer.Start(ctx, "ChromemStore.CreateIndex")
	defer span.End()

	span.SetAttributes(
		attribute.String("index", name),
		attribute.Int("dimension", dimension),
	)

	if err := ValidateIndexName(name); err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, dimension)
	}

	if _, err := s.db.CreateCollection(name, nil, noEmbeddingFunc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("creating index %s: %w", name, err)
	}

	s.mu.Lock()
	s.dimensions[name] = dimension
	s.mu.Unlock()

	span.SetStatus(codes.Ok, "success")
	return nil
}

// IndexExists reports whether an index exists.
func (s *ChromemStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := ValidateIndexName(name); err != nil {
		return false, err
	}
	return s.db.GetCollection(name, noEmbeddingFunc) != nil, nil
}

// IndexInfo returns metadata about an index.
func (s *ChromemStore) IndexInfo(ctx context.Context, name string) (*IndexInfo, error) {
	if err := ValidateIndexName(name); err != nil {
		return nil, err
	}

	collection := s.db.GetCollection(name, noEmbeddingFunc)
	if collection == nil {
		return nil, ErrIndexNotFound
	}

	s.mu.RLock()
	dimension := s.dimensions[name]
	s.mu.RUnlock()

	return &IndexInfo{
		Name:       name,
		PointCount: collection.Count(),
		Dimension:  dimension,
	}, nil
}

// Upsert writes entries into an index.
func (s *ChromemStore) Upsert(ctx context.Context, name string, entries []Entry) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Upsert")
	defer span.End()

	span.SetAttributes(
		attribute.String("index", name),
		attribute.Int("entry_count", len(entries)),
	)

	if err := ValidateIndexName(name); err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrEmptyEntries
	}

	collection := s.db.GetCollection(name, noEmbeddingFunc)
	if collection == nil {
		span.SetStatus(codes.Error, "index not found")
		return ErrIndexNotFound
	}

	docs := make([]chromem.Document, len(entries))
	for i, entry := range entries {
		content, _ := entry.Metadata["text"].(string)
		docs[i] = chromem.Document{
			ID:        entry.ID,
			Content:   content,
			Metadata:  metadataToString(entry.Metadata),
			Embedding: entry.Vector,
		}
	}

	// Concurrency of 1: embeddings are precomputed, nothing to parallelize.
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upserting %d entries to index %s: %w", len(entries), name, err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Query returns up to topK nearest neighbors of vector.
//
// topK is capped at the index size since chromem requires
// nResults <= document count.
func (s *ChromemStore) Query(ctx context.Context, name string, vector []float32, topK int, filter map[string]interface{}) ([]Candidate, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Query")
	defer span.End()

	span.SetAttributes(
		attribute.String("index", name),
		attribute.Int("top_k", topK),
	)

	if err := ValidateIndexName(name); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", ErrQueryFailed, topK)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector cannot be empty", ErrQueryFailed)
	}

	collection := s.db.GetCollection(name, noEmbeddingFunc)
	if collection == nil {
		span.SetStatus(codes.Error, "index not found")
		return nil, ErrIndexNotFound
	}

	count := collection.Count()
	if count == 0 {
		return []Candidate{}, nil
	}
	if topK > count {
		topK = count
	}

	results, err := collection.QueryEmbedding(ctx, vector, topK, metadataToString(filter), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying index %s: %w", name, err)
	}

	candidates := make([]Candidate, len(results))
	for i, r := range results {
		metadata := metadataFromString(r.Metadata)
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		if _, ok := metadata["text"]; !ok && r.Content != "" {
			metadata["text"] = r.Content
		}
		candidates[i] = Candidate{
			ID:       r.ID,
			Score:    r.Similarity,
			Metadata: metadata,
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(candidates)))
	span.SetStatus(codes.Ok, "success")
	return candidates, nil
}

// metadataToString converts pipeline metadata to chromem's string map.
func metadataToString(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}

	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = fmt.Sprintf("%d", val)
		case int64:
			result[k] = fmt.Sprintf("%d", val)
		case float64:
			result[k] = fmt.Sprintf("%f", val)
		case bool:
			result[k] = fmt.Sprintf("%t", val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// metadataFromString converts chromem's string map back to pipeline
// metadata. Values stay strings; chromem does not preserve types.
func metadataFromString(metadata map[string]string) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}
	return result
}

// Ensure both implementations satisfy Store.
var (
	_ Store = (*QdrantStore)(nil)
	_ Store = (*ChromemStore)(nil)
)
