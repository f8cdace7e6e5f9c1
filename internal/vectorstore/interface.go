package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrIndexNotFound is returned when an index does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidIndexName indicates index name validation failure.
	ErrInvalidIndexName = errors.New("invalid index name")

	// ErrConnectionFailed indicates a connection failure to the store.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrDimensionMismatch indicates vectors whose dimension does not
	// match the index. Fatal: the write must abort before upsert.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEntryMismatch indicates ids, vectors, and metadata slices of
	// differing lengths passed to the write path.
	ErrEntryMismatch = errors.New("ids, vectors, and metadata lengths differ")

	// ErrEmptyEntries indicates an upsert with no entries.
	ErrEmptyEntries = errors.New("no entries to upsert")

	// ErrQueryFailed indicates a similarity query failure.
	ErrQueryFailed = errors.New("vector query failed")
)

// IndexInfo contains metadata about a vector index.
type IndexInfo struct {
	// Name is the index name.
	Name string `json:"name"`

	// PointCount is the number of vectors in the index.
	PointCount int `json:"point_count"`

	// Dimension is the dimensionality of vectors in this index.
	Dimension int `json:"dimension"`
}

// Entry is one vector with its identity and metadata, persisted in an index.
// Metadata always carries the chunk's original text under the "text" key so
// it can be returned on retrieval without a second read.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata map[string]interface{}
}

// Candidate is a similarity search hit.
type Candidate struct {
	// ID is the stored entry identifier.
	ID string

	// Score is the similarity score in [0,1] (higher = more similar).
	Score float32

	// Metadata is the stored entry metadata, including "text".
	Metadata map[string]interface{}
}

// Text returns the stored chunk text, empty when absent.
func (c Candidate) Text() string {
	if c.Metadata == nil {
		return ""
	}
	if text, ok := c.Metadata["text"].(string); ok {
		return text
	}
	return ""
}

// Store is the interface for vector index operations.
//
// Implementations own consistency of concurrent writes and reads; the
// pipeline treats upsert as idempotent-by-ID and issues no locks. All
// methods honor context cancellation.
type Store interface {
	// CreateIndex creates an index with the given vector dimension.
	CreateIndex(ctx context.Context, name string, dimension int) error

	// IndexExists reports whether an index exists.
	IndexExists(ctx context.Context, name string) (bool, error)

	// IndexInfo returns metadata about an index.
	// Returns ErrIndexNotFound if the index does not exist.
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)

	// Upsert writes entries into an index, overwriting entries with the
	// same ID.
	Upsert(ctx context.Context, name string, entries []Entry) error

	// Query returns up to topK nearest neighbors of vector, optionally
	// constrained by a metadata filter. Filter semantics are
	// store-specific; only metadata keys are constrained by the pipeline.
	Query(ctx context.Context, name string, vector []float32, topK int, filter map[string]interface{}) ([]Candidate, error)

	// Close closes the store connection and releases resources.
	Close() error
}
