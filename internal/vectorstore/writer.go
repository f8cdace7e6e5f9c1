package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/docpipe/internal/sanitize"
	"go.uber.org/zap"
)

// Writer manages index creation and the vector write path.
//
// EnsureIndex is idempotent and guards the pipeline's central invariant:
// every vector written to an index has the index's dimension. A dimension
// mismatch aborts the write before upsert; it is a correctness bug, not a
// best-effort degradation.
type Writer struct {
	store  Store
	logger *zap.Logger

	// ensured caches index name -> dimension for indexes this writer
	// has already verified, skipping repeat store round-trips.
	mu      sync.Mutex
	ensured map[string]int
}

// NewWriter creates a Writer over the given store.
func NewWriter(store Store, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		store:   store,
		logger:  logger,
		ensured: make(map[string]int),
	}
}

// EnsureIndex makes sure an index of the given dimension exists.
//
// If the index already exists with the same dimension this is a no-op.
// An existing index with a different dimension returns
// ErrDimensionMismatch. Calling twice with the same name and dimension
// never surfaces a duplicate-creation error.
func (w *Writer) EnsureIndex(ctx context.Context, name string, dimension int) error {
	if err := ValidateIndexName(name); err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, dimension)
	}

	w.mu.Lock()
	known, ok := w.ensured[name]
	w.mu.Unlock()
	if ok {
		if known != dimension {
			return fmt.Errorf("%w: index %s has dimension %d, got vectors of dimension %d",
				ErrDimensionMismatch, name, known, dimension)
		}
		return nil
	}

	exists, err := w.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking index %s: %w", name, err)
	}

	if exists {
		info, err := w.store.IndexInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("inspecting index %s: %w", name, err)
		}
		// Dimension 0 means the store could not report one; trust the
		// caller rather than refuse the write.
		if info.Dimension != 0 && info.Dimension != dimension {
			return fmt.Errorf("%w: index %s has dimension %d, got vectors of dimension %d",
				ErrDimensionMismatch, name, info.Dimension, dimension)
		}
	} else {
		if err := w.store.CreateIndex(ctx, name, dimension); err != nil {
			return fmt.Errorf("creating index %s: %w", name, err)
		}
		w.logger.Info("created vector index",
			zap.String("index", name),
			zap.Int("dimension", dimension),
		)
	}

	w.mu.Lock()
	w.ensured[name] = dimension
	w.mu.Unlock()
	return nil
}

// Upsert writes ids, vectors, and metadata into an index.
//
// The three slices must have equal lengths. Every vector must match the
// ensured dimension. Metadata is sanitized at this boundary: keys starting
// with '$' or containing '.' are dropped before storage.
func (w *Writer) Upsert(ctx context.Context, name string, ids []string, vectors [][]float32, metadata []map[string]interface{}) error {
	if len(ids) != len(vectors) || len(ids) != len(metadata) {
		return fmt.Errorf("%w: ids=%d vectors=%d metadata=%d",
			ErrEntryMismatch, len(ids), len(vectors), len(metadata))
	}
	if len(ids) == 0 {
		return ErrEmptyEntries
	}

	w.mu.Lock()
	dimension, ensured := w.ensured[name]
	w.mu.Unlock()

	entries := make([]Entry, len(ids))
	for i := range ids {
		if ensured && len(vectors[i]) != dimension {
			return fmt.Errorf("%w: entry %s has dimension %d, index %s expects %d",
				ErrDimensionMismatch, ids[i], len(vectors[i]), name, dimension)
		}
		entries[i] = Entry{
			ID:       ids[i],
			Vector:   vectors[i],
			Metadata: sanitize.Metadata(metadata[i]),
		}
	}

	if err := w.store.Upsert(ctx, name, entries); err != nil {
		return fmt.Errorf("upserting to index %s: %w", name, err)
	}

	w.logger.Debug("upserted vectors",
		zap.String("index", name),
		zap.Int("count", len(entries)),
	)
	return nil
}
