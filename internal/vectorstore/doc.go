// Package vectorstore provides vector index storage for the pipeline.
//
// The Store interface is transport-agnostic; implementations exist for
// Qdrant (native gRPC client) and chromem-go (embedded, no external
// service). The Writer wraps a Store with idempotent index creation,
// dimension guarding, and metadata sanitization for the write path.
package vectorstore
