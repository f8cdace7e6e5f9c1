// Package pipeline wires chunking, embedding, vector storage, and
// reranking into the two top-level document operations: indexing and
// search.
//
// The Indexer turns a document into chunks, embeds them in batches, and
// upserts the embedded chunks into a vector index whose dimension is
// pinned by the first embedding. Embedding is best-effort per chunk:
// a provider outage mid-document stores what was embedded and reports
// the run as partial instead of failing it. Dimension mismatches are the
// exception; they abort before any write.
//
// The Searcher embeds the query, retrieves an oversampled candidate set
// from the store, and reranks it with blended semantic, vector, and
// position signals. Unlike indexing, retrieval fails closed: an
// embedding or store error returns the error, never silently empty
// results.
package pipeline
