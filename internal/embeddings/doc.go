// Package embeddings provides embedding generation for the indexing and
// retrieval pipeline.
//
// A Provider turns text into fixed-dimension float vectors. The Batcher
// wraps a Provider with bounded-size batching, blank-text filtering, and
// partial-failure tolerance: a chunked-but-unembedded document is valid
// output, not an error state.
package embeddings
