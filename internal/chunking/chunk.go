package chunking

// Chunk is a contiguous slice of a document's text, sized for embedding.
type Chunk struct {
	// ID uniquely identifies the chunk within one indexing run.
	// Generated by the chunker, never caller-supplied.
	ID string

	// Text is the chunk content. Always non-empty.
	Text string

	// Metadata merges document metadata with shared run metadata
	// (strategy, max_size, overlap, processed_at).
	Metadata map[string]interface{}

	// Index is the 0-based position of this chunk in the original document.
	Index int

	// TotalChunks is the number of chunks produced from the document.
	// Together with Index it lets a consumer reconstruct original order.
	TotalChunks int
}
