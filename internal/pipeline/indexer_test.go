package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docpipe/internal/chunking"
	"github.com/fyrsmithlabs/docpipe/internal/embeddings"
	"github.com/fyrsmithlabs/docpipe/internal/vectorstore"
)

func newIndexer(provider embeddings.Provider, store vectorstore.Store, batchSize int) *Indexer {
	return NewIndexer(
		chunking.NewChunker(nil),
		embeddings.NewBatcher(provider, batchSize, nil),
		vectorstore.NewWriter(store, nil),
		nil,
	)
}

func TestIndexStoresEmbeddedChunks(t *testing.T) {
	store := newRecordingStore()
	ix := newIndexer(&fakeProvider{}, store, 0)

	doc := Document{
		Text:     "First sentence about vectors. Second sentence about storage. Third sentence about search.",
		Metadata: map[string]interface{}{"source": "unit"},
	}
	report, err := ix.IndexDocument(context.Background(), doc, IndexOptions{
		Index:              "docs",
		Strategy:           chunking.StrategySentence,
		GenerateEmbeddings: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.ChunkCount)
	assert.Equal(t, EmbeddingFull, report.EmbeddingState)
	assert.Equal(t, 3, report.Stored)
	assert.Equal(t, 4, report.Dimension)
	assert.Positive(t, report.Duration)

	require.Len(t, store.upserts["docs"], 3)
	for i, entry := range store.upserts["docs"] {
		assert.Equal(t, report.Chunks[i].ID, entry.ID)
		assert.True(t, report.Chunks[i].Embedded)
		assert.Len(t, entry.Vector, 4)
		assert.Equal(t, "unit", entry.Metadata["source"])
		assert.NotEmpty(t, entry.Metadata["text"], "stored metadata must carry chunk text")
		assert.Equal(t, i, entry.Metadata["chunk_index"])
		assert.Equal(t, 3, entry.Metadata["total_chunks"])
	}
	assert.Equal(t, 4, store.indexes["docs"], "index dimension pinned by first embedding")
}

func TestIndexWithoutEmbeddings(t *testing.T) {
	store := newRecordingStore()
	ix := newIndexer(&fakeProvider{}, store, 0)

	report, err := ix.IndexDocument(context.Background(), Document{Text: "some document text"}, IndexOptions{
		Index: "docs",
	})
	require.NoError(t, err)

	assert.Equal(t, EmbeddingSkipped, report.EmbeddingState)
	assert.Equal(t, 1, report.ChunkCount)
	assert.Zero(t, report.Stored)
	assert.Zero(t, report.Dimension)
	assert.Empty(t, store.indexes, "no index created when embeddings are skipped")
	assert.False(t, report.Chunks[0].Embedded)
	assert.NotEmpty(t, report.Chunks[0].ID)
}

func TestIndexPartialEmbeddingStoresPrefix(t *testing.T) {
	store := newRecordingStore()
	// Batch size 1 and failure from the third provider call: two chunks
	// embed, the rest fail.
	ix := newIndexer(&fakeProvider{failFrom: 3}, store, 1)

	doc := Document{Text: "Alpha sentence one. Beta sentence two. Gamma sentence three. Delta sentence four."}
	report, err := ix.IndexDocument(context.Background(), doc, IndexOptions{
		Index:              "docs",
		Strategy:           chunking.StrategySentence,
		GenerateEmbeddings: true,
	})
	require.NoError(t, err, "partial embedding is not a failure")

	assert.Equal(t, 4, report.ChunkCount)
	assert.Equal(t, EmbeddingPartial, report.EmbeddingState)
	assert.Equal(t, 2, report.Stored)
	require.Len(t, store.upserts["docs"], 2)

	assert.True(t, report.Chunks[0].Embedded)
	assert.True(t, report.Chunks[1].Embedded)
	assert.False(t, report.Chunks[2].Embedded)
	assert.False(t, report.Chunks[3].Embedded)
}

func TestIndexNoEmbeddingsProduced(t *testing.T) {
	store := newRecordingStore()
	ix := newIndexer(&fakeProvider{failFrom: 1}, store, 0)

	report, err := ix.IndexDocument(context.Background(), Document{Text: "document text"}, IndexOptions{
		Index:              "docs",
		GenerateEmbeddings: true,
	})
	require.NoError(t, err)

	assert.Equal(t, EmbeddingNone, report.EmbeddingState)
	assert.Zero(t, report.Stored)
	assert.Empty(t, store.indexes, "no index created when nothing embedded")
}

func TestIndexDimensionMismatchAborts(t *testing.T) {
	store := newRecordingStore()
	store.indexes["docs"] = 768

	ix := newIndexer(&fakeProvider{}, store, 0)
	report, err := ix.IndexDocument(context.Background(), Document{Text: "document text"}, IndexOptions{
		Index:              "docs",
		GenerateEmbeddings: true,
	})
	require.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
	assert.Zero(t, report.Stored)
	assert.Empty(t, store.upserts["docs"], "mismatch must abort before any write")
	for _, chunk := range report.Chunks {
		assert.True(t, chunk.Embedded, "embedding succeeded even though storage aborted")
	}
}

func TestIndexEmptyDocument(t *testing.T) {
	ix := newIndexer(&fakeProvider{}, newRecordingStore(), 0)

	_, err := ix.IndexDocument(context.Background(), Document{Text: "   "}, IndexOptions{Index: "docs"})
	require.ErrorIs(t, err, chunking.ErrEmptyDocument)
}

func TestIndexInvalidIndexName(t *testing.T) {
	ix := newIndexer(&fakeProvider{}, newRecordingStore(), 0)

	_, err := ix.IndexDocument(context.Background(), Document{Text: "text"}, IndexOptions{Index: "Bad Name"})
	require.ErrorIs(t, err, vectorstore.ErrInvalidIndexName)
}

func TestIndexCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix := newIndexer(&fakeProvider{}, newRecordingStore(), 0)
	_, err := ix.IndexDocument(ctx, Document{Text: "text"}, IndexOptions{Index: "docs", GenerateEmbeddings: true})
	require.ErrorIs(t, err, context.Canceled)
}

func TestIndexLongDocumentManyChunks(t *testing.T) {
	store := newRecordingStore()
	ix := newIndexer(&fakeProvider{}, store, 0)

	doc := Document{Text: strings.Repeat("Paragraph of filler text to force splitting.\n\n", 200)}
	report, err := ix.IndexDocument(context.Background(), doc, IndexOptions{
		Index:              "docs",
		Params:             chunking.Params{MaxSize: 200, Overlap: 20},
		GenerateEmbeddings: true,
	})
	require.NoError(t, err)

	assert.Greater(t, report.ChunkCount, 10)
	assert.Equal(t, EmbeddingFull, report.EmbeddingState)
	assert.Equal(t, report.ChunkCount, report.Stored)
}
