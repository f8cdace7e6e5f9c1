package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/fyrsmithlabs/docpipe/internal/vectorstore"
)

// fakeProvider produces deterministic 4-dimensional embeddings so that
// identical texts always map to identical vectors. failFrom > 0 makes the
// Nth EmbedDocuments call (1-based) and all later calls fail.
type fakeProvider struct {
	calls    int
	failFrom int
	queryErr error
}

var errProviderDown = errors.New("embedding provider down")

func embedText(text string) []float32 {
	vec := make([]float32, 4)
	for i, r := range text {
		vec[i%4] += float32(r%13) + 1
	}
	return vec
}

func (p *fakeProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	p.calls++
	if p.failFrom > 0 && p.calls >= p.failFrom {
		return nil, errProviderDown
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedText(text)
	}
	return vectors, nil
}

func (p *fakeProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty query")
	}
	return embedText(text), nil
}

func (p *fakeProvider) Dimension() int { return 4 }
func (p *fakeProvider) Close() error   { return nil }

// recordingStore is an in-memory Store that records write and query calls.
type recordingStore struct {
	indexes      map[string]int
	upserts      map[string][]vectorstore.Entry
	lastTopK     int
	lastFilter   map[string]interface{}
	queryResults []vectorstore.Candidate
	queryErr     error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		indexes: make(map[string]int),
		upserts: make(map[string][]vectorstore.Entry),
	}
}

func (s *recordingStore) CreateIndex(_ context.Context, name string, dimension int) error {
	s.indexes[name] = dimension
	return nil
}

func (s *recordingStore) IndexExists(_ context.Context, name string) (bool, error) {
	_, ok := s.indexes[name]
	return ok, nil
}

func (s *recordingStore) IndexInfo(_ context.Context, name string) (*vectorstore.IndexInfo, error) {
	dimension, ok := s.indexes[name]
	if !ok {
		return nil, vectorstore.ErrIndexNotFound
	}
	return &vectorstore.IndexInfo{
		Name:       name,
		PointCount: len(s.upserts[name]),
		Dimension:  dimension,
	}, nil
}

func (s *recordingStore) Upsert(_ context.Context, name string, entries []vectorstore.Entry) error {
	if _, ok := s.indexes[name]; !ok {
		return vectorstore.ErrIndexNotFound
	}
	s.upserts[name] = append(s.upserts[name], entries...)
	return nil
}

func (s *recordingStore) Query(_ context.Context, name string, _ []float32, topK int, filter map[string]interface{}) ([]vectorstore.Candidate, error) {
	s.lastTopK = topK
	s.lastFilter = filter
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if _, ok := s.indexes[name]; !ok {
		return nil, vectorstore.ErrIndexNotFound
	}
	if len(s.queryResults) > topK {
		return s.queryResults[:topK], nil
	}
	return s.queryResults, nil
}

func (s *recordingStore) Close() error { return nil }

var _ vectorstore.Store = (*recordingStore)(nil)
