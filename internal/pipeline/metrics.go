package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/docpipe/internal/pipeline"

// Metrics holds pipeline-level metrics for indexing and search.
type Metrics struct {
	meter          metric.Meter
	logger         *zap.Logger
	indexDuration  metric.Float64Histogram
	chunksIndexed  metric.Int64Counter
	searchDuration metric.Float64Histogram
	searchResults  metric.Int64Histogram
	errors         metric.Int64Counter
}

// NewMetrics creates a new Metrics instance for the pipeline.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.indexDuration, err = m.meter.Float64Histogram(
		"docpipe.pipeline.index_duration_seconds",
		metric.WithDescription("Duration of document indexing in seconds, labeled by embedding state"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		m.logger.Warn("failed to create index duration histogram", zap.Error(err))
	}

	m.chunksIndexed, err = m.meter.Int64Counter(
		"docpipe.pipeline.chunks_indexed_total",
		metric.WithDescription("Total chunks produced by indexing, labeled by embedding state"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		m.logger.Warn("failed to create chunks counter", zap.Error(err))
	}

	m.searchDuration, err = m.meter.Float64Histogram(
		"docpipe.pipeline.search_duration_seconds",
		metric.WithDescription("Duration of search requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		m.logger.Warn("failed to create search duration histogram", zap.Error(err))
	}

	m.searchResults, err = m.meter.Int64Histogram(
		"docpipe.pipeline.search_results",
		metric.WithDescription("Number of results returned per search"),
		metric.WithUnit("{result}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 5, 10, 20, 50, 100),
	)
	if err != nil {
		m.logger.Warn("failed to create search results histogram", zap.Error(err))
	}

	m.errors, err = m.meter.Int64Counter(
		"docpipe.pipeline.errors_total",
		metric.WithDescription("Total pipeline errors by operation"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create errors counter", zap.Error(err))
	}
}

// RecordIndex records metrics for one indexing run.
func (m *Metrics) RecordIndex(ctx context.Context, index string, state EmbeddingState, chunks int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("index", index),
		attribute.String("embedding_state", string(state)),
	}

	if m.indexDuration != nil {
		m.indexDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if chunks > 0 && m.chunksIndexed != nil {
		m.chunksIndexed.Add(ctx, int64(chunks), metric.WithAttributes(attrs...))
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("index", index),
			attribute.String("operation", "index"),
		))
	}
}

// RecordSearch records metrics for one search request.
func (m *Metrics) RecordSearch(ctx context.Context, index string, results int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("index", index)}

	if m.searchDuration != nil {
		m.searchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err == nil && m.searchResults != nil {
		m.searchResults.Record(ctx, int64(results), metric.WithAttributes(attrs...))
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("index", index),
			attribute.String("operation", "search"),
		))
	}
}
