package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("docpipe.vectorstore.qdrant")

// indexNamePattern validates index names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var indexNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// QdrantConfig holds configuration for the Qdrant gRPC client.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (NOT the HTTP REST port).
	// Default: 6334
	Port int

	// Distance is the similarity metric for vector search.
	// Options: Cosine (default), Euclid, Dot
	Distance qdrant.Distance

	// UseTLS enables TLS encryption for the gRPC connection.
	UseTLS bool

	// APIKey authenticates against Qdrant Cloud. Empty for local servers.
	APIKey string

	// MaxRetries is the maximum number of retry attempts for transient
	// failures. Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries.
	// Doubles on each retry. Default: 1 second
	RetryBackoff time.Duration

	// MaxMessageSize is the maximum gRPC message size in bytes.
	// Default: 50MB, sized for large document batches.
	MaxMessageSize int

	// CircuitBreakerThreshold is the number of failures before the
	// circuit opens. Default: 5
	CircuitBreakerThreshold int
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
	if c.CircuitBreakerThreshold == 0 {
		c.CircuitBreakerThreshold = 5
	}
	if c.Distance == 0 {
		c.Distance = qdrant.Distance_Cosine
	}
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	return nil
}

// ValidateIndexName validates an index name.
// Pattern: ^[a-z0-9_]{1,64}$
// Rejects: uppercase, special chars, path traversal, spaces.
func ValidateIndexName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: index name cannot be empty", ErrInvalidIndexName)
	}
	if !indexNamePattern.MatchString(name) {
		return fmt.Errorf("%w: index name must match pattern ^[a-z0-9_]{1,64}$, got %q", ErrInvalidIndexName, name)
	}
	return nil
}

// IsTransientError checks if an error is transient (should retry).
// Returns true for network timeouts and temporary unavailability.
// Returns false for invalid config, not found, permission denied.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// QdrantStore is a Store implementation using Qdrant's native gRPC client.
//
// The native gRPC transport (port 6334) uses binary protobuf encoding with
// no JSON payload limits, which matters when upserting large chunk batches.
type QdrantStore struct {
	client *qdrant.Client
	config QdrantConfig
	logger *zap.Logger

	// indexes caches index existence to avoid repeated checks.
	indexes sync.Map

	circuitBreaker struct {
		failures int
		lastFail time.Time
		mu       sync.Mutex
	}
}

// NewQdrantStore creates a new QdrantStore and verifies connectivity with a
// health check.
func NewQdrantStore(config QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if !config.UseTLS {
		logger.Warn("qdrant gRPC using plaintext, insecure for production")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		APIKey: config.APIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &QdrantStore{
		client: client,
		config: config,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.healthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("health check failed: %w", err)
	}

	return store, nil
}

// Close closes the Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// healthCheck performs a health check on the Qdrant connection.
func (s *QdrantStore) healthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "QdrantStore.HealthCheck")
	defer span.End()

	_, err := s.client.HealthCheck(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("health check failed: %w", err)
	}

	span.SetStatus(codes.Ok, "healthy")
	return nil
}

// retryOperation retries an operation with exponential backoff.
func (s *QdrantStore) retryOperation(ctx context.Context, operationName string, operation func() error) error {
	backoff := s.config.RetryBackoff

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			s.resetCircuitBreaker()
			return nil
		}

		if s.isCircuitOpen() {
			return fmt.Errorf("%s: circuit breaker open", operationName)
		}

		if !IsTransientError(err) {
			return fmt.Errorf("%s failed (permanent): %w", operationName, err)
		}

		s.recordFailure()

		if attempt == s.config.MaxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", operationName, s.config.MaxRetries, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", operationName, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil
}

func (s *QdrantStore) recordFailure() {
	s.circuitBreaker.mu.Lock()
	defer s.circuitBreaker.mu.Unlock()
	s.circuitBreaker.failures++
	s.circuitBreaker.lastFail = time.Now()
}

func (s *QdrantStore) resetCircuitBreaker() {
	s.circuitBreaker.mu.Lock()
	defer s.circuitBreaker.mu.Unlock()
	s.circuitBreaker.failures = 0
}

func (s *QdrantStore) isCircuitOpen() bool {
	s.circuitBreaker.mu.Lock()
	defer s.circuitBreaker.mu.Unlock()

	if s.circuitBreaker.failures >= s.config.CircuitBreakerThreshold {
		// Allow retry after 30 seconds.
		if time.Since(s.circuitBreaker.lastFail) > 30*time.Second {
			s.circuitBreaker.failures = 0
			return false
		}
		return true
	}
	return false
}

// CreateIndex creates an index with the given vector dimension.
func (s *QdrantStore) CreateIndex(ctx context.Context, name string, dimension int) error {
	ctx, span := tracer.Start(ctx, "QdrantStore.CreateIndex")
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

	err := s.retryOperation(ctx, "create_index", func() error {
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: s.config.Distance,
			}),
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("creating index %s: %w", name, err)
	}

	s.indexes.Store(name, true)

	span.SetStatus(codes.Ok, "success")
	return nil
}

// IndexExists reports whether an index exists.
func (s *QdrantStore) IndexExists(ctx context.Context, name string) (bool, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.IndexExists")
	defer span.End()

	span.SetAttributes(attribute.String("index", name))

	if err := ValidateIndexName(name); err != nil {
		return false, err
	}

	if _, ok := s.indexes.Load(name); ok {
		return true, nil
	}

	var exists bool
	err := s.retryOperation(ctx, "index_exists", func() error {
		info, err := s.client.GetCollectionInfo(ctx, name)
		if err != nil {
			st, ok := status.FromError(err)
			if ok && st.Code() == grpccodes.NotFound {
				exists = false
				return nil
			}
			return err
		}
		exists = info != nil
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("checking index %s: %w", name, err)
	}

	if exists {
		s.indexes.Store(name, true)
	}

	span.SetStatus(codes.Ok, "success")
	return exists, nil
}

// IndexInfo returns metadata about an index.
func (s *QdrantStore) IndexInfo(ctx context.Context, name string) (*IndexInfo, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.IndexInfo")
	defer span.End()

	span.SetAttributes(attribute.String("index", name))

	if err := ValidateIndexName(name); err != nil {
		return nil, err
	}

	var info *IndexInfo
	err := s.retryOperation(ctx, "index_info", func() error {
		collInfo, err := s.client.GetCollectionInfo(ctx, name)
		if err != nil {
			st, ok := status.FromError(err)
			if ok && st.Code() == grpccodes.NotFound {
				return ErrIndexNotFound
			}
			return err
		}
		pointCount := 0
		if collInfo.PointsCount != nil {
			pointCount = int(*collInfo.PointsCount)
		}
		dimension := int(collInfo.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
		info = &IndexInfo{
			Name:       name,
			PointCount: pointCount,
			Dimension:  dimension,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrIndexNotFound) {
			span.SetStatus(codes.Error, "index not found")
			return nil, ErrIndexNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("getting index info for %s: %w", name, err)
	}

	span.SetAttributes(attribute.Int("point_count", info.PointCount))
	span.SetStatus(codes.Ok, "success")
	return info, nil
}

// Upsert writes entries into an index.
func (s *QdrantStore) Upsert(ctx context.Context, name string, entries []Entry) error {
	ctx, span := tracer.Start(ctx, "QdrantStore.Upsert")
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

	points := make([]*qdrant.PointStruct, len(entries))
	for i, entry := range entries {
		payload := toQdrantPayload(entry.Metadata)
		payload["id"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: entry.ID}}

		// Qdrant point IDs must be UUIDs or integers. The pipeline's
		// chunk IDs are UUIDs already; anything else gets a generated
		// point ID with the original preserved in the payload.
		var pointID *qdrant.PointId
		if _, err := uuid.Parse(entry.ID); err == nil {
			pointID = qdrant.NewIDUUID(entry.ID)
		} else {
			pointID = qdrant.NewIDUUID(uuid.New().String())
		}

		points[i] = &qdrant.PointStruct{
			Id:      pointID,
			Vectors: qdrant.NewVectors(entry.Vector...),
			Payload: payload,
		}
	}

	err := s.retryOperation(ctx, "upsert", func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Points:         points,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upserting %d points to index %s: %w", len(points), name, err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Query returns up to topK nearest neighbors of vector.
func (s *QdrantStore) Query(ctx context.Context, name string, vector []float32, topK int, filter map[string]interface{}) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.Query")
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

	qdrantFilter := buildQdrantFilter(filter)

	var results []*qdrant.ScoredPoint
	err := s.retryOperation(ctx, "query", func() error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: name,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(topK)),
			WithPayload:    qdrant.NewWithPayload(true),
			Filter:         qdrantFilter,
		})
		if err != nil {
			return err
		}
		results = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying index %s: %w", name, err)
	}

	candidates := make([]Candidate, len(results))
	for i, point := range results {
		candidate := Candidate{Score: point.Score}
		if point.Payload != nil {
			candidate.Metadata = fromQdrantPayload(point.Payload)
			if id, ok := candidate.Metadata["id"].(string); ok {
				candidate.ID = id
			}
		}
		candidates[i] = candidate
	}

	span.SetAttributes(attribute.Int("result_count", len(candidates)))
	span.SetStatus(codes.Ok, "success")
	return candidates, nil
}

// buildQdrantFilter converts a metadata filter map to a Qdrant filter.
// Supports string, integer, and bool matches; other value types are ignored.
func buildQdrantFilter(filter map[string]interface{}) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		var match *qdrant.Match
		switch v := value.(type) {
		case string:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}}
		case int:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
		case int64:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: v}}
		case bool:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: v}}
		default:
			continue
		}
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   key,
					Match: match,
				},
			},
		})
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}
