// Package config provides configuration loading for docpipe.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/docpipe/internal/chunking"
	"github.com/fyrsmithlabs/docpipe/internal/reranker"
)

// Config is the top-level docpipe configuration.
type Config struct {
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Chunking    ChunkingConfig    `koanf:"chunking"`
	Rerank      RerankConfig      `koanf:"rerank"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// BaseURL is the TEI-compatible embedding server URL.
	BaseURL string `koanf:"base_url"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// APIKey is the bearer token (optional for local TEI).
	APIKey string `koanf:"api_key"`

	// BatchSize is the maximum texts per embedding request.
	BatchSize int `koanf:"batch_size"`

	// MaxRetries is the retry budget for transient failures.
	MaxRetries int `koanf:"max_retries"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Provider is "chromem" (embedded, default) or "qdrant".
	Provider string `koanf:"provider"`

	Chromem ChromemConfig `koanf:"chromem"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig configures the embedded chromem store.
type ChromemConfig struct {
	// Path is the persistence directory. Empty means in-memory only.
	Path string `koanf:"path"`

	// Compress enables gzip compression of persisted documents.
	Compress bool `koanf:"compress"`
}

// QdrantConfig configures the qdrant gRPC client.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	APIKey string `koanf:"api_key"`
	UseTLS bool   `koanf:"use_tls"`
}

// ChunkingConfig sets default chunking behavior; per-document options
// override it.
type ChunkingConfig struct {
	// Strategy is the default chunking strategy name.
	Strategy string `koanf:"strategy"`

	// MaxSize is the default maximum chunk size in characters.
	MaxSize int `koanf:"max_size"`

	// Overlap is the default chunk overlap in characters.
	Overlap int `koanf:"overlap"`
}

// RerankConfig configures the retrieval reranker.
type RerankConfig struct {
	// Judge is "overlap" (default, no external service) or "http".
	Judge string `koanf:"judge"`

	// BaseURL is the rerank server URL, required when Judge is "http".
	BaseURL string `koanf:"base_url"`

	// APIKey is the bearer token for the rerank server.
	APIKey string `koanf:"api_key"`

	// Weights blend the ranking signals.
	Weights reranker.Weights `koanf:"weights"`

	// TopK is the default number of search results.
	TopK int `koanf:"top_k"`

	// InitialTopK is the default candidate oversample before reranking.
	InitialTopK int `koanf:"initial_top_k"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// Vector store provider names.
const (
	ProviderChromem = "chromem"
	ProviderQdrant  = "qdrant"
)

// Rerank judge names.
const (
	JudgeOverlap = "overlap"
	JudgeHTTP    = "http"
)

// Default returns a Config with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:8080"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 50
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}

	// Chromem is the default store: embedded, no external deps.
	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = ProviderChromem
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}

	if cfg.Chunking.Strategy == "" {
		cfg.Chunking.Strategy = string(chunking.StrategyRecursive)
	}
	if cfg.Chunking.MaxSize == 0 {
		cfg.Chunking.MaxSize = chunking.DefaultMaxSize
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = chunking.DefaultOverlap
	}

	if cfg.Rerank.Judge == "" {
		cfg.Rerank.Judge = JudgeOverlap
	}
	if cfg.Rerank.Weights == (reranker.Weights{}) {
		cfg.Rerank.Weights = reranker.DefaultWeights()
	}
	if cfg.Rerank.TopK == 0 {
		cfg.Rerank.TopK = 10
	}
	if cfg.Rerank.InitialTopK == 0 {
		cfg.Rerank.InitialTopK = 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	switch c.VectorStore.Provider {
	case ProviderChromem, ProviderQdrant:
	default:
		return fmt.Errorf("invalid vectorstore provider %q (expected %s or %s)",
			c.VectorStore.Provider, ProviderChromem, ProviderQdrant)
	}

	if c.VectorStore.Provider == ProviderQdrant {
		if c.VectorStore.Qdrant.Host == "" {
			return fmt.Errorf("qdrant host is required")
		}
		if c.VectorStore.Qdrant.Port <= 0 || c.VectorStore.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid qdrant port %d", c.VectorStore.Qdrant.Port)
		}
	}

	if _, known := chunking.ParseStrategy(c.Chunking.Strategy); !known {
		return fmt.Errorf("unknown chunking strategy %q", c.Chunking.Strategy)
	}

	switch c.Rerank.Judge {
	case JudgeOverlap:
	case JudgeHTTP:
		if c.Rerank.BaseURL == "" {
			return fmt.Errorf("rerank base_url is required when judge is %q", JudgeHTTP)
		}
	default:
		return fmt.Errorf("invalid rerank judge %q (expected %s or %s)",
			c.Rerank.Judge, JudgeOverlap, JudgeHTTP)
	}

	if c.Rerank.TopK < 0 || c.Rerank.InitialTopK < 0 {
		return fmt.Errorf("rerank top_k and initial_top_k must not be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}

	return nil
}
