package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// envPrefix namespaces docpipe environment variables.
	envPrefix = "DOCPIPE_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DOCPIPE_EMBEDDING_BASE_URL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// configPath selects the YAML file; empty means ~/.config/docpipe/config.yaml.
// A missing file is not an error, the defaults and environment still apply.
// Files larger than 1MB are rejected.
//
// Environment variables map to config keys by stripping the DOCPIPE_
// prefix, lowercasing, and splitting section from field on the first
// underscore:
//
//	DOCPIPE_EMBEDDING_BASE_URL     -> embedding.base_url
//	DOCPIPE_VECTORSTORE_PROVIDER   -> vectorstore.provider
//	DOCPIPE_VECTORSTORE_QDRANT_HOST -> vectorstore.qdrant.host
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "docpipe", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		// Open once and read through the descriptor to avoid a
		// stat/read race.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// subsections that nest one level deeper than section.field.
var nestedSections = []string{"qdrant", "chromem", "weights"}

// envTransform maps an environment variable name to a config key.
// The first underscore separates section from field; known subsections
// nest one level deeper.
func envTransform(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}

	section, field := parts[0], parts[1]
	for _, sub := range nestedSections {
		if strings.HasPrefix(field, sub+"_") {
			field = sub + "." + strings.TrimPrefix(field, sub+"_")
			break
		}
	}
	return section + "." + field
}
