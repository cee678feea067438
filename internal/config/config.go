// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package config loads and validates Playwise configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an
// optional YAML file, then environment variables with highest priority.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Playwise server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Session   SessionConfig   `koanf:"session"`
	Recommend RecommendConfig `koanf:"recommend"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Host is the bind address. Default: 0.0.0.0
	Host string `koanf:"host"`
	// Port is the HTTP listen port. Default: 8480
	Port int `koanf:"port"`
	// Timeout is the per-request budget. Default: 30s
	Timeout time.Duration `koanf:"timeout"`
	// CORSOrigins lists allowed CORS origins. Default: ["*"]
	CORSOrigins []string `koanf:"cors_origins"`
	// RateLimitReqs is the allowed requests per window per IP. Default: 100
	RateLimitReqs int `koanf:"rate_limit_reqs"`
	// RateLimitWindow is the rate-limit window. Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// CatalogConfig controls the game catalog store.
type CatalogConfig struct {
	// CSVPath is the catalog CSV file loaded through DuckDB.
	CSVPath string `koanf:"csv_path"`
	// DatabasePath is the DuckDB database file. Empty means in-memory.
	DatabasePath string `koanf:"database_path"`
	// RefreshInterval is how often the catalog is reloaded from disk.
	// Zero disables periodic refresh.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// SessionConfig controls conversational session storage.
type SessionConfig struct {
	// Store selects the backend: memory or badger. Default: memory
	Store string `koanf:"store"`
	// Path is the Badger directory when Store is badger.
	Path string `koanf:"path"`
	// TTL is how long idle sessions are retained. Default: 24h
	TTL time.Duration `koanf:"ttl"`
}

// RecommendConfig controls the recommendation pipeline.
type RecommendConfig struct {
	// TopN is the default number of recommendations per request. Default: 5
	TopN int `koanf:"top_n"`
	// PerTitleK is the similarity hits requested per liked title. Default: 3
	PerTitleK int `koanf:"per_title_k"`
	// RetrievalMultiplier is the overfetch factor before filtering. Default: 5
	RetrievalMultiplier int `koanf:"retrieval_multiplier"`
	// SimilarityThreshold is the fuzzy-dedup partial-ratio cutoff. Default: 95
	SimilarityThreshold int `koanf:"similarity_threshold"`
	// CacheTTL is the response cache lifetime. Default: 5m
	CacheTTL time.Duration `koanf:"cache_ttl"`
	// ModelPath points at the collaborative model artifacts directory.
	ModelPath string `koanf:"model_path"`
}

// OpenAIConfig controls the embedding and intent-extraction client.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI-compatible endpoint.
	APIKey string `koanf:"api_key"`
	// BaseURL overrides the API endpoint for compatible providers.
	BaseURL string `koanf:"base_url"`
	// EmbedModel is the embedding model name. Default: text-embedding-3-small
	EmbedModel string `koanf:"embed_model"`
	// ChatModel is the intent-extraction model name. Default: gpt-4o-mini
	ChatModel string `koanf:"chat_model"`
	// RequestsPerSecond caps outbound API calls. Default: 5
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Timeout is the per-call budget. Default: 20s
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error. Default: info
	Level string `koanf:"level"`
	// Format: json or console. Default: json
	Format string `koanf:"format"`
	// Caller includes file:line in log output.
	Caller bool `koanf:"caller"`
}

// Validate checks the configuration for internally inconsistent or
// out-of-range values. It is called after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	switch c.Session.Store {
	case "memory":
	case "badger":
		if c.Session.Path == "" {
			return fmt.Errorf("session.path is required when session.store is badger")
		}
	default:
		return fmt.Errorf("session.store must be memory or badger, got %q", c.Session.Store)
	}

	if c.Recommend.TopN < 1 {
		return fmt.Errorf("recommend.top_n must be at least 1, got %d", c.Recommend.TopN)
	}
	if c.Recommend.PerTitleK < 1 {
		return fmt.Errorf("recommend.per_title_k must be at least 1, got %d", c.Recommend.PerTitleK)
	}
	if c.Recommend.RetrievalMultiplier < 1 {
		return fmt.Errorf("recommend.retrieval_multiplier must be at least 1, got %d", c.Recommend.RetrievalMultiplier)
	}
	if c.Recommend.SimilarityThreshold < 0 || c.Recommend.SimilarityThreshold > 100 {
		return fmt.Errorf("recommend.similarity_threshold must be 0-100, got %d", c.Recommend.SimilarityThreshold)
	}

	if c.OpenAI.RequestsPerSecond <= 0 {
		return fmt.Errorf("openai.requests_per_second must be positive, got %g", c.OpenAI.RequestsPerSecond)
	}

	return nil
}
