// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/playwise/config.yaml",
	"/etc/playwise/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "PLAYWISE_CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping.
const envPrefix = "PLAYWISE_"

// Default returns a Config populated with sensible defaults.
// Defaults are applied first, then overridden by config file and env vars.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Catalog: CatalogConfig{
			CSVPath:         "/data/games.csv",
			DatabasePath:    "", // in-memory
			RefreshInterval: 0,  // disabled
		},
		Session: SessionConfig{
			Store: "memory",
			Path:  "/data/sessions",
			TTL:   24 * time.Hour,
		},
		Recommend: RecommendConfig{
			TopN:                5,
			PerTitleK:           3,
			RetrievalMultiplier: 5,
			SimilarityThreshold: 95,
			CacheTTL:            5 * time.Minute,
			ModelPath:           "/data/model",
		},
		OpenAI: OpenAIConfig{
			APIKey:            "",
			BaseURL:           "",
			EmbedModel:        "text-embedding-3-small",
			ChatModel:         "gpt-4o-mini",
			RequestsPerSecond: 5,
			Timeout:           20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if it exists)
//  3. Environment variables: PLAYWISE_* overrides any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// PLAYWISE_SERVER_PORT -> server.port, PLAYWISE_OPENAI_API_KEY -> openai.api_key
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied via environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps PLAYWISE_-stripped env var names to config paths.
var envMappings = map[string]string{
	"server_host":              "server.host",
	"server_port":              "server.port",
	"server_timeout":           "server.timeout",
	"cors_origins":             "server.cors_origins",
	"rate_limit_requests":      "server.rate_limit_reqs",
	"rate_limit_window":        "server.rate_limit_window",
	"catalog_csv_path":         "catalog.csv_path",
	"catalog_database_path":    "catalog.database_path",
	"catalog_refresh_interval": "catalog.refresh_interval",
	"session_store":            "session.store",
	"session_path":             "session.path",
	"session_ttl":              "session.ttl",
	"recommend_top_n":          "recommend.top_n",
	"recommend_per_title_k":    "recommend.per_title_k",
	"recommend_multiplier":     "recommend.retrieval_multiplier",
	"recommend_threshold":      "recommend.similarity_threshold",
	"recommend_cache_ttl":      "recommend.cache_ttl",
	"recommend_model_path":     "recommend.model_path",
	"openai_api_key":           "openai.api_key",
	"openai_base_url":          "openai.base_url",
	"openai_embed_model":       "openai.embed_model",
	"openai_chat_model":        "openai.chat_model",
	"openai_rps":               "openai.requests_per_second",
	"openai_timeout":           "openai.timeout",
	"log_level":                "logging.level",
	"log_format":               "logging.format",
	"log_caller":               "logging.caller",
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, so unrelated environment
// variables cannot pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
