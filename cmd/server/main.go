// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package main is the entry point for the Playwise server.
//
// Playwise is a conversational game recommendation assistant. Users
// chat about games they liked and disliked; the server extracts
// preferences, keeps them in a per-chat session, and recommends games
// through a three-tier pipeline: collaborative filtering for linked
// profiles, per-liked-title vector similarity, and genre popularity
// as the last resort.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, YAML, and environment (Koanf v2)
//  2. Catalog: game data loaded from CSV through DuckDB into an in-memory store
//  3. Sessions: conversational state in memory or BadgerDB
//  4. Models: collaborative embeddings and the similarity index, both optional
//  5. Intent: OpenAI-backed preference extraction, enabled when an API key is set
//  6. HTTP Server: REST API behind Chi with CORS, rate limiting, and Prometheus metrics
//  7. Supervisor: suture tree running the server plus periodic catalog and model reloads
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables (PLAYWISE_*), a config file
// (config.yaml or PLAYWISE_CONFIG_PATH), then built-in defaults.
//
// Minimal local run:
//
//	export PLAYWISE_CATALOG_CSV_PATH=./data/games.csv
//	./playwise
//
// With intent extraction and a persistent session store:
//
//	export PLAYWISE_CATALOG_CSV_PATH=/data/games.csv
//	export PLAYWISE_OPENAI_API_KEY=sk-...
//	export PLAYWISE_SESSION_STORE=badger
//	export PLAYWISE_SESSION_PATH=/data/sessions
//	./playwise
//
// Without an OpenAI key the server still runs: messages carry no
// extracted signal, but sessions, filters, and the genre tier keep
// working, and the games endpoints are fully functional.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the listener
// stops accepting connections, in-flight requests get 10 seconds to
// complete, then the session store closes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/playwise/playwise/internal/api"
	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/collab"
	"github.com/playwise/playwise/internal/config"
	"github.com/playwise/playwise/internal/intent"
	"github.com/playwise/playwise/internal/logging"
	"github.com/playwise/playwise/internal/metrics"
	"github.com/playwise/playwise/internal/recommend"
	"github.com/playwise/playwise/internal/session"
	"github.com/playwise/playwise/internal/supervisor"
	"github.com/playwise/playwise/internal/vecindex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors surface through the default logger since the
		// configured one is not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("catalog_csv", cfg.Catalog.CSVPath).
		Str("session_store", cfg.Session.Store).
		Bool("intent_enabled", cfg.OpenAI.APIKey != "").
		Msg("Starting Playwise")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Shutdown complete")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog: load synchronously so the server starts ready, then
	// refresh periodically under the supervisor.
	loader, err := catalog.OpenLoader(cfg.Catalog.DatabasePath)
	if err != nil {
		return fmt.Errorf("open catalog loader: %w", err)
	}
	defer loader.Close()

	store := catalog.NewStore(nil)
	if cfg.Catalog.CSVPath != "" {
		entries, err := loader.Load(ctx, cfg.Catalog.CSVPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		store.Replace(entries)
		metrics.CatalogEntries.Set(float64(len(entries)))
		logging.Info().Int("entries", len(entries)).Msg("Catalog loaded")
	} else {
		logging.Warn().Msg("No catalog CSV configured, starting with an empty catalog")
	}

	sessions, err := session.NewStore(session.Options{
		Type: session.StoreType(cfg.Session.Store),
		Path: cfg.Session.Path,
		TTL:  cfg.Session.TTL,
	})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close session store")
		}
	}()

	// Model artifacts are optional: a missing directory leaves the
	// collaborative tier cold and the similarity index empty.
	provider := collab.NewProvider()
	if cfg.Recommend.ModelPath != "" {
		if err := provider.Load(cfg.Recommend.ModelPath); err != nil {
			logging.Warn().Err(err).Str("dir", cfg.Recommend.ModelPath).Msg("Collaborative model unavailable")
		}
	}

	var embedder vecindex.Embedder
	var oracle intent.Oracle
	if cfg.OpenAI.APIKey != "" {
		embedder = vecindex.NewOpenAIEmbedder(vecindex.OpenAIEmbedderConfig{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.OpenAI.EmbedModel,
			RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
			Timeout:           cfg.OpenAI.Timeout,
		})
		oracle = intent.NewOpenAIOracle(intent.OpenAIOracleConfig{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.OpenAI.ChatModel,
			RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
			Timeout:           cfg.OpenAI.Timeout,
		})
	} else {
		logging.Warn().Msg("No OpenAI API key configured, intent extraction and similarity tier disabled")
	}

	index := vecindex.NewBruteForce(embedder)
	if cfg.Recommend.ModelPath != "" {
		if err := index.Load(cfg.Recommend.ModelPath); err != nil {
			logging.Warn().Err(err).Str("dir", cfg.Recommend.ModelPath).Msg("Similarity index unavailable")
		}
	}

	recommendCfg := recommend.Config{
		TopN:                cfg.Recommend.TopN,
		PerTitleK:           cfg.Recommend.PerTitleK,
		RetrievalMultiplier: cfg.Recommend.RetrievalMultiplier,
		SimilarityThreshold: cfg.Recommend.SimilarityThreshold,
		CacheTTL:            cfg.Recommend.CacheTTL,
	}
	engine := recommend.NewEngine(store, collab.NewScorer(provider), recommend.NewRetriever(index, recommendCfg), recommendCfg)

	handler := api.NewHandler(store, sessions, engine, oracle)
	router := api.NewRouter(handler, api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	}), cfg.Server.Timeout)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))
	tree.AddDataService(supervisor.NewCatalogRefreshService(
		loader, store, cfg.Catalog.CSVPath, cfg.Catalog.RefreshInterval, engine.InvalidateCache))
	if cfg.Recommend.ModelPath != "" {
		tree.AddDataService(supervisor.NewModelReloadService(
			"collab-reloader", provider, cfg.Recommend.ModelPath, cfg.Catalog.RefreshInterval, engine.InvalidateCache))
		tree.AddDataService(supervisor.NewModelReloadService(
			"index-reloader", index, cfg.Recommend.ModelPath, cfg.Catalog.RefreshInterval, engine.InvalidateCache))
	}

	logging.Info().Str("addr", server.Addr).Msg("Listening")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
