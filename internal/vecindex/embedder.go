// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package vecindex

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/playwise/playwise/internal/logging"
)

// OpenAIEmbedderConfig configures the hosted embedding client.
type OpenAIEmbedderConfig struct {
	// APIKey authenticates against the API.
	APIKey string
	// BaseURL overrides the endpoint for OpenAI-compatible providers.
	BaseURL string
	// Model is the embedding model name. Default: text-embedding-3-small
	Model string
	// RequestsPerSecond caps outbound calls. Default: 5
	RequestsPerSecond float64
	// Timeout bounds each call. Default: 20s
	Timeout time.Duration
}

// OpenAIEmbedder embeds text through an OpenAI-compatible API. Calls
// are rate limited, and a circuit breaker sheds load when the upstream
// is failing so one slow provider cannot stall every Tier-2 query.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]float64]
	timeout time.Duration
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedding client. Zero config values
// fall back to defaults.
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	log := logging.With().Str("component", "embedder").Logger()
	breaker := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:    "openai-embeddings",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("embedding circuit breaker state change")
		},
	})

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: breaker,
		timeout: timeout,
	}
}

// Embed converts text to a vector in the index embedding space.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}

	return e.breaker.Execute(func() ([]float64, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		resp, err := e.client.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: e.model,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("embedding response contained no data")
		}

		vec := make([]float64, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vec[i] = float64(v)
		}
		return vec, nil
	})
}
