// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/playwise/playwise/internal/logging"
)

const systemPrompt = `You extract gaming preferences from user messages.
Respond with strict JSON only, matching this schema:
{"liked_games":[],"disliked_games":[],"genres":[],"excluded_tags":[],
"year":null,"min_price":null,"max_price":null,"platforms":[],"min_reviews":null}
"year" is null or {"comparator":"after|before|exact","year":2020}.
"platforms" values are among: windows, mac, linux, steam_deck.
Use empty arrays or null when a field has no signal. Never invent titles.`

// OpenAIOracleConfig configures the chat-based intent extractor.
type OpenAIOracleConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// OpenAIOracle extracts preferences with a chat completion constrained
// to JSON output. Malformed model output degrades to empty preferences
// rather than failing the conversation turn.
type OpenAIOracle struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

var _ Oracle = (*OpenAIOracle)(nil)

// NewOpenAIOracle creates an intent oracle. Zero config values fall
// back to defaults.
func NewOpenAIOracle(cfg OpenAIOracleConfig) *OpenAIOracle {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &OpenAIOracle{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		timeout: timeout,
	}
}

// Extract runs a chat completion and parses the JSON reply.
func (o *OpenAIOracle) Extract(ctx context.Context, text string) (Preferences, error) {
	if strings.TrimSpace(text) == "" {
		return Preferences{}, nil
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return Preferences{}, fmt.Errorf("intent rate limit: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: o.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return Preferences{}, fmt.Errorf("intent completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Preferences{}, nil
	}

	prefs, err := ParseReply(resp.Choices[0].Message.Content)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("unparseable intent reply, treating as no signal")
		return Preferences{}, nil
	}
	return prefs, nil
}

// ParseReply parses a JSON preferences reply, tolerating surrounding
// prose by extracting the outermost JSON object.
func ParseReply(reply string) (Preferences, error) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end <= start {
		return Preferences{}, fmt.Errorf("no JSON object in reply")
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(reply[start:end+1]), &prefs); err != nil {
		return Preferences{}, fmt.Errorf("parse preferences: %w", err)
	}
	prefs.Normalize()
	return prefs, nil
}
