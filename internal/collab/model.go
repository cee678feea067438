// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package collab

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/playwise/playwise/internal/logging"
)

// modelFileName is the serialized model artifact inside the model dir.
const modelFileName = "collab_model.json"

// modelArtifact is the on-disk shape of a trained model.
type modelArtifact struct {
	// ItemIDs are catalog ids in item-index order.
	ItemIDs []int64 `json:"item_ids"`
	// ItemVectors is the item-embedding matrix, row per item index.
	ItemVectors [][]float64 `json:"item_vectors"`
	// UserVectors maps external user id to its embedding.
	UserVectors map[int64][]float64 `json:"user_vectors"`
}

// Model is an immutable snapshot of trained embeddings. Safe for
// concurrent use without locking.
type Model struct {
	encoder *IDEncoder
	items   [][]float64
	users   map[int64][]float64
}

// EmbedUser returns the user's embedding, or false for users outside
// the trained vocabulary (cold start).
func (m *Model) EmbedUser(userID int64) ([]float64, bool) {
	v, ok := m.users[userID]
	return v, ok
}

// ItemEmbeddings returns the item-embedding matrix indexed by item
// position. Callers must not mutate it.
func (m *Model) ItemEmbeddings() [][]float64 {
	return m.items
}

// Encoder returns the catalog-id encoder for this model.
func (m *Model) Encoder() *IDEncoder {
	return m.encoder
}

// Provider holds the current model snapshot. Reload swaps the pointer
// atomically so in-flight requests keep a consistent view. A Provider
// with no loaded model degrades every request to cold start.
type Provider struct {
	current atomic.Pointer[Model]
}

// NewProvider creates an empty Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Current returns the active model snapshot, or nil when no model has
// been loaded.
func (p *Provider) Current() *Model {
	return p.current.Load()
}

// Load reads the model artifact from dir and swaps it in. A missing
// artifact is logged and leaves the previous snapshot (possibly nil)
// in place without error: an absent model is a degraded steady state.
func (p *Provider) Load(dir string) error {
	log := logging.With().Str("component", "collab").Logger()

	path := filepath.Join(dir, modelFileName)
	data, err := os.ReadFile(path) //nolint:gosec // path from operator configuration
	if os.IsNotExist(err) {
		log.Warn().Str("path", path).Msg("collaborative model artifact absent, cold-start mode")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read model artifact: %w", err)
	}

	var art modelArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	if len(art.ItemIDs) != len(art.ItemVectors) {
		return fmt.Errorf("model artifact %s: %d item ids but %d item vectors", path, len(art.ItemIDs), len(art.ItemVectors))
	}

	model := &Model{
		encoder: NewIDEncoder(art.ItemIDs),
		items:   art.ItemVectors,
		users:   art.UserVectors,
	}
	p.current.Store(model)

	log.Info().
		Int("items", len(art.ItemIDs)).
		Int("users", len(art.UserVectors)).
		Msg("collaborative model loaded")
	return nil
}

// Set replaces the current snapshot directly. Used by tests.
func (p *Provider) Set(m *Model) {
	p.current.Store(m)
}

// NewModel builds a model snapshot from in-memory embeddings.
func NewModel(itemIDs []int64, itemVectors [][]float64, userVectors map[int64][]float64) *Model {
	return &Model{
		encoder: NewIDEncoder(itemIDs),
		items:   itemVectors,
		users:   userVectors,
	}
}
