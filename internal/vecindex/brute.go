// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package vecindex

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/playwise/playwise/internal/logging"
)

// indexFileName is the serialized embedding index inside the model dir.
const indexFileName = "catalog_index.json"

// indexArtifact is the on-disk shape of the embedding index.
type indexArtifact struct {
	IDs     []int64     `json:"ids"`
	Vectors [][]float64 `json:"vectors"`
}

// indexSnapshot is one immutable index generation.
type indexSnapshot struct {
	ids     []int64
	vectors [][]float64
}

// BruteForce is an exact nearest-neighbor index: it embeds the query
// and scans every catalog vector. Catalog sizes here (tens of
// thousands) keep a linear scan well inside the request budget, and
// exactness keeps results reproducible.
type BruteForce struct {
	embedder Embedder
	current  atomic.Pointer[indexSnapshot]
}

var _ Index = (*BruteForce)(nil)

// NewBruteForce creates an index over the given embedder. Vectors are
// supplied via Load or Set.
func NewBruteForce(embedder Embedder) *BruteForce {
	b := &BruteForce{embedder: embedder}
	b.current.Store(&indexSnapshot{})
	return b
}

// Load reads the index artifact from dir and swaps it in atomically,
// so in-flight queries finish against the previous generation. A
// missing artifact leaves the index empty without error.
func (b *BruteForce) Load(dir string) error {
	log := logging.With().Str("component", "vecindex").Logger()

	path := filepath.Join(dir, indexFileName)
	data, err := os.ReadFile(path) //nolint:gosec // path from operator configuration
	if os.IsNotExist(err) {
		log.Warn().Str("path", path).Msg("embedding index artifact absent, similarity tier disabled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index artifact: %w", err)
	}

	var art indexArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return fmt.Errorf("parse index artifact %s: %w", path, err)
	}
	if len(art.IDs) != len(art.Vectors) {
		return fmt.Errorf("index artifact %s: %d ids but %d vectors", path, len(art.IDs), len(art.Vectors))
	}

	b.current.Store(&indexSnapshot{ids: art.IDs, vectors: art.Vectors})
	log.Info().Int("vectors", len(art.IDs)).Msg("embedding index loaded")
	return nil
}

// Set replaces the index contents directly. Used by tests and by
// in-process index builds.
func (b *BruteForce) Set(ids []int64, vectors [][]float64) {
	b.current.Store(&indexSnapshot{ids: ids, vectors: vectors})
}

// Len returns the number of indexed vectors.
func (b *BruteForce) Len() int {
	return len(b.current.Load().ids)
}

// Nearest embeds the query and returns the k most similar catalog ids
// by cosine similarity, descending. Ties keep index insertion order.
func (b *BruteForce) Nearest(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 || query == "" {
		return nil, nil
	}
	snap := b.current.Load()
	if len(snap.ids) == 0 {
		return nil, nil
	}

	queryVec, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits := make([]Hit, len(snap.ids))
	for i, id := range snap.ids {
		hits[i] = Hit{ID: id, Score: cosine(queryVec, snap.vectors[i])}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
