// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package vecindex provides semantic nearest-neighbor retrieval over a
// precomputed embedding index of catalog entries. The index vectors
// are a consumed artifact; only query-text embedding happens online.
package vecindex

import "context"

// Hit is one nearest-neighbor result: a catalog id and its similarity
// score, higher is closer.
type Hit struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Index answers nearest-neighbor queries against the catalog
// embedding space. Implementations must be safe for concurrent use.
type Index interface {
	// Nearest returns up to k catalog ids ordered by descending
	// semantic similarity to the query text. An empty result is a
	// valid answer, not an error.
	Nearest(ctx context.Context, query string, k int) ([]Hit, error)
}

// Embedder converts text into the index's embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
