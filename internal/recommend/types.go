// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package recommend is the multi-tier recommendation pipeline: a
// collaborative scorer, a per-liked-title similarity retriever, and a
// genre-popularity last resort, sequenced with graceful degradation.
// Each tier that cannot help yields an empty result, never an error;
// an empty final result is an expected outcome the caller turns into
// a "tell me more" prompt.
package recommend

import (
	"github.com/playwise/playwise/internal/catalog"
)

// Tier identifies which pipeline stage produced a result.
type Tier string

// Pipeline tiers in fallback order.
const (
	TierCollaborative Tier = "collaborative"
	TierSimilarity    Tier = "similarity"
	TierGenre         Tier = "genre"
	TierNone          Tier = "none"
)

// Result is an ordered recommendation set. Entries reference the
// catalog snapshot the request ran against; no id appears twice.
type Result struct {
	// Entries are the recommended games, best first, length <= the
	// requested top-n.
	Entries []*catalog.Entry `json:"entries"`

	// Tier is the pipeline stage that produced the entries, or
	// TierNone when every tier came up empty.
	Tier Tier `json:"tier"`

	// TierCounts records how many entries each attempted tier
	// produced, including tiers whose output was rejected.
	TierCounts map[Tier]int `json:"tier_counts,omitempty"`
}

// IDs returns the entry ids in result order.
func (r *Result) IDs() []int64 {
	ids := make([]int64, len(r.Entries))
	for i, e := range r.Entries {
		ids[i] = e.ID
	}
	return ids
}

// CollaborativeScorer ranks candidate ids for a known user. A nil or
// short result signals cold start and triggers the next tier.
type CollaborativeScorer interface {
	Score(userID int64, candidateIDs []int64, topN int) []int64
}
