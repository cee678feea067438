// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package collab

import (
	"errors"
	"math"
	"sort"
)

// Scorer ranks candidate catalog ids by cosine similarity between a
// user embedding and the item-embedding matrix. Cold start (unknown
// user, absent model) yields an empty result, never an error.
type Scorer struct {
	provider *Provider
}

// NewScorer creates a Scorer over the given model provider.
func NewScorer(provider *Provider) *Scorer {
	return &Scorer{provider: provider}
}

// Score returns up to topN candidate ids ranked descending by cosine
// similarity to the user's embedding. Candidates outside the model
// vocabulary are skipped. Ties keep candidate (catalog insertion)
// order via stable sort, so output is reproducible.
func (s *Scorer) Score(userID int64, candidateIDs []int64, topN int) []int64 {
	if topN <= 0 {
		return nil
	}
	model := s.provider.Current()
	if model == nil {
		return nil
	}
	userVec, ok := model.EmbedUser(userID)
	if !ok {
		return nil
	}

	items := model.ItemEmbeddings()

	type scored struct {
		id    int64
		score float64
	}
	ranked := make([]scored, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		idx, err := model.Encoder().Index(id)
		if err != nil {
			if errors.Is(err, ErrUnknownID) {
				continue
			}
			continue
		}
		ranked = append(ranked, scored{id: id, score: cosineSimilarity(userVec, items[idx])})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	out := make([]int64, len(ranked))
	for i, r := range ranked {
		out[i] = r.id
	}
	return out
}

// cosineSimilarity computes the cosine of the angle between two
// vectors, in [-1, 1]. Mismatched lengths and zero vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
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
