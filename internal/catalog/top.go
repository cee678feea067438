// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package catalog

import (
	"math"
	"sort"
)

// TopByGenreCount is how many entries TopByGenre returns.
const TopByGenreCount = 10

// Score combines rating rank, positive review ratio, and review volume
// into a single popularity score. Missing fields contribute zero.
func Score(e *Entry) float64 {
	score := 2 * float64(RatingValue(e.Rating))
	if e.PositiveRatio != nil {
		score += 0.1 * *e.PositiveRatio
	}
	if e.UserReviews != nil && *e.UserReviews > 0 {
		score += math.Log1p(float64(*e.UserReviews))
	}
	return score
}

// TopByGenre returns the highest-scoring entries in the given genre,
// at most TopByGenreCount, sorted descending by Score with ties broken
// by catalog insertion order.
func TopByGenre(entries []*Entry, genre string) []*Entry {
	filtered := FilterByGenre(entries, genre)
	ranked := make([]*Entry, len(filtered))
	copy(ranked, filtered)

	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i]) > Score(ranked[j])
	})

	if len(ranked) > TopByGenreCount {
		ranked = ranked[:TopByGenreCount]
	}
	return ranked
}

// SortByPositiveRatio orders entries descending by positive review
// ratio. Entries lacking the field sort last; ties keep insertion
// order so output stays deterministic.
func SortByPositiveRatio(entries []*Entry) []*Entry {
	ranked := make([]*Entry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].PositiveRatio, ranked[j].PositiveRatio
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri > *rj
		}
	})
	return ranked
}
