// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package intent extracts structured preferences from free text. The
// recommendation core treats the oracle as opaque: empty output means
// "no preference signal" and is never an error condition downstream.
package intent

import (
	"context"
	"strings"

	"github.com/playwise/playwise/internal/catalog"
)

// Preferences is the typed output of intent extraction. All fields
// default to empty; consumers never distinguish missing from empty.
type Preferences struct {
	// LikedGames are titles the user expressed liking.
	LikedGames []string `json:"liked_games"`

	// DislikedGames are titles the user expressed disliking.
	DislikedGames []string `json:"disliked_games"`

	// Genres the user asked for.
	Genres []string `json:"genres"`

	// ExcludedTags are tags or genres the user wants filtered out.
	ExcludedTags []string `json:"excluded_tags"`

	// Year constrains recommendations by release year, nil when the
	// user gave no year signal.
	Year *catalog.YearFilter `json:"year,omitempty"`

	// MinPrice and MaxPrice bound the acceptable price in USD.
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`

	// Platforms the user plays on.
	Platforms []string `json:"platforms,omitempty"`

	// MinReviews is a review-count credibility floor.
	MinReviews *int64 `json:"min_reviews,omitempty"`
}

// Empty reports whether the extraction produced no signal at all.
func (p Preferences) Empty() bool {
	return len(p.LikedGames) == 0 &&
		len(p.DislikedGames) == 0 &&
		len(p.Genres) == 0 &&
		len(p.ExcludedTags) == 0 &&
		len(p.Platforms) == 0 &&
		p.Year == nil &&
		p.MinPrice == nil &&
		p.MaxPrice == nil &&
		p.MinReviews == nil
}

// Normalize lowercases and canonicalizes genre-shaped fields in place,
// so downstream comparison never re-normalizes.
func (p *Preferences) Normalize() {
	p.Genres = catalog.NormalizeGenres(p.Genres)
	p.ExcludedTags = catalog.NormalizeGenres(p.ExcludedTags)
	for i, plat := range p.Platforms {
		p.Platforms[i] = strings.ToLower(strings.TrimSpace(plat))
	}
}

// Oracle turns free text into structured preferences. Implementations
// must return zero-value Preferences (not an error) when the text
// carries no extractable signal; errors are reserved for transport
// failures, which callers also degrade to "no signal".
type Oracle interface {
	Extract(ctx context.Context, text string) (Preferences, error)
}
