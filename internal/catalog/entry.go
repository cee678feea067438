// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package catalog holds the in-memory game catalog: the entry schema,
// the snapshot store, candidate filters, and genre/rating normalization.
//
// The catalog is rebuilt wholesale on refresh and shared read-only
// across requests, so no entry is ever mutated after load.
package catalog

import "time"

// Platform identifies a supported platform flag on a catalog entry.
type Platform string

// Supported platforms.
const (
	PlatformWindows   Platform = "windows"
	PlatformMac       Platform = "mac"
	PlatformLinux     Platform = "linux"
	PlatformSteamDeck Platform = "steam_deck"
)

// Entry is one game in the catalog. ID is the sole identity key used
// for deduplication across all recommendation tiers. Nullable catalog
// columns are pointer fields; a nil pointer means the source data had
// no value, which filtering treats as an empty set or sentinel rather
// than an error.
type Entry struct {
	// ID is the stable catalog identifier (Steam app id).
	ID int64 `json:"id"`

	// Title is the display title. Not necessarily unique.
	Title string `json:"title"`

	// Tags are normalized lowercase tag strings.
	Tags []string `json:"tags,omitempty"`

	// Genres are normalized lowercase genre strings.
	Genres []string `json:"genres,omitempty"`

	// Themes are normalized lowercase theme strings, when the source
	// carries a separate theme column.
	Themes []string `json:"themes,omitempty"`

	// Price is the current price in USD. Nil when unknown.
	Price *float64 `json:"price,omitempty"`

	// Platforms lists the platforms the game runs on.
	Platforms []Platform `json:"platforms,omitempty"`

	// Rating is the review rating category, e.g. "Very Positive".
	Rating string `json:"rating,omitempty"`

	// PositiveRatio is the percentage of positive reviews (0-100).
	PositiveRatio *float64 `json:"positive_ratio,omitempty"`

	// UserReviews is the total review count.
	UserReviews *int64 `json:"user_reviews,omitempty"`

	// ReleaseDate is the release date; the zero value means unknown.
	ReleaseDate time.Time `json:"release_date,omitempty"`

	// Description is the HTML-stripped game description.
	Description string `json:"description,omitempty"`
}

// ReleaseYear returns the release year and whether it is known.
func (e *Entry) ReleaseYear() (int, bool) {
	if e.ReleaseDate.IsZero() {
		return 0, false
	}
	return e.ReleaseDate.Year(), true
}

// HasGenre reports whether the entry's normalized genre set contains
// the normalized target genre.
func (e *Entry) HasGenre(genre string) bool {
	want := NormalizeGenre(genre)
	for _, g := range e.Genres {
		if NormalizeGenre(g) == want {
			return true
		}
	}
	return false
}
