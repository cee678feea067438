// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package session holds per-user conversational state and its storage
// backends. Sessions are created lazily on first interaction and
// cleared only by an explicit reset.
package session

import (
	"strings"
	"time"

	"github.com/playwise/playwise/internal/catalog"
)

// Preferences is the typed, partially-populated preference state
// extracted from conversation. Empty slices and nil pointers mean "no
// preference signal"; consumers never branch on key presence.
type Preferences struct {
	// Genres the user asked for, normalized.
	Genres []string `json:"genres,omitempty"`

	// Year constrains recommendations by release year.
	Year *catalog.YearFilter `json:"year,omitempty"`

	// MinPrice and MaxPrice bound the acceptable price in USD.
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`

	// Platforms the user plays on; entries must support all of them.
	Platforms []string `json:"platforms,omitempty"`

	// MinReviews is the minimum review-count credibility floor.
	MinReviews *int64 `json:"min_reviews,omitempty"`
}

// Session is one user's conversational state, keyed by an opaque
// session key (chat id). UserID is the optional linked external
// profile identifier consumed by the collaborative scorer and is
// distinct from the session key.
type Session struct {
	Key string `json:"key"`

	// UserID is the linked numeric profile id, nil when not linked.
	UserID *int64 `json:"user_id,omitempty"`

	// LikedGames are titles in insertion order, deduplicated
	// case-insensitively.
	LikedGames []string `json:"liked_games,omitempty"`

	// DislikedGames are titles or numeric id strings.
	DislikedGames []string `json:"disliked_games,omitempty"`

	// ExcludedTags are normalized tag/genre strings; matching against
	// catalog tags is case- and synonym-insensitive.
	ExcludedTags []string `json:"excluded_tags,omitempty"`

	Preferences Preferences `json:"preferences"`

	// Reminders is carried as opaque client data; nothing schedules
	// against it server-side.
	Reminders []string `json:"reminders,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty session for the given key.
func New(key string) *Session {
	now := time.Now().UTC()
	return &Session{Key: key, CreatedAt: now, UpdatedAt: now}
}

// AddLiked appends a title to the liked set, preserving insertion
// order. Duplicate titles (case-insensitive) are ignored.
func (s *Session) AddLiked(title string) {
	title = strings.TrimSpace(title)
	if title == "" || containsFold(s.LikedGames, title) {
		return
	}
	s.LikedGames = append(s.LikedGames, title)
}

// AddDisliked appends a title or id string to the disliked set.
func (s *Session) AddDisliked(title string) {
	title = strings.TrimSpace(title)
	if title == "" || containsFold(s.DislikedGames, title) {
		return
	}
	s.DislikedGames = append(s.DislikedGames, title)
}

// AddExcludedTag normalizes and appends a tag to the excluded set, so
// "RPG" and "role playing" exclude the same catalog entries.
func (s *Session) AddExcludedTag(tag string) {
	tag = catalog.NormalizeGenre(tag)
	if tag == "" || containsFold(s.ExcludedTags, tag) {
		return
	}
	s.ExcludedTags = append(s.ExcludedTags, tag)
}

// MergePreferences folds newly extracted preferences into the session.
// Empty fields in p leave existing state untouched.
func (s *Session) MergePreferences(p Preferences) {
	for _, g := range p.Genres {
		g = catalog.NormalizeGenre(g)
		if g != "" && !containsFold(s.Preferences.Genres, g) {
			s.Preferences.Genres = append(s.Preferences.Genres, g)
		}
	}
	if p.Year != nil {
		s.Preferences.Year = p.Year
	}
	if p.MinPrice != nil {
		s.Preferences.MinPrice = p.MinPrice
	}
	if p.MaxPrice != nil {
		s.Preferences.MaxPrice = p.MaxPrice
	}
	if p.MinReviews != nil {
		s.Preferences.MinReviews = p.MinReviews
	}
	for _, plat := range p.Platforms {
		plat = strings.ToLower(strings.TrimSpace(plat))
		if plat != "" && !containsFold(s.Preferences.Platforms, plat) {
			s.Preferences.Platforms = append(s.Preferences.Platforms, plat)
		}
	}
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
