// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package catalog

import (
	"strconv"
	"strings"
)

// The candidate filters are pure functions that narrow a catalog slice.
// Order of application does not change the final set; dislikes are
// applied first, then excluded tags, then genre.

// FilterDisliked removes entries whose title (case-insensitive) or
// numeric id matches any entry in disliked. No-op when disliked or
// entries is empty.
func FilterDisliked(entries []*Entry, disliked []string) []*Entry {
	if len(disliked) == 0 || len(entries) == 0 {
		return entries
	}

	blocked := make(map[string]struct{}, len(disliked))
	for _, d := range disliked {
		blocked[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}

	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if _, hit := blocked[strings.ToLower(e.Title)]; hit {
			continue
		}
		if _, hit := blocked[strconv.FormatInt(e.ID, 10)]; hit {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ApplyExcludedTags removes any entry whose tags, genres, or themes
// contain a case-insensitive substring match of any excluded tag.
// Each tag narrows further: exclusion is conjunctive.
func ApplyExcludedTags(entries []*Entry, excluded []string) []*Entry {
	if len(excluded) == 0 || len(entries) == 0 {
		return entries
	}

	for _, tag := range excluded {
		needle := strings.ToLower(strings.TrimSpace(tag))
		if needle == "" {
			continue
		}
		kept := make([]*Entry, 0, len(entries))
		for _, e := range entries {
			if matchesTag(e, needle) {
				continue
			}
			kept = append(kept, e)
		}
		entries = kept
	}
	return entries
}

// matchesTag reports whether any of the entry's tags, genres, or
// themes contain needle as a lowercase substring. Missing fields are
// empty sets: they never trigger exclusion.
func matchesTag(e *Entry, needle string) bool {
	for _, set := range [][]string{e.Tags, e.Genres, e.Themes} {
		for _, s := range set {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
	}
	return false
}

// FilterByGenre keeps only entries whose normalized genre set contains
// the normalized target genre. Unmatched entries are silently dropped.
func FilterByGenre(entries []*Entry, genre string) []*Entry {
	want := NormalizeGenre(genre)
	if want == "" {
		return entries
	}
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.HasGenre(want) {
			out = append(out, e)
		}
	}
	return out
}

// YearComparator selects how a release-year filter compares.
type YearComparator string

// Supported release-year comparators.
const (
	YearAfter  YearComparator = "after"
	YearBefore YearComparator = "before"
	YearExact  YearComparator = "exact"
)

// YearFilter constrains entries by release year.
type YearFilter struct {
	Comparator YearComparator `json:"comparator"`
	Year       int            `json:"year"`
}

// Matches reports whether the entry's release year satisfies the
// filter. Entries with unknown release dates fail closed.
func (f YearFilter) Matches(e *Entry) bool {
	year, ok := e.ReleaseYear()
	if !ok {
		return false
	}
	switch f.Comparator {
	case YearAfter:
		return year > f.Year
	case YearBefore:
		return year < f.Year
	case YearExact:
		return year == f.Year
	default:
		return false
	}
}

// FilterByYear keeps entries matching the year filter. A nil filter is
// a no-op.
func FilterByYear(entries []*Entry, filter *YearFilter) []*Entry {
	if filter == nil || len(entries) == 0 {
		return entries
	}
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// FilterPriceRange keeps entries whose price falls within [min, max].
// Nil bounds are open; entries without a price only pass when both
// bounds are nil.
func FilterPriceRange(entries []*Entry, min, max *float64) []*Entry {
	if (min == nil && max == nil) || len(entries) == 0 {
		return entries
	}
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Price == nil {
			continue
		}
		if min != nil && *e.Price < *min {
			continue
		}
		if max != nil && *e.Price > *max {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterPlatforms keeps entries available on every requested platform.
func FilterPlatforms(entries []*Entry, platforms []string) []*Entry {
	if len(platforms) == 0 || len(entries) == 0 {
		return entries
	}
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if hasPlatforms(e, platforms) {
			out = append(out, e)
		}
	}
	return out
}

func hasPlatforms(e *Entry, want []string) bool {
	for _, w := range want {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		found := false
		for _, p := range e.Platforms {
			if string(p) == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FilterMinReviews keeps entries with at least min user reviews.
// Entries without a review count fail closed.
func FilterMinReviews(entries []*Entry, min *int64) []*Entry {
	if min == nil || len(entries) == 0 {
		return entries
	}
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.UserReviews != nil && *e.UserReviews >= *min {
			out = append(out, e)
		}
	}
	return out
}

// FilterMinRating keeps entries whose rating category value is at
// least min on the ordered rating scale.
func FilterMinRating(entries []*Entry, min int) []*Entry {
	if len(entries) == 0 {
		return entries
	}
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if RatingValue(e.Rating) >= min {
			out = append(out, e)
		}
	}
	return out
}
