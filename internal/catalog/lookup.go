// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package catalog

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// LookupThreshold is the minimum token-sort ratio for a fuzzy title
// lookup to be considered a match.
const LookupThreshold = 80

// Lookup resolves a user-supplied title to a catalog entry by fuzzy
// token-sort matching. A dangling title that matches nothing returns
// nil, never an error.
func (s *Store) Lookup(title string) *Entry {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return nil
	}

	var (
		best      *Entry
		bestScore int
	)
	for _, e := range s.All() {
		score := fuzzy.TokenSortRatio(title, strings.ToLower(e.Title))
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	if bestScore > LookupThreshold {
		return best
	}
	return nil
}

// ResolveTitles maps session titles to catalog entries, skipping titles
// that resolve to nothing. Result order follows input order.
func (s *Store) ResolveTitles(titles []string) []*Entry {
	out := make([]*Entry, 0, len(titles))
	for _, t := range titles {
		if e := s.Lookup(t); e != nil {
			out = append(out, e)
		}
	}
	return out
}
