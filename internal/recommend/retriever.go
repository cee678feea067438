// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package recommend

import (
	"context"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/logging"
	"github.com/playwise/playwise/internal/metrics"
	"github.com/playwise/playwise/internal/vecindex"
)

// dlcKeywords marks non-base-game catalog noise. Any title containing
// one of these (case-insensitive) is dropped by the retriever.
var dlcKeywords = []string{"DLC", "Bonus Content", "Expansion", "Mod"}

// RetrieveOptions are the post-filters applied to similarity hits.
type RetrieveOptions struct {
	// Genres, when non-empty, keeps only entries whose tag set
	// intersects the normalized genre list.
	Genres []string

	// Year, when non-nil, keeps only entries whose release year
	// satisfies it; entries with unknown dates are dropped.
	Year *catalog.YearFilter

	// InputTitles are the original query titles; entries whose
	// lowercased title exactly matches one are dropped.
	InputTitles []string

	// K is how many entries to keep after filtering.
	K int
}

// Retriever is the semantic similarity tier: nearest-neighbor
// retrieval over the embedding index followed by pool intersection,
// noise filters, and greedy fuzzy de-duplication. An index failure is
// absorbed as zero neighbors so one failing query cannot abort the
// other liked-title queries in the same request.
type Retriever struct {
	index vecindex.Index
	cfg   Config
}

// NewRetriever creates a Retriever over the given index.
func NewRetriever(index vecindex.Index, cfg Config) *Retriever {
	return &Retriever{index: index, cfg: NewConfig(cfg)}
}

// Retrieve returns up to opts.K entries semantically similar to query,
// drawn from pool, in retrieval-rank order. Empty results are valid:
// they mean "this tier did not help", never a fault.
func (r *Retriever) Retrieve(ctx context.Context, query string, pool map[int64]*catalog.Entry, opts RetrieveOptions) []*catalog.Entry {
	k := opts.K
	if k <= 0 {
		k = r.cfg.PerTitleK
	}

	hits, err := r.index.Nearest(ctx, query, k*r.cfg.RetrievalMultiplier)
	if err != nil {
		metrics.SimilarityQueryErrors.Inc()
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("query", query).
			Msg("similarity index query failed, treating as zero neighbors")
		return nil
	}
	if len(hits) == 0 {
		return nil
	}

	wantGenres := catalog.NormalizeGenres(opts.Genres)
	inputTitles := lowerSet(opts.InputTitles)

	var kept []*catalog.Entry
	for _, hit := range hits {
		if len(kept) >= k {
			break
		}

		entry, inPool := pool[hit.ID]
		if !inPool {
			continue
		}
		if containsDLCKeyword(entry.Title) {
			continue
		}
		if len(wantGenres) > 0 && !tagsIntersect(entry.Tags, wantGenres) {
			continue
		}
		if opts.Year != nil && !opts.Year.Matches(entry) {
			continue
		}
		if _, isInput := inputTitles[strings.ToLower(entry.Title)]; isInput {
			continue
		}
		if isNearDuplicate(entry.Title, kept, r.cfg.SimilarityThreshold) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

// containsDLCKeyword reports whether the title carries a non-base-game
// marker, case-insensitive.
func containsDLCKeyword(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range dlcKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// tagsIntersect reports whether any entry tag matches any wanted
// genre, comparing normalized forms.
func tagsIntersect(tags, wantGenres []string) bool {
	for _, tag := range tags {
		normalized := catalog.NormalizeGenre(tag)
		for _, want := range wantGenres {
			if normalized == want {
				return true
			}
		}
	}
	return false
}

// isNearDuplicate reports whether title is fuzzily too close to any
// already-kept title. The greedy walk keeps the higher-ranked entry
// and suppresses later editions and remasters.
func isNearDuplicate(title string, kept []*catalog.Entry, threshold int) bool {
	for _, k := range kept {
		if fuzzy.PartialRatio(strings.ToLower(title), strings.ToLower(k.Title)) >= threshold {
			return true
		}
	}
	return false
}

func lowerSet(vals []string) map[string]struct{} {
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		out[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return out
}
