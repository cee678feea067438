// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/logging"
	"github.com/playwise/playwise/internal/metrics"
	"github.com/playwise/playwise/internal/session"
)

// ErrNegativeTopN flags a contract violation by the caller. Data
// sparsity and upstream degradation never surface as errors; this is
// the only synchronous failure Recommend can return.
var ErrNegativeTopN = errors.New("top_n must be non-negative")

// Engine sequences the three recommendation tiers with asymmetric
// acceptance: the collaborative tier must fill the full request count
// or it is rejected wholesale, the similarity tier accepts any
// non-empty result, and the genre tier is an unconditional last
// resort over the unfiltered catalog.
type Engine struct {
	store     *catalog.Store
	scorer    CollaborativeScorer
	retriever *Retriever
	cfg       Config
	cache     *responseCache
	logger    zerolog.Logger
}

// NewEngine wires the pipeline. scorer may be nil when no
// collaborative model is deployed; the engine then starts at the
// similarity tier.
func NewEngine(store *catalog.Store, scorer CollaborativeScorer, retriever *Retriever, cfg Config) *Engine {
	cfg = NewConfig(cfg)
	return &Engine{
		store:     store,
		scorer:    scorer,
		retriever: retriever,
		cfg:       cfg,
		cache:     newResponseCache(cfg.CacheTTL),
		logger:    logging.With().Str("component", "recommend").Logger(),
	}
}

// DefaultTopN exposes the configured default result count.
func (e *Engine) DefaultTopN() int {
	return e.cfg.TopN
}

// InvalidateCache drops cached responses. Called after catalog or
// model reloads.
func (e *Engine) InvalidateCache() {
	e.cache.invalidate()
}

// Recommend produces up to topN recommendations for the session.
// topN=0 yields an empty result without error; a fully empty result
// after all tiers is an expected outcome, not a failure.
func (e *Engine) Recommend(ctx context.Context, sess *session.Session, topN int) (*Result, error) {
	if topN < 0 {
		return nil, ErrNegativeTopN
	}
	if topN == 0 || e.store.Len() == 0 {
		return &Result{Tier: TierNone}, nil
	}

	start := time.Now()
	log := logging.FromContext(ctx).With().Str("component", "recommend").Logger()

	key := cacheKey(sess, topN)
	if cached, ok := e.cache.get(key); ok {
		metrics.RecommendCacheHits.Inc()
		log.Debug().Str("cache_key", key).Msg("served from response cache")
		return cached, nil
	}
	metrics.RecommendCacheMisses.Inc()

	pool := e.buildCandidatePool(sess)

	result := e.runTiers(ctx, sess, pool, topN)
	if len(result.Entries) > topN {
		result.Entries = result.Entries[:topN]
	}

	e.cache.put(key, result)
	metrics.ObserveRecommendation(string(result.Tier), time.Since(start))
	log.Debug().
		Str("tier", string(result.Tier)).
		Int("count", len(result.Entries)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation pipeline finished")

	return result, nil
}

// buildCandidatePool narrows the catalog by session state: disliked
// games, excluded tags, requested genres, then the optional price,
// platform, and review-count preferences. The filters commute; this
// order shrinks fastest in practice.
func (e *Engine) buildCandidatePool(sess *session.Session) []*catalog.Entry {
	pool := e.store.All()
	pool = catalog.FilterDisliked(pool, sess.DislikedGames)
	pool = catalog.ApplyExcludedTags(pool, sess.ExcludedTags)
	pool = filterByAnyGenre(pool, sess.Preferences.Genres)
	pool = catalog.FilterPriceRange(pool, sess.Preferences.MinPrice, sess.Preferences.MaxPrice)
	pool = catalog.FilterPlatforms(pool, sess.Preferences.Platforms)
	pool = catalog.FilterMinReviews(pool, sess.Preferences.MinReviews)
	return pool
}

// runTiers walks the tier state machine and returns the first
// accepted result.
func (e *Engine) runTiers(ctx context.Context, sess *session.Session, pool []*catalog.Entry, topN int) *Result {
	counts := make(map[Tier]int)

	entries := e.tierCollaborative(sess, pool, topN)
	counts[TierCollaborative] = len(entries)
	if len(entries) >= topN {
		return &Result{Entries: entries, Tier: TierCollaborative, TierCounts: counts}
	}

	entries = e.tierSimilarity(ctx, sess, pool)
	counts[TierSimilarity] = len(entries)
	if len(entries) > 0 {
		return &Result{Entries: entries, Tier: TierSimilarity, TierCounts: counts}
	}

	entries = e.tierGenre(sess, topN)
	counts[TierGenre] = len(entries)
	if len(entries) > 0 {
		return &Result{Entries: entries, Tier: TierGenre, TierCounts: counts}
	}

	return &Result{Tier: TierNone, TierCounts: counts}
}

// tierCollaborative scores the filtered pool against the user's
// embedding. Cold start (no linked user, unknown user, absent model)
// yields nil. The caller rejects partial fills: collaborative quality
// degrades below full count, so a short result falls through.
func (e *Engine) tierCollaborative(sess *session.Session, pool []*catalog.Entry, topN int) []*catalog.Entry {
	if e.scorer == nil || sess.UserID == nil || len(pool) == 0 {
		return nil
	}

	candidateIDs := make([]int64, len(pool))
	byID := make(map[int64]*catalog.Entry, len(pool))
	for i, entry := range pool {
		candidateIDs[i] = entry.ID
		byID[entry.ID] = entry
	}

	ranked := e.scorer.Score(*sess.UserID, candidateIDs, topN)
	entries := make([]*catalog.Entry, 0, len(ranked))
	for _, id := range ranked {
		if entry, ok := byID[id]; ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// tierSimilarity fans out one similarity query per liked title. The
// queries run concurrently but accumulate in liked-game insertion
// order, so output is reproducible regardless of completion order.
// Dedup across queries is by catalog id.
func (e *Engine) tierSimilarity(ctx context.Context, sess *session.Session, pool []*catalog.Entry) []*catalog.Entry {
	if e.retriever == nil || len(sess.LikedGames) == 0 || len(pool) == 0 {
		return nil
	}

	poolByID := make(map[int64]*catalog.Entry, len(pool))
	for _, entry := range pool {
		poolByID[entry.ID] = entry
	}

	perTitle := make([][]*catalog.Entry, len(sess.LikedGames))
	g, gctx := errgroup.WithContext(ctx)
	for i, title := range sess.LikedGames {
		g.Go(func() error {
			perTitle[i] = e.retriever.Retrieve(gctx, title, poolByID, RetrieveOptions{
				Genres:      sess.Preferences.Genres,
				Year:        sess.Preferences.Year,
				InputTitles: sess.LikedGames,
				K:           e.cfg.PerTitleK,
			})
			return nil
		})
	}
	// Retrieve absorbs its own failures, so the group never errors.
	_ = g.Wait()

	seen := make(map[int64]struct{})
	var out []*catalog.Entry
	for _, entries := range perTitle {
		for _, entry := range entries {
			if _, dup := seen[entry.ID]; dup {
				continue
			}
			seen[entry.ID] = struct{}{}
			out = append(out, entry)
		}
	}
	return out
}

// tierGenre is the last resort: genres derived from the liked games'
// catalog entries, ranked by positive review ratio over the full
// catalog minus the liked games themselves. It deliberately ignores
// the dislike/tag-filtered pool so the weakest tier is never
// over-constrained.
func (e *Engine) tierGenre(sess *session.Session, topN int) []*catalog.Entry {
	liked := e.store.ResolveTitles(sess.LikedGames)
	if len(liked) == 0 {
		return nil
	}

	likedIDs := make(map[int64]struct{}, len(liked))
	genreSet := make(map[string]struct{})
	var genres []string
	for _, entry := range liked {
		likedIDs[entry.ID] = struct{}{}
		for _, g := range entry.Genres {
			n := catalog.NormalizeGenre(g)
			if _, dup := genreSet[n]; dup {
				continue
			}
			genreSet[n] = struct{}{}
			genres = append(genres, n)
		}
	}
	if len(genres) == 0 {
		return nil
	}

	var candidates []*catalog.Entry
	for _, entry := range e.store.All() {
		if _, isLiked := likedIDs[entry.ID]; isLiked {
			continue
		}
		if genresIntersect(entry.Genres, genreSet) {
			candidates = append(candidates, entry)
		}
	}

	ranked := catalog.SortByPositiveRatio(candidates)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// filterByAnyGenre keeps entries matching at least one requested
// genre. An empty genre list keeps everything.
func filterByAnyGenre(entries []*catalog.Entry, genres []string) []*catalog.Entry {
	normalized := catalog.NormalizeGenres(genres)
	if len(normalized) == 0 {
		return entries
	}
	out := make([]*catalog.Entry, 0, len(entries))
	for _, entry := range entries {
		for _, g := range normalized {
			if entry.HasGenre(g) {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}

func genresIntersect(entryGenres []string, want map[string]struct{}) bool {
	for _, g := range entryGenres {
		if _, ok := want[catalog.NormalizeGenre(g)]; ok {
			return true
		}
	}
	return false
}
