// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package recommend

import "time"

// Default pipeline tuning values.
const (
	// DefaultTopN is the default recommendation count per request.
	DefaultTopN = 5

	// DefaultPerTitleK is how many results each liked-title similarity
	// query contributes in the similarity tier.
	DefaultPerTitleK = 3

	// DefaultRetrievalMultiplier over-fetches nearest neighbors to
	// compensate for post-filtering.
	DefaultRetrievalMultiplier = 5

	// DefaultSimilarityThreshold is the fuzzy partial-ratio cutoff for
	// near-duplicate title suppression (editions, remasters).
	DefaultSimilarityThreshold = 95

	// DefaultCacheTTL bounds how long identical requests are served
	// from the response cache.
	DefaultCacheTTL = 5 * time.Minute
)

// Config tunes the recommendation pipeline.
type Config struct {
	// TopN is the default result count when a request does not
	// specify one.
	TopN int

	// PerTitleK is the per-liked-title result budget in the
	// similarity tier.
	PerTitleK int

	// RetrievalMultiplier is the nearest-neighbor over-fetch factor.
	RetrievalMultiplier int

	// SimilarityThreshold (0-100) is the partial-ratio score at or
	// above which two titles are considered duplicates.
	SimilarityThreshold int

	// CacheTTL is the response cache lifetime; zero disables caching.
	CacheTTL time.Duration
}

// NewConfig returns a Config and fixes zero values to defaults, so a
// partially populated literal behaves sensibly.
func NewConfig(cfg Config) Config {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.PerTitleK <= 0 {
		cfg.PerTitleK = DefaultPerTitleK
	}
	if cfg.RetrievalMultiplier <= 0 {
		cfg.RetrievalMultiplier = DefaultRetrievalMultiplier
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return cfg
}
