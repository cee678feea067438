// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/playwise/playwise/internal/session"
)

// responseCache is a TTL cache over recommendation results, keyed by a
// digest of the session state and request parameters. The pipeline is
// deterministic for fixed inputs, so caching only trades staleness
// against repeated compute while the catalog generation is unchanged.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	result  *Result
	expires time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *responseCache) get(key string) (*Result, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.result, true
}

func (c *responseCache) put(key string, result *Result) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// invalidate drops every cached response. Called on catalog or model
// reload so no request is served against a stale generation.
func (c *responseCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// cacheKey digests every session field that feeds the pipeline:
// liked/disliked titles, excluded tags, and all typed preferences.
// Reminders and timestamps are deliberately excluded: they do not
// affect output. Lists are length-prefixed so element boundaries
// survive the digest ({"a,b"} and {"a","b"} must not collide).
func cacheKey(sess *session.Session, topN int) string {
	var b strings.Builder
	writeField(&b, sess.Key)
	if sess.UserID != nil {
		writeField(&b, strconv.FormatInt(*sess.UserID, 10))
	} else {
		writeField(&b, "")
	}
	writeList(&b, sess.LikedGames)
	writeList(&b, sess.DislikedGames)
	writeList(&b, sess.ExcludedTags)

	p := sess.Preferences
	writeList(&b, p.Genres)
	if y := p.Year; y != nil {
		writeField(&b, string(y.Comparator)+strconv.Itoa(y.Year))
	} else {
		writeField(&b, "")
	}
	writeFloatField(&b, p.MinPrice)
	writeFloatField(&b, p.MaxPrice)
	writeList(&b, p.Platforms)
	if p.MinReviews != nil {
		writeField(&b, strconv.FormatInt(*p.MinReviews, 10))
	} else {
		writeField(&b, "")
	}
	writeField(&b, strconv.Itoa(topN))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
	b.WriteByte('|')
}

func writeList(b *strings.Builder, items []string) {
	b.WriteString(strconv.Itoa(len(items)))
	b.WriteByte('#')
	for _, s := range items {
		writeField(b, s)
	}
}

func writeFloatField(b *strings.Builder, f *float64) {
	if f == nil {
		writeField(b, "")
		return
	}
	writeField(b, strconv.FormatFloat(*f, 'g', -1, 64))
}
