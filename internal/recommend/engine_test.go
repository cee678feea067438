// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/session"
	"github.com/playwise/playwise/internal/vecindex"
)

// fakeScorer returns canned rankings and records calls.
type fakeScorer struct {
	mu     sync.Mutex
	ranked []int64
	calls  int
}

func (f *fakeScorer) Score(_ int64, candidateIDs []int64, topN int) []int64 {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	allowed := make(map[int64]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		allowed[id] = struct{}{}
	}
	var out []int64
	for _, id := range f.ranked {
		if _, ok := allowed[id]; ok {
			out = append(out, id)
		}
		if len(out) == topN {
			break
		}
	}
	return out
}

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// actionCatalog builds the ten-entry fixture used by the end-to-end
// scenarios: all action/adventure, all dated 2020-01-01.
func actionCatalog() *catalog.Store {
	pr := func(v float64) *float64 { return &v }
	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := make([]*catalog.Entry, 0, 10)
	for i := 1; i <= 10; i++ {
		title := fmt.Sprintf("Game %d", i)
		if i == 4 {
			title = "Game 1: DLC"
		}
		entries = append(entries, &catalog.Entry{
			ID:            int64(i),
			Title:         title,
			Tags:          []string{"action", "adventure"},
			Genres:        []string{"action", "adventure"},
			PositiveRatio: pr(float64(60 + i)),
			ReleaseDate:   date,
		})
	}
	return catalog.NewStore(entries)
}

func userID(id int64) *int64 { return &id }

func newTestEngine(store *catalog.Store, scorer CollaborativeScorer, idx vecindex.Index, cfg Config) *Engine {
	var retriever *Retriever
	if idx != nil {
		retriever = NewRetriever(idx, cfg)
	}
	return NewEngine(store, scorer, retriever, cfg)
}

func TestCollaborativeTierFillsRequest(t *testing.T) {
	t.Parallel()

	// E2E scenario: known user, collaborative model returns five
	// distinct candidates; later tiers stay untouched.
	store := actionCatalog()
	scorer := &fakeScorer{ranked: []int64{3, 1, 7, 9, 5}}
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{}}
	engine := newTestEngine(store, scorer, idx, Config{})

	sess := session.New("chat")
	sess.UserID = userID(42)
	sess.AddLiked("Game 1")

	res, err := engine.Recommend(context.Background(), sess, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Tier != TierCollaborative {
		t.Errorf("Tier = %s, want collaborative", res.Tier)
	}
	want := []int64{3, 1, 7, 9, 5}
	got := res.IDs()
	if len(got) != 5 {
		t.Fatalf("got %d entries, want 5", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if idx.callCount() != 0 {
		t.Errorf("similarity index called %d times, want 0", idx.callCount())
	}
}

func TestTierMonotonicFallback(t *testing.T) {
	t.Parallel()

	// a full collaborative result suppresses all later tiers, a short
	// one falls through to similarity
	store := actionCatalog()

	t.Run("full tier1 suppresses tier2", func(t *testing.T) {
		t.Parallel()
		scorer := &fakeScorer{ranked: []int64{1, 2, 3}}
		idx := &fakeIndex{hits: map[string][]vecindex.Hit{}}
		engine := newTestEngine(store, scorer, idx, Config{})

		sess := session.New("chat")
		sess.UserID = userID(42)
		sess.AddLiked("Game 2")

		res, err := engine.Recommend(context.Background(), sess, 3)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if res.Tier != TierCollaborative {
			t.Errorf("Tier = %s, want collaborative", res.Tier)
		}
		if idx.callCount() != 0 {
			t.Errorf("index called %d times after full tier-1 result", idx.callCount())
		}
	})

	t.Run("partial tier1 is rejected wholesale", func(t *testing.T) {
		t.Parallel()
		scorer := &fakeScorer{ranked: []int64{1, 2}} // only 2 of 5
		idx := &fakeIndex{hits: map[string][]vecindex.Hit{
			"Game 2": {{ID: 7}, {ID: 8}},
		}}
		engine := newTestEngine(store, scorer, idx, Config{})

		sess := session.New("chat")
		sess.UserID = userID(42)
		sess.AddLiked("Game 2")

		res, err := engine.Recommend(context.Background(), sess, 5)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if res.Tier != TierSimilarity {
			t.Errorf("Tier = %s, want similarity", res.Tier)
		}
		if scorer.callCount() != 1 {
			t.Errorf("scorer called %d times, want 1", scorer.callCount())
		}
		// partial tier-1 ids must not leak into the output
		for _, id := range res.IDs() {
			if id == 1 || id == 2 {
				t.Errorf("rejected collaborative candidate %d leaked into output", id)
			}
		}
		if res.TierCounts[TierCollaborative] != 2 {
			t.Errorf("TierCounts[collaborative] = %d, want 2 (rejected partial)", res.TierCounts[TierCollaborative])
		}
	})
}

func TestSimilarityTierExcludesDLCAndInput(t *testing.T) {
	t.Parallel()

	// E2E scenario: no linked user, liked {"Game 1","Game 2"}; the
	// index returns ids 1, 4, 7 for "Game 1" where 4 is "Game 1: DLC".
	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Game 1": {{ID: 1}, {ID: 4}, {ID: 7}},
	}}
	engine := newTestEngine(store, nil, idx, Config{})

	sess := session.New("chat")
	sess.AddLiked("Game 1")
	sess.AddLiked("Game 2")

	res, err := engine.Recommend(context.Background(), sess, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Tier != TierSimilarity {
		t.Fatalf("Tier = %s, want similarity", res.Tier)
	}
	if len(res.Entries) != 1 || res.Entries[0].ID != 7 {
		t.Errorf("IDs = %v, want [7] (input title and DLC excluded)", res.IDs())
	}
}

func TestSimilarityTierAcceptsPartialResults(t *testing.T) {
	t.Parallel()

	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Game 3": {{ID: 8}},
	}}
	engine := newTestEngine(store, nil, idx, Config{})

	sess := session.New("chat")
	sess.AddLiked("Game 3")

	res, err := engine.Recommend(context.Background(), sess, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// one result < top_n is still accepted: similarity results are
	// per-query and naturally partial
	if res.Tier != TierSimilarity || len(res.Entries) != 1 {
		t.Errorf("Tier = %s with %d entries, want similarity with 1", res.Tier, len(res.Entries))
	}
}

func TestSimilarityTierDeterministicAccumulation(t *testing.T) {
	t.Parallel()

	// concurrent per-title queries must accumulate in liked-game
	// insertion order, with cross-query dedup by id
	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Game 1": {{ID: 5}, {ID: 6}},
		"Game 2": {{ID: 6}, {ID: 7}},
	}}
	engine := newTestEngine(store, nil, idx, Config{SimilarityThreshold: 101})

	sess := session.New("chat")
	sess.AddLiked("Game 1")
	sess.AddLiked("Game 2")

	for range 5 {
		res, err := engine.Recommend(context.Background(), sess, 5)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		want := []int64{5, 6, 7}
		got := res.IDs()
		if len(got) != len(want) {
			t.Fatalf("IDs = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("IDs = %v, want %v (accumulation order unstable)", got, want)
			}
		}
		engine.InvalidateCache()
	}
}

func TestGenreTierLastResort(t *testing.T) {
	t.Parallel()

	// no user, index returns nothing: fall through to genre ranking
	// over the full catalog minus the liked game itself
	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{}}
	engine := newTestEngine(store, nil, idx, Config{})

	sess := session.New("chat")
	sess.AddLiked("Game 1")

	res, err := engine.Recommend(context.Background(), sess, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Tier != TierGenre {
		t.Fatalf("Tier = %s, want genre", res.Tier)
	}
	// highest positive_ratio first, liked game (id 1) excluded
	want := []int64{10, 9, 8}
	got := res.IDs()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs = %v, want %v", got, want)
			break
		}
	}
}

func TestGenreTierIgnoresFilteredPool(t *testing.T) {
	t.Parallel()

	// the genre tier deliberately runs over the unfiltered catalog:
	// an excluded tag that wipes out the filtered pool does not
	// constrain the last resort
	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{}}
	engine := newTestEngine(store, nil, idx, Config{})

	sess := session.New("chat")
	sess.AddLiked("Game 1")
	sess.AddExcludedTag("action") // excludes every catalog entry

	res, err := engine.Recommend(context.Background(), sess, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Tier != TierGenre || len(res.Entries) == 0 {
		t.Errorf("Tier = %s with %d entries, want non-empty genre tier", res.Tier, len(res.Entries))
	}
}

func TestAllTiersEmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{}}
	engine := newTestEngine(store, nil, idx, Config{})

	// fresh session: no user, no liked games, no genres derivable
	res, err := engine.Recommend(context.Background(), session.New("chat"), 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Tier != TierNone || len(res.Entries) != 0 {
		t.Errorf("got tier %s with %d entries, want empty none", res.Tier, len(res.Entries))
	}
}

func TestEmptyCatalogAfterFiltering(t *testing.T) {
	t.Parallel()

	// E2E scenario: disliking every entry empties the pool; the
	// pipeline returns empty without raising
	pr := func(v float64) *float64 { return &v }
	store := catalog.NewStore([]*catalog.Entry{
		{ID: 1, Title: "Only Game", Genres: []string{"action"}, PositiveRatio: pr(80)},
	})
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{}}
	engine := newTestEngine(store, nil, idx, Config{})

	sess := session.New("chat")
	sess.AddDisliked("Only Game")

	res, err := engine.Recommend(context.Background(), sess, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(res.Entries) != 0 {
		t.Errorf("IDs = %v, want empty", res.IDs())
	}
}

func TestRespectsExclusions(t *testing.T) {
	t.Parallel()

	// excluded tags and disliked games never appear in similarity
	// output: the candidate pool is narrowed before retrieval
	pr := func(v float64) *float64 { return &v }
	store := catalog.NewStore([]*catalog.Entry{
		{ID: 1, Title: "Scary House", Tags: []string{"horror", "survival"}, Genres: []string{"horror"}, PositiveRatio: pr(90)},
		{ID: 2, Title: "Calm Blocks", Tags: []string{"puzzle"}, Genres: []string{"puzzle"}, PositiveRatio: pr(85)},
		{ID: 3, Title: "Hated Game", Tags: []string{"puzzle"}, Genres: []string{"puzzle"}, PositiveRatio: pr(99)},
		{ID: 4, Title: "Gentle Garden", Tags: []string{"puzzle"}, Genres: []string{"puzzle"}, PositiveRatio: pr(80)},
	})
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Calm Blocks": {{ID: 1}, {ID: 3}, {ID: 4}},
	}}
	engine := newTestEngine(store, nil, idx, Config{})

	sess := session.New("chat")
	sess.AddLiked("Calm Blocks")
	sess.AddDisliked("Hated Game")
	sess.AddExcludedTag("horror")

	res, err := engine.Recommend(context.Background(), sess, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Tier != TierSimilarity {
		t.Fatalf("Tier = %s, want similarity", res.Tier)
	}
	if len(res.Entries) != 1 || res.Entries[0].ID != 4 {
		t.Fatalf("IDs = %v, want [4]", res.IDs())
	}
}

func TestRespectsPricePlatformAndReviews(t *testing.T) {
	t.Parallel()

	// typed preferences narrow the similarity pool: too expensive,
	// wrong platform, and thin review counts all drop out
	pr := func(v float64) *float64 { return &v }
	price := func(v float64) *float64 { return &v }
	reviews := func(v int64) *int64 { return &v }
	linux := []catalog.Platform{catalog.PlatformLinux, catalog.PlatformWindows}
	store := catalog.NewStore([]*catalog.Entry{
		{ID: 1, Title: "Anchor", Tags: []string{"puzzle"}, Genres: []string{"puzzle"}, PositiveRatio: pr(90), Price: price(10), Platforms: linux, UserReviews: reviews(5000)},
		{ID: 2, Title: "Too Pricey", Tags: []string{"puzzle"}, Genres: []string{"puzzle"}, PositiveRatio: pr(88), Price: price(60), Platforms: linux, UserReviews: reviews(5000)},
		{ID: 3, Title: "Windows Only", Tags: []string{"puzzle"}, Genres: []string{"puzzle"}, PositiveRatio: pr(87), Price: price(10), Platforms: []catalog.Platform{catalog.PlatformWindows}, UserReviews: reviews(5000)},
		{ID: 4, Title: "Barely Reviewed", Tags: []string{"puzzle"}, Genres: []string{"puzzle"}, PositiveRatio: pr(86), Price: price(10), Platforms: linux, UserReviews: reviews(10)},
		{ID: 5, Title: "Keeper", Tags: []string{"puzzle"}, Genres: []string{"puzzle"}, PositiveRatio: pr(85), Price: price(10), Platforms: linux, UserReviews: reviews(5000)},
	})
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Anchor": {{ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}},
	}}
	engine := newTestEngine(store, nil, idx, Config{})

	maxPrice := 20.0
	minReviews := int64(100)
	sess := session.New("chat")
	sess.AddLiked("Anchor")
	sess.MergePreferences(session.Preferences{
		MaxPrice:   &maxPrice,
		Platforms:  []string{"linux"},
		MinReviews: &minReviews,
	})

	res, err := engine.Recommend(context.Background(), sess, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Tier != TierSimilarity {
		t.Fatalf("Tier = %s, want similarity", res.Tier)
	}
	if len(res.Entries) != 1 || res.Entries[0].ID != 5 {
		t.Fatalf("IDs = %v, want [5]", res.IDs())
	}
}

func TestCandidateFilterExcludedTags(t *testing.T) {
	t.Parallel()

	// E2E scenario: {"horror"} excluded leaves only the puzzle entry
	entries := []*catalog.Entry{
		{ID: 1, Title: "Scary", Tags: []string{"horror", "survival"}},
		{ID: 2, Title: "Blocks", Tags: []string{"puzzle"}},
	}
	got := catalog.ApplyExcludedTags(entries, []string{"horror"})
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("survivors = %v, want only the puzzle entry", got)
	}
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Game 1": {{ID: 5}, {ID: 7}, {ID: 9}},
	}}
	engine := newTestEngine(store, nil, idx, Config{CacheTTL: -1}) // cache off

	sess := session.New("chat")
	sess.AddLiked("Game 1")

	first, err := engine.Recommend(context.Background(), sess, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	second, err := engine.Recommend(context.Background(), sess, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	a, b := first.IDs(), second.IDs()
	if len(a) != len(b) {
		t.Fatalf("repeat call changed result size: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("repeat call changed order at %d: %v vs %v", i, a, b)
		}
	}
}

func TestNoDuplicateIDs(t *testing.T) {
	t.Parallel()

	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Game 1": {{ID: 5}, {ID: 6}},
		"Game 2": {{ID: 5}, {ID: 6}, {ID: 7}},
	}}
	engine := newTestEngine(store, nil, idx, Config{SimilarityThreshold: 101})

	sess := session.New("chat")
	sess.AddLiked("Game 1")
	sess.AddLiked("Game 2")

	res, err := engine.Recommend(context.Background(), sess, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	seen := make(map[int64]bool)
	for _, id := range res.IDs() {
		if seen[id] {
			t.Errorf("duplicate id %d in output %v", id, res.IDs())
		}
		seen[id] = true
	}
}

func TestSizeBound(t *testing.T) {
	t.Parallel()

	store := actionCatalog()
	scorer := &fakeScorer{ranked: []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}
	engine := newTestEngine(store, scorer, &fakeIndex{}, Config{})

	sess := session.New("chat")
	sess.UserID = userID(1)

	for _, topN := range []int{0, 1, 3, 10, 50} {
		res, err := engine.Recommend(context.Background(), sess, topN)
		if err != nil {
			t.Fatalf("Recommend(top_n=%d): %v", topN, err)
		}
		if len(res.Entries) > topN {
			t.Errorf("top_n=%d produced %d entries", topN, len(res.Entries))
		}
	}

	if _, err := engine.Recommend(context.Background(), sess, -1); !errors.Is(err, ErrNegativeTopN) {
		t.Errorf("negative top_n error = %v, want ErrNegativeTopN", err)
	}
}

func TestResponseCache(t *testing.T) {
	t.Parallel()

	store := actionCatalog()
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Game 1": {{ID: 5}},
	}}
	engine := newTestEngine(store, nil, idx, Config{CacheTTL: time.Minute})

	sess := session.New("chat")
	sess.AddLiked("Game 1")

	if _, err := engine.Recommend(context.Background(), sess, 5); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if _, err := engine.Recommend(context.Background(), sess, 5); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if idx.callCount() != 1 {
		t.Errorf("index called %d times, want 1 (second call cached)", idx.callCount())
	}

	// session mutation changes the key and misses the cache
	sess.AddLiked("Game 2")
	if _, err := engine.Recommend(context.Background(), sess, 5); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if idx.callCount() < 2 {
		t.Errorf("index called %d times, want >= 2 after session change", idx.callCount())
	}
}
