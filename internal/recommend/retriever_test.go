// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/vecindex"
)

// fakeIndex serves canned hits per query and records calls.
type fakeIndex struct {
	mu    sync.Mutex
	hits  map[string][]vecindex.Hit
	err   error
	calls []string
}

func (f *fakeIndex) Nearest(_ context.Context, query string, k int) ([]vecindex.Hit, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	hits := f.hits[query]
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeIndex) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func poolOf(entries ...*catalog.Entry) map[int64]*catalog.Entry {
	pool := make(map[int64]*catalog.Entry, len(entries))
	for _, e := range entries {
		pool[e.ID] = e
	}
	return pool
}

func TestRetrieverPoolIntersection(t *testing.T) {
	t.Parallel()

	inPool := &catalog.Entry{ID: 1, Title: "Kept Game"}

	// id 2 is returned by the index but absent from the pool
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"q": {{ID: 2, Score: 0.99}, {ID: 1, Score: 0.9}},
	}}
	r := NewRetriever(idx, Config{})

	got := r.Retrieve(context.Background(), "q", poolOf(inPool), RetrieveOptions{K: 3})
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Retrieve = %v, want only id 1 (id 2 is outside the pool)", ids(got))
	}
}

func TestRetrieverDropsDLCTitles(t *testing.T) {
	t.Parallel()

	entries := []*catalog.Entry{
		{ID: 1, Title: "Base Game"},
		{ID: 2, Title: "Base Game: DLC Pack"},
		{ID: 3, Title: "Bonus Content Bundle"},
		{ID: 4, Title: "Great Expansion Pass"},
		{ID: 5, Title: "Community Mod Tools"},
	}
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"q": {{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}},
	}}
	r := NewRetriever(idx, Config{})

	got := r.Retrieve(context.Background(), "q", poolOf(entries...), RetrieveOptions{K: 5})
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Retrieve = %v, want only the base game", ids(got))
	}
}

func TestRetrieverGenreAndYearFilters(t *testing.T) {
	t.Parallel()

	date := func(y int) time.Time { return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC) }
	entries := []*catalog.Entry{
		{ID: 1, Title: "Old Shooter", Tags: []string{"fps"}, ReleaseDate: date(2010)},
		{ID: 2, Title: "New Shooter", Tags: []string{"shooter"}, ReleaseDate: date(2022)},
		{ID: 3, Title: "New Puzzle", Tags: []string{"puzzle"}, ReleaseDate: date(2022)},
		{ID: 4, Title: "Undated Shooter", Tags: []string{"shooter"}},
	}
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"q": {{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
	}}
	r := NewRetriever(idx, Config{})

	got := r.Retrieve(context.Background(), "q", poolOf(entries...), RetrieveOptions{
		K:      4,
		Genres: []string{"Shooter"},
		Year:   &catalog.YearFilter{Comparator: catalog.YearAfter, Year: 2015},
	})

	// genre keeps 1,2,4 (fps normalizes to shooter); year keeps 2 and
	// drops the undated entry fail-closed
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("Retrieve = %v, want [2]", ids(got))
	}
}

func TestRetrieverExcludesInputTitles(t *testing.T) {
	t.Parallel()

	entries := []*catalog.Entry{
		{ID: 1, Title: "Game 1"},
		{ID: 2, Title: "Other Game"},
	}
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"Game 1": {{ID: 1}, {ID: 2}},
	}}
	r := NewRetriever(idx, Config{})

	got := r.Retrieve(context.Background(), "Game 1", poolOf(entries...), RetrieveOptions{
		K:           2,
		InputTitles: []string{"game 1"},
	})
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("Retrieve = %v, want [2] (input title excluded)", ids(got))
	}
}

func TestRetrieverFuzzyDedup(t *testing.T) {
	t.Parallel()

	entries := []*catalog.Entry{
		{ID: 1, Title: "Horror Game A"},
		{ID: 2, Title: "Horror Game A Remake"},
		{ID: 3, Title: "Completely Different"},
	}
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"q": {{ID: 1}, {ID: 2}, {ID: 3}},
	}}
	r := NewRetriever(idx, Config{SimilarityThreshold: 90})

	got := r.Retrieve(context.Background(), "q", poolOf(entries...), RetrieveOptions{K: 3})

	seenA := 0
	for _, e := range got {
		if e.ID == 1 || e.ID == 2 {
			seenA++
		}
	}
	if seenA > 1 {
		t.Errorf("Retrieve = %v, near-duplicate titles not suppressed", ids(got))
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Retrieve = %v, want [1 3] (higher-ranked entry kept)", ids(got))
	}
}

func TestRetrieverStopsAtK(t *testing.T) {
	t.Parallel()

	entries := []*catalog.Entry{
		{ID: 1, Title: "Alpha Quest"},
		{ID: 2, Title: "Beta Quest"},
		{ID: 3, Title: "Gamma Quest"},
	}
	idx := &fakeIndex{hits: map[string][]vecindex.Hit{
		"q": {{ID: 1}, {ID: 2}, {ID: 3}},
	}}
	r := NewRetriever(idx, Config{SimilarityThreshold: 101}) // dedup off

	got := r.Retrieve(context.Background(), "q", poolOf(entries...), RetrieveOptions{K: 2})
	if len(got) != 2 {
		t.Errorf("Retrieve returned %d entries, want 2", len(got))
	}
}

func TestRetrieverOverfetchesNeighbors(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{hits: map[string][]vecindex.Hit{}}
	r := NewRetriever(idx, Config{PerTitleK: 3, RetrievalMultiplier: 5})

	r.Retrieve(context.Background(), "q", poolOf(), RetrieveOptions{})

	// the fake truncates to k, so verify via recorded call semantics:
	// an empty pool with no hits is fine, the point is no panic and
	// one index call
	if idx.callCount() != 1 {
		t.Errorf("index called %d times, want 1", idx.callCount())
	}
}

func TestRetrieverAbsorbsIndexFailure(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{err: errors.New("index down")}
	r := NewRetriever(idx, Config{})

	got := r.Retrieve(context.Background(), "q", poolOf(&catalog.Entry{ID: 1, Title: "X"}), RetrieveOptions{K: 3})
	if got != nil {
		t.Errorf("Retrieve = %v, want nil on index failure", ids(got))
	}
}

func ids(entries []*catalog.Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
