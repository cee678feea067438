// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package vecindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// stubEmbedder returns a fixed vector per query string.
type stubEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func TestBruteForceNearest(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vectors: map[string][]float64{
		"query": {1, 0},
	}}
	idx := NewBruteForce(emb)
	idx.Set(
		[]int64{1, 2, 3},
		[][]float64{
			{0, 1},   // orthogonal
			{1, 0},   // perfect match
			{0.8, 0.2},
		},
	)

	hits, err := idx.Nearest(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != 2 || hits[1].ID != 3 {
		t.Errorf("hit order = [%d %d], want [2 3]", hits[0].ID, hits[1].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("scores not descending: %g, %g", hits[0].Score, hits[1].Score)
	}
}

func TestBruteForceEmptyCases(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vectors: map[string][]float64{"q": {1}}}
	idx := NewBruteForce(emb)

	// empty index
	hits, err := idx.Nearest(context.Background(), "q", 3)
	if err != nil || hits != nil {
		t.Errorf("empty index: got %v, %v; want nil, nil", hits, err)
	}

	idx.Set([]int64{1}, [][]float64{{1}})

	// k <= 0 and empty query are no-ops, not errors
	if hits, err := idx.Nearest(context.Background(), "q", 0); err != nil || hits != nil {
		t.Errorf("k=0: got %v, %v", hits, err)
	}
	if hits, err := idx.Nearest(context.Background(), "", 3); err != nil || hits != nil {
		t.Errorf("empty query: got %v, %v", hits, err)
	}
	if emb.calls != 1 {
		t.Errorf("embedder called %d times, want 1 (no calls for no-op queries)", emb.calls)
	}
}

func TestBruteForceEmbedderFailure(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{err: errors.New("upstream down")}
	idx := NewBruteForce(emb)
	idx.Set([]int64{1}, [][]float64{{1}})

	if _, err := idx.Nearest(context.Background(), "q", 3); err == nil {
		t.Error("expected error when embedder fails")
	}
}

func TestBruteForceStableTies(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vectors: map[string][]float64{"q": {1, 0}}}
	idx := NewBruteForce(emb)
	idx.Set(
		[]int64{5, 6},
		[][]float64{{1, 0}, {1, 0}}, // identical scores
	)

	hits, err := idx.Nearest(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if hits[0].ID != 5 || hits[1].ID != 6 {
		t.Errorf("tie order = [%d %d], want insertion order [5 6]", hits[0].ID, hits[1].ID)
	}
}

func TestBruteForceLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	artifact := `{"ids":[1,2],"vectors":[[1,0],[0,1]]}`
	if err := os.WriteFile(filepath.Join(dir, indexFileName), []byte(artifact), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	idx := NewBruteForce(&stubEmbedder{vectors: map[string][]float64{"q": {1, 0}}})
	if err := idx.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("Len = %d, want 2", idx.Len())
	}

	// missing artifact leaves the index usable and empty
	idx2 := NewBruteForce(&stubEmbedder{})
	if err := idx2.Load(t.TempDir()); err != nil {
		t.Fatalf("Load missing artifact: %v", err)
	}
	if idx2.Len() != 0 {
		t.Errorf("Len = %d, want 0", idx2.Len())
	}

	// mismatched artifact is rejected
	badDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(badDir, indexFileName), []byte(`{"ids":[1],"vectors":[]}`), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if err := idx2.Load(badDir); err == nil {
		t.Error("Load should reject mismatched artifact")
	}
}
