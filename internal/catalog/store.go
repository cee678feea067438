// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package catalog

import (
	"strings"
	"sync/atomic"
)

// snapshot is one immutable catalog generation. Requests read a single
// snapshot for their whole lifetime; Replace swaps the pointer so
// in-flight requests finish against a consistent view.
type snapshot struct {
	entries []*Entry
	byID    map[int64]*Entry
}

// Store holds the current catalog snapshot. Reads are lock-free; a
// refresh replaces the whole snapshot atomically.
type Store struct {
	current atomic.Pointer[snapshot]
}

// NewStore creates a Store populated with the given entries.
// Duplicate IDs keep the first occurrence.
func NewStore(entries []*Entry) *Store {
	s := &Store{}
	s.Replace(entries)
	return s
}

// Replace swaps in a new catalog generation built from entries.
func (s *Store) Replace(entries []*Entry) {
	byID := make(map[int64]*Entry, len(entries))
	kept := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if _, dup := byID[e.ID]; dup {
			continue
		}
		byID[e.ID] = e
		kept = append(kept, e)
	}
	s.current.Store(&snapshot{entries: kept, byID: byID})
}

// Get returns the entry with the given id, or nil if absent.
func (s *Store) Get(id int64) *Entry {
	return s.current.Load().byID[id]
}

// All returns the current catalog generation in insertion order.
// Callers must treat the returned slice and entries as read-only.
func (s *Store) All() []*Entry {
	return s.current.Load().entries
}

// Len returns the number of entries in the current generation.
func (s *Store) Len() int {
	return len(s.current.Load().entries)
}

// ByExactTitle returns the first entry whose title matches
// case-insensitively, or nil.
func (s *Store) ByExactTitle(title string) *Entry {
	want := strings.ToLower(strings.TrimSpace(title))
	for _, e := range s.All() {
		if strings.ToLower(e.Title) == want {
			return e
		}
	}
	return nil
}
