// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a process-local map. Suited to tests
// and single-instance deployments; sessions do not survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	keys     *keyLocks
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		keys:     newKeyLocks(),
	}
}

// GetOrCreate returns the session for key, creating it if absent.
func (m *MemoryStore) GetOrCreate(_ context.Context, key string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[key]
	m.mu.RUnlock()
	if ok {
		return cloneSession(s), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		return cloneSession(s), nil
	}
	s = New(key)
	m.sessions[key] = s
	return cloneSession(s), nil
}

// Get returns the session for key or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

// Update applies fn under the per-key lock and persists the result.
func (m *MemoryStore) Update(ctx context.Context, key string, fn func(*Session) error) (*Session, error) {
	lock := m.keys.lock(key)
	defer lock.Unlock()

	s, err := m.GetOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()

	m.mu.Lock()
	m.sessions[key] = cloneSession(s)
	m.mu.Unlock()
	return s, nil
}

// Clear removes the session for key.
func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	m.keys.drop(key)
	return nil
}

// Count returns the number of stored sessions.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }

// cloneSession deep-copies a session so callers cannot mutate stored
// state outside Update.
func cloneSession(s *Session) *Session {
	out := *s
	out.LikedGames = append([]string(nil), s.LikedGames...)
	out.DislikedGames = append([]string(nil), s.DislikedGames...)
	out.ExcludedTags = append([]string(nil), s.ExcludedTags...)
	out.Reminders = append([]string(nil), s.Reminders...)
	out.Preferences.Genres = append([]string(nil), s.Preferences.Genres...)
	out.Preferences.Platforms = append([]string(nil), s.Preferences.Platforms...)
	if s.Preferences.Year != nil {
		y := *s.Preferences.Year
		out.Preferences.Year = &y
	}
	if s.Preferences.MinPrice != nil {
		p := *s.Preferences.MinPrice
		out.Preferences.MinPrice = &p
	}
	if s.Preferences.MaxPrice != nil {
		p := *s.Preferences.MaxPrice
		out.Preferences.MaxPrice = &p
	}
	if s.Preferences.MinReviews != nil {
		n := *s.Preferences.MinReviews
		out.Preferences.MinReviews = &n
	}
	if s.UserID != nil {
		id := *s.UserID
		out.UserID = &id
	}
	return &out
}
