// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/playwise/playwise/internal/logging"
)

// sessionKeyPrefix namespaces session records inside BadgerDB.
const sessionKeyPrefix = "session:"

// BadgerStore persists sessions in BadgerDB so they survive restarts.
type BadgerStore struct {
	db   *badger.DB
	ttl  time.Duration
	keys *keyLocks
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) a BadgerDB-backed session store at
// the given directory. A zero ttl keeps sessions indefinitely.
func NewBadgerStore(path string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty; we log at the store level
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store at %s: %w", path, err)
	}

	log := logging.With().Str("component", "session_store").Logger()
	log.Info().Str("path", path).Dur("ttl", ttl).Msg("badger session store opened")

	return &BadgerStore{db: db, ttl: ttl, keys: newKeyLocks()}, nil
}

// GetOrCreate returns the session for key, creating it if absent.
func (b *BadgerStore) GetOrCreate(ctx context.Context, key string) (*Session, error) {
	s, err := b.Get(ctx, key)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	s = New(key)
	if err := b.put(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get retrieves a session by key, or ErrNotFound.
func (b *BadgerStore) Get(_ context.Context, key string) (*Session, error) {
	var s Session
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Update applies fn under the per-key lock and persists the result.
func (b *BadgerStore) Update(ctx context.Context, key string, fn func(*Session) error) (*Session, error) {
	lock := b.keys.lock(key)
	defer lock.Unlock()

	s, err := b.GetOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()

	if err := b.put(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Clear removes the session for key. Absent keys are not an error.
func (b *BadgerStore) Clear(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionKeyPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	b.keys.drop(key)
	return nil
}

// Count returns the number of stored sessions via a key-only scan.
func (b *BadgerStore) Count(_ context.Context) (int, error) {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// Close closes the underlying BadgerDB.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func (b *BadgerStore) put(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(sessionKeyPrefix+s.Key), data)
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		return txn.SetEntry(entry)
	})
}
