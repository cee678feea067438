// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned when a session key has no stored session.
var ErrNotFound = errors.New("session not found")

// Store is the pluggable session backend. GetOrCreate is the lazy
// creation entry point; Update serializes mutation per session key so
// concurrent messages from the same user cannot lose updates.
type Store interface {
	// GetOrCreate returns the session for key, creating it if absent.
	GetOrCreate(ctx context.Context, key string) (*Session, error)

	// Get returns the session for key or ErrNotFound.
	Get(ctx context.Context, key string) (*Session, error)

	// Update applies fn to the session for key under the per-key lock,
	// creating the session if absent, and persists the result.
	Update(ctx context.Context, key string, fn func(*Session) error) (*Session, error)

	// Clear removes the session for key. Clearing an absent session
	// is not an error.
	Clear(ctx context.Context, key string) error

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// StoreType identifies a session store backend.
type StoreType string

// Supported session store backends.
const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeBadger StoreType = "badger"
)

// Options configures session store construction.
type Options struct {
	// Type selects the backend.
	Type StoreType

	// Path is the Badger data directory (badger only).
	Path string

	// TTL is how long idle sessions persist (badger only; the memory
	// store keeps sessions for the process lifetime).
	TTL time.Duration
}

// NewStore constructs a session store for the given options.
func NewStore(opts Options) (Store, error) {
	switch opts.Type {
	case StoreTypeMemory, "":
		return NewMemoryStore(), nil
	case StoreTypeBadger:
		return NewBadgerStore(opts.Path, opts.TTL)
	default:
		return nil, fmt.Errorf("unknown session store type: %q", opts.Type)
	}
}

// keyLocks hands out one mutex per session key so same-user mutations
// serialize while different users proceed independently.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyLocks) lock(key string) *sync.Mutex {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m
}

func (k *keyLocks) drop(key string) {
	k.mu.Lock()
	delete(k.locks, key)
	k.mu.Unlock()
}
