// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package collab scores candidates with a pre-trained collaborative
// filtering model: a user-embedding table, an item-embedding matrix,
// and a bidirectional encoder between catalog ids and matrix rows.
// The model is a consumed artifact; training happens elsewhere.
package collab

import (
	"errors"
	"fmt"
)

// ErrUnknownID is returned when an id is outside the trained
// vocabulary. Callers treat this as cold start, not a fault.
var ErrUnknownID = errors.New("id not in trained vocabulary")

// IDEncoder maps catalog ids to model-internal item indices and back.
type IDEncoder struct {
	toIndex map[int64]int
	toID    []int64
}

// NewIDEncoder builds an encoder from the ordered list of catalog ids
// the model was trained on. Position in the list is the item index.
func NewIDEncoder(ids []int64) *IDEncoder {
	toIndex := make(map[int64]int, len(ids))
	for i, id := range ids {
		toIndex[id] = i
	}
	return &IDEncoder{toIndex: toIndex, toID: ids}
}

// Index returns the model-internal index for a catalog id.
func (e *IDEncoder) Index(catalogID int64) (int, error) {
	idx, ok := e.toIndex[catalogID]
	if !ok {
		return 0, fmt.Errorf("catalog id %d: %w", catalogID, ErrUnknownID)
	}
	return idx, nil
}

// CatalogID returns the catalog id for a model-internal index.
func (e *IDEncoder) CatalogID(index int) (int64, error) {
	if index < 0 || index >= len(e.toID) {
		return 0, fmt.Errorf("item index %d: %w", index, ErrUnknownID)
	}
	return e.toID[index], nil
}

// Len returns the vocabulary size.
func (e *IDEncoder) Len() int {
	return len(e.toID)
}
