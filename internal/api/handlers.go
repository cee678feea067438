// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package api

import (
	"net/http"

	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/intent"
	"github.com/playwise/playwise/internal/metrics"
	"github.com/playwise/playwise/internal/recommend"
	"github.com/playwise/playwise/internal/session"
)

// Handler bundles the dependencies the HTTP endpoints operate on.
// Oracle may be nil; message handling then skips intent extraction and
// treats every message as carrying no preference signal.
type Handler struct {
	catalog  *catalog.Store
	sessions session.Store
	engine   *recommend.Engine
	oracle   intent.Oracle
}

// NewHandler creates a handler over the given dependencies.
func NewHandler(store *catalog.Store, sessions session.Store, engine *recommend.Engine, oracle intent.Oracle) *Handler {
	return &Handler{
		catalog:  store,
		sessions: sessions,
		engine:   engine,
		oracle:   oracle,
	}
}

// healthStatus is the payload of the health endpoint.
type healthStatus struct {
	Status         string `json:"status"`
	CatalogEntries int    `json:"catalog_entries"`
	ActiveSessions int    `json:"active_sessions"`
	IntentEnabled  bool   `json:"intent_enabled"`
}

// Health reports liveness and catalog readiness. An empty catalog
// degrades the status so orchestrators can hold traffic until the
// first load completes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	entries := h.catalog.Len()
	status := "ok"
	code := http.StatusOK
	if entries == 0 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	active, err := h.sessions.Count(r.Context())
	if err == nil {
		metrics.ActiveSessions.Set(float64(active))
	}

	respondData(w, code, healthStatus{
		Status:         status,
		CatalogEntries: entries,
		ActiveSessions: active,
		IntentEnabled:  h.oracle != nil,
	})
}
