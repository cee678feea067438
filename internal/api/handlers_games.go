// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playwise/playwise/internal/catalog"
)

// SearchGames resolves a free-text title to a catalog entry using
// fuzzy matching, so "hades2" finds "Hades II".
func (h *Handler) SearchGames(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, codeBadRequest, "q query parameter is required", nil)
		return
	}

	entry := h.catalog.Lookup(query)
	if entry == nil {
		respondError(w, http.StatusNotFound, codeNotFound, "no matching game found", nil)
		return
	}

	respondData(w, http.StatusOK, entry)
}

// TopGames lists the highest-scored games for a genre, ranked by
// rating, review volume, and positive ratio.
func (h *Handler) TopGames(w http.ResponseWriter, r *http.Request) {
	genre := strings.TrimSpace(r.URL.Query().Get("genre"))
	if genre == "" {
		respondError(w, http.StatusBadRequest, codeBadRequest, "genre query parameter is required", nil)
		return
	}

	top := catalog.TopByGenre(h.catalog.All(), genre)
	respondData(w, http.StatusOK, map[string]interface{}{
		"genre": catalog.NormalizeGenre(genre),
		"games": top,
	})
}

// CompareGames returns the entries for a comma-separated id list so
// clients can render side-by-side comparisons. Unknown ids are
// skipped; only an entirely unknown list is a 404.
func (h *Handler) CompareGames(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		respondError(w, http.StatusBadRequest, codeBadRequest, "ids query parameter is required", nil)
		return
	}

	entries := make([]*catalog.Entry, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, codeBadRequest, "ids must be a comma-separated list of integers", err)
			return
		}
		if entry := h.catalog.Get(id); entry != nil {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		respondError(w, http.StatusNotFound, codeNotFound, "no matching games found", nil)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{"games": entries})
}

// GameByID returns a single catalog entry.
func (h *Handler) GameByID(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "id must be an integer", err)
		return
	}

	entry := h.catalog.Get(id)
	if entry == nil {
		respondError(w, http.StatusNotFound, codeNotFound, "game not found", nil)
		return
	}

	respondData(w, http.StatusOK, entry)
}
