// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/metrics"
	"github.com/playwise/playwise/internal/session"
)

// GetSession returns the stored conversational state for a key.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	sess, err := h.sessions.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "session not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load session", err)
		return
	}
	metrics.SessionOperationsTotal.WithLabelValues("get").Inc()

	respondData(w, http.StatusOK, sess)
}

// ClearSession resets the conversational state for a key. Clearing an
// absent session succeeds so clients can reset unconditionally.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.sessions.Clear(r.Context(), key); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to clear session", err)
		return
	}
	metrics.SessionOperationsTotal.WithLabelValues("clear").Inc()
	h.updateSessionGauge(r)

	respondData(w, http.StatusOK, map[string]string{"key": key, "cleared": "true"})
}

// TitlesRequest is the body of the likes and dislikes endpoints.
type TitlesRequest struct {
	Titles []string `json:"titles" validate:"required,min=1,dive,min=1"`
}

// TagsRequest is the body of the excluded-tags endpoint.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,min=1"`
}

// PreferencesRequest is the body of the preferences endpoint. All
// fields are optional; present fields merge into the session.
type PreferencesRequest struct {
	Genres     []string            `json:"genres,omitempty"`
	Year       *catalog.YearFilter `json:"year,omitempty"`
	MinPrice   *float64            `json:"min_price,omitempty"`
	MaxPrice   *float64            `json:"max_price,omitempty" validate:"omitempty,gte=0"`
	Platforms  []string            `json:"platforms,omitempty"`
	MinReviews *int64              `json:"min_reviews,omitempty" validate:"omitempty,gte=0"`
}

// ProfileRequest links a session to an external numeric profile id so
// the collaborative tier can score against learned taste.
type ProfileRequest struct {
	UserID *int64 `json:"user_id" validate:"required"`
}

// AddLikes records titles the user likes.
func (h *Handler) AddLikes(w http.ResponseWriter, r *http.Request) {
	mutateSessionAs(h, w, r, func(s *session.Session, req TitlesRequest) {
		for _, title := range req.Titles {
			s.AddLiked(title)
		}
	})
}

// AddDislikes records titles (or id strings) the user dislikes.
func (h *Handler) AddDislikes(w http.ResponseWriter, r *http.Request) {
	mutateSessionAs(h, w, r, func(s *session.Session, req TitlesRequest) {
		for _, title := range req.Titles {
			s.AddDisliked(title)
		}
	})
}

// AddExcludedTags records tags whose games should never surface.
func (h *Handler) AddExcludedTags(w http.ResponseWriter, r *http.Request) {
	mutateSessionAs(h, w, r, func(s *session.Session, req TagsRequest) {
		for _, tag := range req.Tags {
			s.AddExcludedTag(tag)
		}
	})
}

// SetPreferences merges typed preferences into the session.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	mutateSessionAs(h, w, r, func(s *session.Session, req PreferencesRequest) {
		s.MergePreferences(session.Preferences{
			Genres:     req.Genres,
			Year:       req.Year,
			MinPrice:   req.MinPrice,
			MaxPrice:   req.MaxPrice,
			Platforms:  req.Platforms,
			MinReviews: req.MinReviews,
		})
	})
}

// LinkProfile attaches an external profile id to the session.
func (h *Handler) LinkProfile(w http.ResponseWriter, r *http.Request) {
	mutateSessionAs(h, w, r, func(s *session.Session, req ProfileRequest) {
		s.UserID = req.UserID
	})
}

// mutateSessionAs is the shared decode/validate/update/respond flow
// for the session mutation endpoints.
func mutateSessionAs[T any](h *Handler, w http.ResponseWriter, r *http.Request, apply func(*session.Session, T)) {
	key := chi.URLParam(r, "key")

	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	sess, err := h.sessions.Update(r.Context(), key, func(s *session.Session) error {
		apply(s, req)
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to update session", err)
		return
	}
	metrics.SessionOperationsTotal.WithLabelValues("update").Inc()
	h.updateSessionGauge(r)

	respondData(w, http.StatusOK, sess)
}

// updateSessionGauge refreshes the active-session gauge; counting
// failures only cost the gauge, never the request.
func (h *Handler) updateSessionGauge(r *http.Request) {
	if n, err := h.sessions.Count(r.Context()); err == nil {
		metrics.ActiveSessions.Set(float64(n))
	}
}
