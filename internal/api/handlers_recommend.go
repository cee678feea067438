// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/playwise/playwise/internal/intent"
	"github.com/playwise/playwise/internal/logging"
	"github.com/playwise/playwise/internal/metrics"
	"github.com/playwise/playwise/internal/recommend"
	"github.com/playwise/playwise/internal/session"
)

// MessageRequest is the body of POST /sessions/{key}/message.
type MessageRequest struct {
	// Message is the user's free-text chat turn.
	Message string `json:"message" validate:"required,min=1,max=2000"`

	// UserID links the session to an external profile so the
	// collaborative tier can score against learned taste.
	UserID *int64 `json:"user_id,omitempty"`
}

// MessageResponse returns the updated session and the recommendations
// produced from its state after the message was absorbed.
type MessageResponse struct {
	Session         *session.Session  `json:"session"`
	Recommendations *recommend.Result `json:"recommendations"`
}

// Message absorbs one chat turn: extract preferences from the text,
// fold them into the session under the per-key lock, then recommend
// from the updated state. Extraction failures degrade to "no signal"
// rather than failing the turn.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	ctx := logging.WithSessionID(r.Context(), key)
	log := logging.FromContext(ctx)

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	prefs := h.extractPreferences(ctx, req.Message)

	sess, err := h.sessions.Update(ctx, key, func(s *session.Session) error {
		if req.UserID != nil {
			s.UserID = req.UserID
		}
		for _, title := range prefs.LikedGames {
			s.AddLiked(title)
		}
		for _, title := range prefs.DislikedGames {
			s.AddDisliked(title)
		}
		for _, tag := range prefs.ExcludedTags {
			s.AddExcludedTag(tag)
		}
		s.MergePreferences(session.Preferences{
			Genres:     prefs.Genres,
			Year:       prefs.Year,
			MinPrice:   prefs.MinPrice,
			MaxPrice:   prefs.MaxPrice,
			Platforms:  prefs.Platforms,
			MinReviews: prefs.MinReviews,
		})
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to update session", err)
		return
	}
	metrics.SessionOperationsTotal.WithLabelValues("update").Inc()

	result, err := h.engine.Recommend(ctx, sess, h.engine.DefaultTopN())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "recommendation failed", err)
		return
	}

	log.Debug().
		Str("tier", string(result.Tier)).
		Int("count", len(result.Entries)).
		Msg("Message processed")

	respondData(w, http.StatusOK, MessageResponse{
		Session:         sess,
		Recommendations: result,
	})
}

// extractPreferences runs the intent oracle, absorbing its absence and
// its failures into an empty preference set.
func (h *Handler) extractPreferences(ctx context.Context, text string) intent.Preferences {
	if h.oracle == nil {
		return intent.Preferences{}
	}
	prefs, err := h.oracle.Extract(ctx, text)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Intent extraction failed, continuing without signal")
		return intent.Preferences{}
	}
	return prefs
}

// RecommendRequest is the body of POST /recommend: a one-shot call
// that merges explicit fields (and, optionally, an extracted message)
// into the named session before recommending from it.
type RecommendRequest struct {
	SessionKey    string   `json:"session_key" validate:"required,min=1"`
	LikedGames    []string `json:"liked_games,omitempty"`
	DislikedGames []string `json:"disliked_games,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	ExcludedTags  []string `json:"excluded_tags,omitempty"`
	Message       string   `json:"message,omitempty" validate:"omitempty,max=2000"`
	TopN          *int     `json:"top_n,omitempty"`
}

// Recommend serves POST /recommend. Explicit fields always apply;
// preferences extracted from Message merge afterwards, so a typed
// field and an extracted one accumulate rather than conflict.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	ctx := logging.WithSessionID(r.Context(), req.SessionKey)

	var prefs intent.Preferences
	if req.Message != "" {
		prefs = h.extractPreferences(ctx, req.Message)
	}

	sess, err := h.sessions.Update(ctx, req.SessionKey, func(s *session.Session) error {
		for _, title := range req.LikedGames {
			s.AddLiked(title)
		}
		for _, title := range req.DislikedGames {
			s.AddDisliked(title)
		}
		for _, tag := range req.ExcludedTags {
			s.AddExcludedTag(tag)
		}
		s.MergePreferences(session.Preferences{Genres: req.Genres})

		for _, title := range prefs.LikedGames {
			s.AddLiked(title)
		}
		for _, title := range prefs.DislikedGames {
			s.AddDisliked(title)
		}
		for _, tag := range prefs.ExcludedTags {
			s.AddExcludedTag(tag)
		}
		s.MergePreferences(session.Preferences{
			Genres:     prefs.Genres,
			Year:       prefs.Year,
			MinPrice:   prefs.MinPrice,
			MaxPrice:   prefs.MaxPrice,
			Platforms:  prefs.Platforms,
			MinReviews: prefs.MinReviews,
		})
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to update session", err)
		return
	}
	metrics.SessionOperationsTotal.WithLabelValues("update").Inc()

	topN := h.engine.DefaultTopN()
	if req.TopN != nil {
		topN = *req.TopN
	}

	result, err := h.engine.Recommend(ctx, sess, topN)
	if err != nil {
		if errors.Is(err, recommend.ErrNegativeTopN) {
			respondError(w, http.StatusBadRequest, codeBadRequest, "top_n must be non-negative", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "recommendation failed", err)
		return
	}

	respondData(w, http.StatusOK, MessageResponse{
		Session:         sess,
		Recommendations: result,
	})
}

// Recommendations serves GET /sessions/{key}/recommendations. The
// top_n query parameter overrides the configured default; zero is a
// valid request for an empty result.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	ctx := logging.WithSessionID(r.Context(), key)

	topN, err := getIntParam(r, "top_n", h.engine.DefaultTopN())
	if err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "top_n must be an integer", err)
		return
	}

	sess, err := h.sessions.Get(ctx, key)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "session not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load session", err)
		return
	}
	metrics.SessionOperationsTotal.WithLabelValues("get").Inc()

	result, err := h.engine.Recommend(ctx, sess, topN)
	if err != nil {
		if errors.Is(err, recommend.ErrNegativeTopN) {
			respondError(w, http.StatusBadRequest, codeBadRequest, "top_n must be non-negative", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "recommendation failed", err)
		return
	}

	respondData(w, http.StatusOK, result)
}
