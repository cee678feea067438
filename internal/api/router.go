// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
	timeout    time.Duration
}

// NewRouter creates a router. A zero timeout falls back to 30s.
func NewRouter(handler *Handler, mw *Middleware, timeout time.Duration) *Router {
	if mw == nil {
		mw = NewMiddleware(nil)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Router{handler: handler, middleware: mw, timeout: timeout}
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(router.timeout))
	r.Use(router.middleware.CORS())

	// Operational endpoints stay outside the rate limiter so probes
	// and scrapes never compete with API traffic.
	r.Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(Metrics())

		r.Get("/health", router.handler.Health)
		r.Post("/recommend", router.handler.Recommend)

		r.Route("/sessions/{key}", func(r chi.Router) {
			r.Get("/", router.handler.GetSession)
			r.Delete("/", router.handler.ClearSession)
			r.Post("/message", router.handler.Message)
			r.Get("/recommendations", router.handler.Recommendations)
			r.Post("/likes", router.handler.AddLikes)
			r.Post("/dislikes", router.handler.AddDislikes)
			r.Post("/excluded-tags", router.handler.AddExcludedTags)
			r.Post("/preferences", router.handler.SetPreferences)
			r.Post("/profile", router.handler.LinkProfile)
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/search", router.handler.SearchGames)
			r.Get("/top", router.handler.TopGames)
			r.Get("/compare", router.handler.CompareGames)
			r.Get("/{id}", router.handler.GameByID)
		})
	})

	return r
}
