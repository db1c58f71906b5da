// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gamedex/gamedex/internal/auth"
	"github.com/gamedex/gamedex/internal/config"
	"github.com/gamedex/gamedex/internal/middleware"
)

// Router wires handlers, middleware and configuration into the HTTP mux.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	cfg     *config.Config
}

// NewRouter creates the router.
func NewRouter(handler *Handler, authMW *auth.Middleware, cfg *config.Config) *Router {
	return &Router{
		handler: handler,
		authMW:  authMW,
		cfg:     cfg,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler form.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// rateLimit returns an IP-keyed httprate limiter, or a no-op when rate
// limiting is disabled in config.
func (router *Router) rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if router.cfg.Security.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window, httprate.WithKeyFuncs(httprate.KeyByIP))
}

// Setup configures all HTTP routes.
//
// The data endpoints under /api/v1 all require authentication; health,
// login and /metrics do not. CORS is global so OPTIONS preflights are
// handled before any auth check.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Handle("/metrics", promhttp.Handler())

	// Permissive limit so monitoring can poll frequently
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.rateLimit(1000, time.Minute))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Login gets its own strict per-IP limiter on top of the group limit
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.rateLimit(30, time.Minute))
		r.With(chiMiddleware(router.authMW.LimitLogin)).Post("/login", router.handler.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.rateLimit(router.cfg.Security.RateLimitReqs, router.cfg.Security.RateLimitWindow))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.authMW.Authenticate))

		r.Post("/catalog/upload", router.handler.UploadCSV)
		r.Get("/catalog/query", router.handler.QueryGames)
		r.Get("/stats", router.handler.Stats)
	})

	return r
}
