// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

// Package main is the entry point for the Gamedex server.
//
// Gamedex ingests game catalog CSV exports into DuckDB and serves a
// filtered query API over the stored catalog.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: settings from config file and environment (Koanf v2)
//  2. Database: DuckDB catalog store with schema initialization
//  3. Authentication: JWT manager and middleware
//  4. Ingestion: CSV download and reconciliation pipeline
//  5. HTTP Server: Chi-routed REST API with Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in defaults.
//
// For JWT authentication (default):
//   - JWT_SECRET: 32+ character secret for token signing
//   - ADMIN_USERNAME: Admin username
//   - ADMIN_PASSWORD: Admin password
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits up to 10 seconds for in-flight
// requests, then closes the database.
//
// # Example Usage
//
// Development without authentication:
//
//	export AUTH_MODE=none
//	export DUCKDB_PATH=./gamedex.duckdb
//	./gamedex
//
// Production with JWT:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=secure-password
//	./gamedex
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamedex/gamedex/internal/api"
	"github.com/gamedex/gamedex/internal/auth"
	"github.com/gamedex/gamedex/internal/config"
	"github.com/gamedex/gamedex/internal/database"
	"github.com/gamedex/gamedex/internal/ingest"
	"github.com/gamedex/gamedex/internal/logging"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Gamedex")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == "jwt" {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
	}
	authMW := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode, 5, 5*time.Minute)

	pipeline := ingest.NewPipeline(&cfg.Ingest, db, db, nil)

	handler := api.New(db, pipeline, cfg, jwtManager)
	router := api.NewRouter(handler, authMW, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
