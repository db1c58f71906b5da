// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

// Package api provides the HTTP handlers and Chi routing for the catalog
// service: CSV ingestion, filtered catalog queries, authentication and
// operational endpoints.
package api

import (
	"context"
	"time"

	"github.com/gamedex/gamedex/internal/auth"
	"github.com/gamedex/gamedex/internal/config"
	"github.com/gamedex/gamedex/internal/database"
	"github.com/gamedex/gamedex/internal/ingest"
	"github.com/gamedex/gamedex/internal/models"
)

// CatalogStore is the read surface the query handlers need.
// *database.DB satisfies it.
type CatalogStore interface {
	QueryGames(ctx context.Context, filter database.GameFilter) ([]models.Game, error)
	PriceAggregate(ctx context.Context, kind string) (*float64, error)
	Stats(ctx context.Context) (*models.CatalogStats, error)
	Ping(ctx context.Context) error
}

// Ingester runs one CSV ingestion end to end. *ingest.Pipeline satisfies it.
type Ingester interface {
	Run(ctx context.Context, csvURL string) (*ingest.Stats, error)
}

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	store      CatalogStore
	ingester   Ingester
	config     *config.Config
	jwtManager *auth.JWTManager
	startTime  time.Time
}

// New creates the handler set.
func New(store CatalogStore, ingester Ingester, cfg *config.Config, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		store:      store,
		ingester:   ingester,
		config:     cfg,
		jwtManager: jwtManager,
		startTime:  time.Now(),
	}
}
