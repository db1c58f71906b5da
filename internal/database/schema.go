// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

/*
schema.go - Database Schema Management

This file manages the DuckDB schema for the game catalog.

Tables:
  - games: one row per catalog entry, keyed by the upstream app_id
  - ingest_runs: audit trail of CSV ingestion runs

All columns are defined in the initial CREATE TABLE statement so the
schema has a single source of truth and startup needs no migrations.
*/

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS games (
			app_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			release_date DATE NOT NULL,
			required_age BIGINT,
			price DOUBLE,
			dlc_count BIGINT,
			about_the_game TEXT,
			supported_languages TEXT,
			windows BOOLEAN NOT NULL DEFAULT FALSE,
			mac BOOLEAN NOT NULL DEFAULT FALSE,
			linux BOOLEAN NOT NULL DEFAULT FALSE,
			positive_reviews BIGINT NOT NULL DEFAULT 0,
			negative_reviews BIGINT NOT NULL DEFAULT 0,
			score_rank BIGINT,
			developers TEXT,
			publishers TEXT,
			categories TEXT,
			genres TEXT,
			tags TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id UUID PRIMARY KEY,
			source_url TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			rows_created BIGINT NOT NULL,
			rows_updated BIGINT NOT NULL,
			rows_skipped BIGINT NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// createIndexes creates indexes for frequently filtered columns
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_games_release_date ON games(release_date)",
		"CREATE INDEX IF NOT EXISTS idx_games_price ON games(price)",
		"CREATE INDEX IF NOT EXISTS idx_games_required_age ON games(required_age)",
		"CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs(started_at)",
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
