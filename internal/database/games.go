// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gamedex/gamedex/internal/metrics"
	"github.com/gamedex/gamedex/internal/models"
)

// gameColumns lists the games table columns in scan order.
const gameColumns = `app_id, name, release_date, required_age, price, dlc_count,
	about_the_game, supported_languages, windows, mac, linux,
	positive_reviews, negative_reviews, score_rank,
	developers, publishers, categories, genres, tags`

// ExistingAppIDs returns the subset of the given app IDs that already have
// a catalog row. Used to partition an ingest batch into creates and updates.
func (db *DB) ExistingAppIDs(ctx context.Context, appIDs []int64) (map[int64]bool, error) {
	existing := make(map[int64]bool, len(appIDs))
	if len(appIDs) == 0 {
		return existing, nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("existing_app_ids", time.Since(start)) }()

	placeholders := make([]string, len(appIDs))
	args := make([]interface{}, len(appIDs))
	for i, id := range appIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf("SELECT app_id FROM games WHERE app_id IN (%s)", strings.Join(placeholders, ", "))

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing app ids: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan app id: %w", err)
		}
		existing[id] = true
	}

	return existing, rows.Err()
}

// ApplyBatch writes one reconciled ingest batch in a single transaction.
// New games are inserted with ON CONFLICT DO NOTHING so a row that appeared
// between the existence check and the write is silently left to the update
// path of a later run. Updates replace every mutable column. The transaction
// commits or rolls back as a whole.
func (db *DB) ApplyBatch(ctx context.Context, creates, updates []models.Game) error {
	if len(creates) == 0 && len(updates) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("apply_batch", time.Since(start)) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(creates) > 0 {
		insertQuery := fmt.Sprintf(`INSERT INTO games (%s)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (app_id) DO NOTHING`, gameColumns)

		stmt, err := tx.PrepareContext(ctx, insertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer closeQuietly(stmt)

		for i := range creates {
			g := &creates[i]
			if _, err := stmt.ExecContext(ctx,
				g.AppID, g.Name, g.ReleaseDate.Time, g.RequiredAge, g.Price, g.DLCCount,
				g.AboutTheGame, g.SupportedLanguages, g.Windows, g.Mac, g.Linux,
				g.PositiveReviews, g.NegativeReviews, g.ScoreRank,
				g.Developers, g.Publishers, g.Categories, g.Genres, g.Tags,
			); err != nil {
				return fmt.Errorf("failed to insert game %d: %w", g.AppID, err)
			}
		}
	}

	if len(updates) > 0 {
		updateQuery := `UPDATE games SET
			name = ?, release_date = ?, required_age = ?, price = ?, dlc_count = ?,
			about_the_game = ?, supported_languages = ?, windows = ?, mac = ?, linux = ?,
			positive_reviews = ?, negative_reviews = ?, score_rank = ?,
			developers = ?, publishers = ?, categories = ?, genres = ?, tags = ?
			WHERE app_id = ?`

		stmt, err := tx.PrepareContext(ctx, updateQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare update: %w", err)
		}
		defer closeQuietly(stmt)

		for i := range updates {
			g := &updates[i]
			if _, err := stmt.ExecContext(ctx,
				g.Name, g.ReleaseDate.Time, g.RequiredAge, g.Price, g.DLCCount,
				g.AboutTheGame, g.SupportedLanguages, g.Windows, g.Mac, g.Linux,
				g.PositiveReviews, g.NegativeReviews, g.ScoreRank,
				g.Developers, g.Publishers, g.Categories, g.Genres, g.Tags,
				g.AppID,
			); err != nil {
				return fmt.Errorf("failed to update game %d: %w", g.AppID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// QueryGames returns catalog rows matching the filter, ordered by app_id for
// stable pagination-free output.
func (db *DB) QueryGames(ctx context.Context, filter GameFilter) ([]models.Game, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("query_games", time.Since(start)) }()

	query := fmt.Sprintf("SELECT %s FROM games", gameColumns)

	whereClauses, args := buildFilterConditions(filter)
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY app_id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer closeWithLog(rows, "rows")

	games := []models.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	return games, rows.Err()
}

// scanGame reads one games row into a model
func scanGame(rows *sql.Rows) (models.Game, error) {
	var (
		g           models.Game
		releaseDate time.Time
		requiredAge sql.NullInt64
		price       sql.NullFloat64
		dlcCount    sql.NullInt64
		about       sql.NullString
		languages   sql.NullString
		scoreRank   sql.NullInt64
		developers  sql.NullString
		publishers  sql.NullString
		categories  sql.NullString
		genres      sql.NullString
		tags        sql.NullString
	)

	if err := rows.Scan(
		&g.AppID, &g.Name, &releaseDate, &requiredAge, &price, &dlcCount,
		&about, &languages, &g.Windows, &g.Mac, &g.Linux,
		&g.PositiveReviews, &g.NegativeReviews, &scoreRank,
		&developers, &publishers, &categories, &genres, &tags,
	); err != nil {
		return g, fmt.Errorf("failed to scan game: %w", err)
	}

	g.ReleaseDate = models.NewDate(releaseDate)
	if requiredAge.Valid {
		g.RequiredAge = &requiredAge.Int64
	}
	if price.Valid {
		g.Price = &price.Float64
	}
	if dlcCount.Valid {
		g.DLCCount = &dlcCount.Int64
	}
	if about.Valid {
		g.AboutTheGame = &about.String
	}
	if languages.Valid {
		g.SupportedLanguages = &languages.String
	}
	if scoreRank.Valid {
		g.ScoreRank = &scoreRank.Int64
	}
	if developers.Valid {
		g.Developers = &developers.String
	}
	if publishers.Valid {
		g.Publishers = &publishers.String
	}
	if categories.Valid {
		g.Categories = &categories.String
	}
	if genres.Valid {
		g.Genres = &genres.String
	}
	if tags.Valid {
		g.Tags = &tags.String
	}

	return g, nil
}

// PriceAggregate computes a single price aggregate over the whole catalog,
// never the filtered subset. kind is one of "max", "min" or "mean". The
// result is nil when no row has a price. Mean is rounded to three decimals.
func (db *DB) PriceAggregate(ctx context.Context, kind string) (*float64, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("price_aggregate", time.Since(start)) }()

	var expr string
	switch kind {
	case "max":
		expr = "MAX(price)"
	case "min":
		expr = "MIN(price)"
	case "mean":
		expr = "AVG(price)"
	default:
		return nil, fmt.Errorf("unsupported price aggregate: %s", kind)
	}

	var value sql.NullFloat64
	query := fmt.Sprintf("SELECT %s FROM games", expr)
	if err := db.conn.QueryRowContext(ctx, query).Scan(&value); err != nil {
		return nil, fmt.Errorf("failed to compute %s price: %w", kind, err)
	}

	if !value.Valid {
		return nil, nil
	}

	result := value.Float64
	if kind == "mean" {
		result = math.Round(result*1000) / 1000
	}
	return &result, nil
}

// CountGames returns the total number of catalog rows.
func (db *DB) CountGames(ctx context.Context) (int64, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("count_games", time.Since(start)) }()

	var count int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return count, nil
}

// Stats returns catalog-wide totals for the stats endpoint.
func (db *DB) Stats(ctx context.Context) (*models.CatalogStats, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("stats", time.Since(start)) }()

	stats := &models.CatalogStats{}

	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN windows THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN mac THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN linux THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(positive_reviews), 0),
		COALESCE(SUM(negative_reviews), 0)
		FROM games`

	if err := db.conn.QueryRowContext(ctx, query).Scan(
		&stats.TotalGames, &stats.WindowsGames, &stats.MacGames, &stats.LinuxGames,
		&stats.PositiveReviews, &stats.NegativeReviews,
	); err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	var lastIngest sql.NullTime
	if err := db.conn.QueryRowContext(ctx, "SELECT MAX(finished_at) FROM ingest_runs").Scan(&lastIngest); err != nil {
		return nil, fmt.Errorf("failed to query last ingest time: %w", err)
	}
	if lastIngest.Valid {
		stats.LastIngestTime = &lastIngest.Time
	}

	return stats, nil
}

// RecordIngestRun appends one row to the ingest audit trail.
func (db *DB) RecordIngestRun(ctx context.Context, sourceURL string, startedAt, finishedAt time.Time, created, updated, skipped int64) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("record_ingest_run", time.Since(start)) }()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source_url, started_at, finished_at, rows_created, rows_updated, rows_skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New(), sourceURL, startedAt, finishedAt, created, updated, skipped,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest run: %w", err)
	}
	return nil
}
