// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

// Package ingest implements the CSV ingestion pipeline: download the file
// to temporary storage, normalize rows in chunks, then reconcile the batch
// against the stored catalog in a single transaction.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gamedex/gamedex/internal/config"
	"github.com/gamedex/gamedex/internal/logging"
	"github.com/gamedex/gamedex/internal/metrics"
	"github.com/gamedex/gamedex/internal/models"
)

// RunRecorder persists the audit row for a completed ingest run.
// Optional: a nil recorder disables the audit trail.
type RunRecorder interface {
	RecordIngestRun(ctx context.Context, sourceURL string, startedAt, finishedAt time.Time, created, updated, skipped int64) error
}

// Stats accounts for one ingest run.
type Stats struct {
	TotalRows int64     `json:"total_rows"`
	Created   int64     `json:"created"`
	Updated   int64     `json:"updated"`
	Skipped   int64     `json:"skipped"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns the wall time of the run.
func (s *Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Pipeline runs CSV ingestion end to end.
type Pipeline struct {
	cfg      *config.IngestConfig
	store    Store
	recorder RunRecorder
	fetcher  *Fetcher
}

// NewPipeline creates the ingestion pipeline. recorder may be nil.
func NewPipeline(cfg *config.IngestConfig, store Store, recorder RunRecorder, fetcher *Fetcher) *Pipeline {
	if fetcher == nil {
		fetcher = NewFetcher(nil, cfg.DownloadChunkBytes, cfg.TempDir)
	}
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		recorder: recorder,
		fetcher:  fetcher,
	}
}

// Run ingests the CSV at rawURL. The whole batch commits atomically: a
// schema error, an unrecognized date or a write failure leaves the catalog
// untouched. Rows with empty required values are skipped and counted, and
// the run still succeeds.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	defer func() {
		stats.EndTime = time.Now()
		metrics.IngestDuration.Observe(stats.Duration().Seconds())
	}()

	url, err := NormalizeURL(rawURL)
	if err != nil {
		return stats, err
	}

	path, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("fetch").Inc()
		return stats, err
	}
	defer func() {
		if removeErr := os.Remove(path); removeErr != nil {
			logging.Warn().Err(removeErr).Str("path", path).Msg("Failed to remove temp CSV file")
		}
	}()

	games, err := p.parseFile(path, stats)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("parse").Inc()
		return stats, err
	}

	created, updated, err := Reconcile(ctx, p.store, games)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("write").Inc()
		return stats, err
	}
	stats.Created = created
	stats.Updated = updated

	metrics.RecordIngestOutcome(int(created), int(updated), int(stats.Skipped))

	if p.recorder != nil {
		if err := p.recorder.RecordIngestRun(ctx, url, stats.StartTime, time.Now(), created, updated, stats.Skipped); err != nil {
			logging.Warn().Err(err).Msg("Failed to record ingest run")
		}
	}

	logging.Info().
		Int64("total_rows", stats.TotalRows).
		Int64("created", stats.Created).
		Int64("updated", stats.Updated).
		Int64("skipped", stats.Skipped).
		Dur("duration", stats.Duration()).
		Msg("Ingest completed")

	return stats, nil
}

// parseFile streams the CSV and normalizes every row. Rows are read in
// chunks of RowBatchSize to bound per-iteration work on large files.
func (p *Pipeline) parseFile(path string, stats *Stats) ([]models.Game, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &SchemaError{Missing: requiredColumns}
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	normalizer, err := NewRowNormalizer(header)
	if err != nil {
		return nil, err
	}

	batchSize := p.cfg.RowBatchSize
	if batchSize <= 0 {
		batchSize = 20000
	}
	logging.Info().Int("chunk_size", batchSize).Msg("Processing CSV file in chunks")

	games := []models.Game{}
	rowsInChunk := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		stats.TotalRows++
		rowsInChunk++
		if rowsInChunk == batchSize {
			logging.Debug().Int64("rows_read", stats.TotalRows).Msg("CSV chunk processed")
			rowsInChunk = 0
		}

		game, err := normalizer.Normalize(record)
		if err != nil {
			return nil, err
		}
		if game == nil {
			stats.Skipped++
			continue
		}
		games = append(games, *game)
	}

	return games, nil
}
