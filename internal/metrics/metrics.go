// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

// Package metrics registers the application's Prometheus instruments.
// Metrics cover API requests, catalog ingestion, and store query timing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamedex_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamedex_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gamedex_api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)

	// Ingestion metrics
	IngestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamedex_ingest_rows_total",
			Help: "Total CSV rows seen by the ingestion pipeline",
		},
		[]string{"outcome"}, // "created", "updated", "skipped"
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gamedex_ingest_duration_seconds",
			Help:    "End-to-end duration of CSV ingestion requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	IngestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamedex_ingest_failures_total",
			Help: "Total failed ingestion requests by stage",
		},
		[]string{"stage"}, // "fetch", "parse", "write"
	)

	// Store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamedex_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordDBQuery records one store operation's duration.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordIngestOutcome adds row counts to the ingestion outcome counters.
func RecordIngestOutcome(created, updated, skipped int) {
	IngestRowsTotal.WithLabelValues("created").Add(float64(created))
	IngestRowsTotal.WithLabelValues("updated").Add(float64(updated))
	IngestRowsTotal.WithLabelValues("skipped").Add(float64(skipped))
}
