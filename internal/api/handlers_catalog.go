// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/gamedex/gamedex/internal/ingest"
	"github.com/gamedex/gamedex/internal/logging"
	"github.com/gamedex/gamedex/internal/models"
)

// UploadCSV ingests a remote CSV into the catalog.
//
// The request body carries the csv_url. The whole run is atomic: any schema
// or date error rolls everything back and surfaces as a 400 with the flat
// {"message": ...} shape; rows with missing required values are skipped
// without failing the run.
func (h *Handler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "CSV URL is required")
		return
	}

	if req.CSVURL == "" {
		respondMessage(w, http.StatusBadRequest, "CSV URL is required")
		return
	}

	stats, err := h.ingester.Run(r.Context(), req.CSVURL)
	if err != nil {
		h.respondIngestError(w, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("created", stats.Created).
		Int64("updated", stats.Updated).
		Int64("skipped", stats.Skipped).
		Msg("CSV upload processed")

	respondMessage(w, http.StatusOK, "CSV uploaded and processed successfully")
}

// respondIngestError maps pipeline failures onto the upload error contract.
// Every ingest failure is a client-visible 400 with the reason in message.
func (h *Handler) respondIngestError(w http.ResponseWriter, err error) {
	logging.Error().Err(err).Msg("CSV ingest failed")

	var schemaErr *ingest.SchemaError
	var dateErr *ingest.DateFormatError
	var fetchErr *ingest.RemoteFetchError

	switch {
	case errors.Is(err, ingest.ErrInvalidURL):
		respondMessage(w, http.StatusBadRequest, "Invalid CSV URL format")
	case errors.As(err, &fetchErr):
		respondMessage(w, http.StatusBadRequest, fetchErr.Error())
	case errors.As(err, &schemaErr):
		respondMessage(w, http.StatusBadRequest, schemaErr.Error())
	case errors.As(err, &dateErr):
		respondMessage(w, http.StatusBadRequest, dateErr.Error())
	default:
		respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Failed to upload CSV: %s", err))
	}
}

// QueryGames serves the filtered catalog query endpoint.
//
// Aggregates are computed over the whole catalog before any filter is
// applied; the results list honors the filter. The response is always
// {"results": [...], "aggregates": {...}} with aggregates null when none
// were requested.
func (h *Handler) QueryGames(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	compiled, ferr := compileQuery(r.URL.Query())
	if ferr != nil {
		respondMessage(w, ferr.Status, ferr.Message)
		return
	}

	var aggregates map[string]*float64
	if len(compiled.Aggregates) > 0 {
		aggregates = make(map[string]*float64, len(compiled.Aggregates))
		for _, key := range compiled.Aggregates {
			value, err := h.store.PriceAggregate(r.Context(), aggregateKinds[key])
			if err != nil {
				respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "Failed to compute aggregates", err)
				return
			}
			aggregates[key] = value
		}
	}

	results, err := h.store.QueryGames(r.Context(), compiled.Filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "Failed to query games", err)
		return
	}

	writeJSON(w, http.StatusOK, models.QueryResponse{
		Results:    results,
		Aggregates: aggregates,
	})
}

// Stats serves catalog-wide totals.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	start := time.Now()
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STATS_FAILED", "Failed to query catalog stats", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   stats,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
