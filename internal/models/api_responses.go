// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package models

import "time"

// APIResponse is the standard envelope for management endpoints (login,
// stats, health). The catalog upload and query endpoints use the fixed
// MessageResponse/QueryResponse shapes instead, which are part of their
// external contract.
type APIResponse struct {
	Status   string      `json:"status"` // "success" or "error"
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error payload.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MessageResponse is the fixed body shape of the upload endpoint and of all
// catalog endpoint errors: {"message": <reason>}.
type MessageResponse struct {
	Message string `json:"message"`
}

// UploadRequest is the upload endpoint request body.
type UploadRequest struct {
	CSVURL string `json:"csv_url"`
}

// QueryResponse is the query endpoint response body. Aggregates is null
// (not an empty object) when no aggregate was requested; individual values
// may be null when the table or column is empty.
type QueryResponse struct {
	Results    []Game              `json:"results"`
	Aggregates map[string]*float64 `json:"aggregates"`
}

// LoginRequest is the login endpoint request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}
