// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package ingest

import "fmt"

// SchemaError reports a CSV whose header is missing required columns.
// It aborts the whole run before any row is written.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "CSV file must contain 'AppID', 'Name', and 'Release date' columns."
}

// DateFormatError reports a release date value no known layout matched.
// An unrecognized date aborts the run rather than skipping the row.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("Date format for '%s' is not recognized", e.Value)
}

// IngestionFailure wraps a store-write failure during the reconcile phase.
// The transaction has rolled back; nothing from the batch was committed.
type IngestionFailure struct {
	Stage string
	Err   error
}

func (e *IngestionFailure) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Stage, e.Err)
}

func (e *IngestionFailure) Unwrap() error {
	return e.Err
}

// RemoteFetchError reports a failure to download the CSV from its URL.
type RemoteFetchError struct {
	URL string
	Err error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("Failed to fetch CSV from URL: %v", e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}
