// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gamedex/gamedex/internal/logging"
)

// ErrInvalidURL rejects CSV URLs that are empty or not http(s).
var ErrInvalidURL = fmt.Errorf("Invalid CSV URL format")

// Fetcher downloads remote CSV files to local temporary storage.
type Fetcher struct {
	client     *http.Client
	chunkBytes int
	tempDir    string
}

// NewFetcher creates a fetcher. chunkBytes sizes the streaming copy buffer
// so large files never load into memory at once. tempDir may be empty to
// use the system default.
func NewFetcher(client *http.Client, chunkBytes int, tempDir string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if chunkBytes <= 0 {
		chunkBytes = 8192
	}
	return &Fetcher{
		client:     client,
		chunkBytes: chunkBytes,
		tempDir:    tempDir,
	}
}

// NormalizeURL strips surrounding whitespace and stray quotes from a
// user-supplied CSV URL and validates its scheme.
func NormalizeURL(rawURL string) (string, error) {
	cleaned := strings.TrimSpace(rawURL)
	cleaned = strings.Trim(cleaned, "'")
	if !strings.HasPrefix(cleaned, "http://") && !strings.HasPrefix(cleaned, "https://") {
		return "", ErrInvalidURL
	}
	return cleaned, nil
}

// Fetch downloads the CSV at url into a fresh temporary file and returns
// its path. The caller owns the file and must remove it when done. Any
// transport or HTTP status failure is reported as a RemoteFetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	logging.Info().Str("url", url).Msg("Fetching CSV data from URL")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &RemoteFetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &RemoteFetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", &RemoteFetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	file, err := os.CreateTemp(f.tempDir, "gamedex-ingest-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	logging.Info().Str("path", file.Name()).Msg("Saving CSV file")

	buf := make([]byte, f.chunkBytes)
	if _, err := io.CopyBuffer(file, resp.Body, buf); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", &RemoteFetchError{URL: url, Err: err}
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return file.Name(), nil
}
