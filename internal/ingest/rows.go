// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gamedex/gamedex/internal/logging"
	"github.com/gamedex/gamedex/internal/models"
)

// Column names expected in the source CSV. Only the first three are
// mandatory; every other column is optional and its absence leaves the
// corresponding field null or at its default.
const (
	colAppID              = "AppID"
	colName               = "Name"
	colReleaseDate        = "Release date"
	colRequiredAge        = "Required age"
	colPrice              = "Price"
	colDLCCount           = "DLC count"
	colAboutTheGame       = "About the game"
	colSupportedLanguages = "Supported languages"
	colWindows            = "Windows"
	colMac                = "Mac"
	colLinux              = "Linux"
	colPositive           = "Positive"
	colNegative           = "Negative"
	colScoreRank          = "Score rank"
	colDevelopers         = "Developers"
	colPublishers         = "Publishers"
	colCategories         = "Categories"
	colGenres             = "Genres"
	colTags               = "Tags"
)

var requiredColumns = []string{colAppID, colName, colReleaseDate}

// RowNormalizer maps raw CSV records onto catalog models using the header
// of the file being ingested.
type RowNormalizer struct {
	index map[string]int
}

// NewRowNormalizer validates the header once and builds the column index.
// A header missing any required column yields a SchemaError; no rows from
// such a file are ever processed.
func NewRowNormalizer(header []string) (*RowNormalizer, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	missing := []string{}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		logging.Error().Strs("missing_columns", missing).Msg("CSV missing required columns")
		return nil, &SchemaError{Missing: missing}
	}

	return &RowNormalizer{index: index}, nil
}

// Normalize converts one CSV record into a catalog entry.
//
// A row with an empty AppID, Name or Release date is skipped, not fatal:
// (nil, nil) is returned and the caller counts it. A non-numeric AppID or
// an unrecognized release date is fatal and aborts the run. Optional
// numeric values that fail to parse become null rather than failing the
// row.
func (n *RowNormalizer) Normalize(record []string) (*models.Game, error) {
	appIDRaw := n.value(record, colAppID)
	name := n.value(record, colName)
	releaseDateRaw := n.value(record, colReleaseDate)

	if appIDRaw == "" || name == "" || releaseDateRaw == "" {
		logging.Warn().Str("app_id", appIDRaw).Str("name", name).Msg("CSV row has missing required fields, skipping")
		return nil, nil
	}

	appID, err := strconv.ParseInt(appIDRaw, 10, 64)
	if err != nil {
		logging.Error().Str("app_id", appIDRaw).Msg("CSV row has non-numeric AppID")
		return nil, fmt.Errorf("invalid AppID value '%s': %w", appIDRaw, err)
	}

	releaseDate, err := ParseReleaseDate(releaseDateRaw)
	if err != nil {
		return nil, err
	}

	game := &models.Game{
		AppID:              appID,
		Name:               name,
		ReleaseDate:        releaseDate,
		RequiredAge:        n.intValue(record, colRequiredAge),
		Price:              n.floatValue(record, colPrice),
		DLCCount:           n.intValue(record, colDLCCount),
		AboutTheGame:       n.stringValue(record, colAboutTheGame),
		SupportedLanguages: n.stringValue(record, colSupportedLanguages),
		Windows:            n.value(record, colWindows) == "TRUE",
		Mac:                n.value(record, colMac) == "TRUE",
		Linux:              n.value(record, colLinux) == "TRUE",
		PositiveReviews:    n.counterValue(record, colPositive),
		NegativeReviews:    n.counterValue(record, colNegative),
		ScoreRank:          n.intValue(record, colScoreRank),
		Developers:         n.stringValue(record, colDevelopers),
		Publishers:         n.stringValue(record, colPublishers),
		Categories:         n.stringValue(record, colCategories),
		Genres:             n.stringValue(record, colGenres),
		Tags:               n.stringValue(record, colTags),
	}

	return game, nil
}

// value returns the raw cell for a column, or "" when the column is absent
// or the record is short.
func (n *RowNormalizer) value(record []string, column string) string {
	i, ok := n.index[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (n *RowNormalizer) stringValue(record []string, column string) *string {
	v := n.value(record, column)
	if v == "" {
		return nil
	}
	return &v
}

func (n *RowNormalizer) intValue(record []string, column string) *int64 {
	v := n.value(record, column)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Some sources ship ages like "17.0"
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return nil
		}
		parsed = int64(f)
	}
	return &parsed
}

func (n *RowNormalizer) floatValue(record []string, column string) *float64 {
	v := n.value(record, column)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// counterValue parses review counters, which default to zero instead of null.
func (n *RowNormalizer) counterValue(record []string, column string) int64 {
	v := n.value(record, column)
	if v == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
