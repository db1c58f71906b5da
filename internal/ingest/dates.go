// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package ingest

import (
	"time"

	"github.com/gamedex/gamedex/internal/models"
)

// releaseDateLayouts are tried in order. The first match wins, so an
// ambiguous value like "01/02/2020" resolves by layout priority.
// "Jan 2006" covers month-only dates, which resolve to the first of the month.
var releaseDateLayouts = []string{
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"Jan 2006",
}

// ParseReleaseDate normalizes a raw release date string to a calendar date.
// Returns a DateFormatError when no layout matches.
func ParseReleaseDate(value string) (models.Date, error) {
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return models.NewDate(t), nil
		}
	}
	return models.Date{}, &DateFormatError{Value: value}
}
