// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

// Package models defines the catalog entities and API wire types shared by
// the ingestion pipeline, the record store, and the HTTP handlers.
package models

import (
	"fmt"
	"time"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// Date is a calendar date without time-of-day. It marshals as "YYYY-MM-DD",
// matching the release_date column and the query grammar.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict "YYYY-MM-DD" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// MarshalJSON renders the date as a quoted "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.Format(dateLayout))), nil
}

// UnmarshalJSON parses a quoted "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// String returns the "YYYY-MM-DD" form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// Game is the canonical catalog record. AppID is the sole upsert key and is
// never regenerated; on re-ingestion of a known AppID every other field is
// overwritten wholesale with the newly normalized values.
//
// Pointer fields are nullable: absence is distinct from zero or empty string.
// Platform booleans default to false and review counters to zero, never null.
type Game struct {
	AppID              int64    `json:"app_id"`
	Name               string   `json:"name"`
	ReleaseDate        Date     `json:"release_date"`
	RequiredAge        *int64   `json:"required_age"`
	Price              *float64 `json:"price"`
	DLCCount           *int64   `json:"dlc_count"`
	AboutTheGame       *string  `json:"about_the_game"`
	SupportedLanguages *string  `json:"supported_languages"`
	Windows            bool     `json:"windows"`
	Mac                bool     `json:"mac"`
	Linux              bool     `json:"linux"`
	PositiveReviews    int64    `json:"positive_reviews"`
	NegativeReviews    int64    `json:"negative_reviews"`
	ScoreRank          *int64   `json:"score_rank"`
	Developers         *string  `json:"developers"`
	Publishers         *string  `json:"publishers"`
	Categories         *string  `json:"categories"`
	Genres             *string  `json:"genres"`
	Tags               *string  `json:"tags"`
}

// CatalogStats summarizes the stored catalog for the dashboard endpoint.
type CatalogStats struct {
	TotalGames      int64      `json:"total_games"`
	WindowsGames    int64      `json:"windows_games"`
	MacGames        int64      `json:"mac_games"`
	LinuxGames      int64      `json:"linux_games"`
	PositiveReviews int64      `json:"positive_reviews"`
	NegativeReviews int64      `json:"negative_reviews"`
	LastIngestTime  *time.Time `json:"last_ingest_time,omitempty"`
}
