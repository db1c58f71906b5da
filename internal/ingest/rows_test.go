// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package ingest

import (
	"errors"
	"strings"
	"testing"
)

var fullHeader = []string{
	"AppID", "Name", "Release date", "Required age", "Price", "DLC count",
	"About the game", "Supported languages", "Windows", "Mac", "Linux",
	"Positive", "Negative", "Score rank",
	"Developers", "Publishers", "Categories", "Genres", "Tags",
}

func TestNewRowNormalizer_MissingRequiredColumn(t *testing.T) {
	_, err := NewRowNormalizer([]string{"AppID", "Name", "Price"})
	if err == nil {
		t.Fatal("Expected error for header without 'Release date'")
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected *SchemaError, got %T", err)
	}

	want := "CSV file must contain 'AppID', 'Name', and 'Release date' columns."
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestNormalize_FullRow(t *testing.T) {
	n, err := NewRowNormalizer(fullHeader)
	if err != nil {
		t.Fatalf("NewRowNormalizer failed: %v", err)
	}

	game, err := n.Normalize([]string{
		"440", "Team Game", "Oct 10, 2007", "13", "9.99", "2",
		"A class-based shooter", "English;German", "TRUE", "TRUE", "FALSE",
		"100", "10", "95",
		"Valve", "Valve", "Multi-player", "Action", "FPS",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if game == nil {
		t.Fatal("Expected game, got skip")
	}

	if game.AppID != 440 {
		t.Errorf("Expected AppID 440, got %d", game.AppID)
	}
	if game.ReleaseDate.String() != "2007-10-10" {
		t.Errorf("Expected release date 2007-10-10, got %s", game.ReleaseDate)
	}
	if game.RequiredAge == nil || *game.RequiredAge != 13 {
		t.Errorf("Expected required age 13, got %v", game.RequiredAge)
	}
	if game.Price == nil || *game.Price != 9.99 {
		t.Errorf("Expected price 9.99, got %v", game.Price)
	}
	if !game.Windows || !game.Mac || game.Linux {
		t.Errorf("Unexpected platform flags: windows=%v mac=%v linux=%v", game.Windows, game.Mac, game.Linux)
	}
	if game.PositiveReviews != 100 || game.NegativeReviews != 10 {
		t.Errorf("Unexpected review counts: %d/%d", game.PositiveReviews, game.NegativeReviews)
	}
	if game.ScoreRank == nil || *game.ScoreRank != 95 {
		t.Errorf("Expected score rank 95, got %v", game.ScoreRank)
	}
	if game.Developers == nil || *game.Developers != "Valve" {
		t.Errorf("Expected developers Valve, got %v", game.Developers)
	}
}

func TestNormalize_MissingRequiredValuesSkips(t *testing.T) {
	n, err := NewRowNormalizer([]string{"AppID", "Name", "Release date"})
	if err != nil {
		t.Fatalf("NewRowNormalizer failed: %v", err)
	}

	tests := [][]string{
		{"", "Game", "2020-01-01"},
		{"10", "", "2020-01-01"},
		{"10", "Game", ""},
	}

	for _, record := range tests {
		game, err := n.Normalize(record)
		if err != nil {
			t.Errorf("Normalize(%v) failed: %v", record, err)
		}
		if game != nil {
			t.Errorf("Normalize(%v) returned a game, want skip", record)
		}
	}
}

func TestNormalize_NonNumericAppIDIsFatal(t *testing.T) {
	n, err := NewRowNormalizer([]string{"AppID", "Name", "Release date"})
	if err != nil {
		t.Fatalf("NewRowNormalizer failed: %v", err)
	}

	game, err := n.Normalize([]string{"abc", "Game", "2020-01-01"})
	if err == nil {
		t.Fatal("Expected error for non-numeric AppID")
	}
	if game != nil {
		t.Error("Expected no game for non-numeric AppID")
	}
	if !strings.Contains(err.Error(), "invalid AppID value 'abc'") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestNormalize_UnrecognizedDateIsFatal(t *testing.T) {
	n, err := NewRowNormalizer([]string{"AppID", "Name", "Release date"})
	if err != nil {
		t.Fatalf("NewRowNormalizer failed: %v", err)
	}

	_, err = n.Normalize([]string{"10", "Game", "2020/99/99"})
	if err == nil {
		t.Fatal("Expected error for unrecognized date")
	}

	var dateErr *DateFormatError
	if !errors.As(err, &dateErr) {
		t.Errorf("Expected *DateFormatError, got %T", err)
	}
}

func TestNormalize_BooleansRequireExactTrue(t *testing.T) {
	n, err := NewRowNormalizer([]string{"AppID", "Name", "Release date", "Windows"})
	if err != nil {
		t.Fatalf("NewRowNormalizer failed: %v", err)
	}

	// Only the exact string TRUE enables a platform flag
	for _, value := range []string{"true", "True", "1", "yes", "FALSE", ""} {
		game, err := n.Normalize([]string{"10", "Game", "2020-01-01", value})
		if err != nil || game == nil {
			t.Fatalf("Normalize failed for %q: %v", value, err)
		}
		if game.Windows {
			t.Errorf("Expected windows=false for %q", value)
		}
	}

	game, err := n.Normalize([]string{"10", "Game", "2020-01-01", "TRUE"})
	if err != nil || game == nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !game.Windows {
		t.Error("Expected windows=true for TRUE")
	}
}

func TestNormalize_OptionalNumericsBecomeNull(t *testing.T) {
	n, err := NewRowNormalizer([]string{"AppID", "Name", "Release date", "Price", "Required age", "Positive"})
	if err != nil {
		t.Fatalf("NewRowNormalizer failed: %v", err)
	}

	game, err := n.Normalize([]string{"10", "Game", "2020-01-01", "free", "unknown", "n/a"})
	if err != nil || game == nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if game.Price != nil {
		t.Errorf("Expected nil price, got %v", *game.Price)
	}
	if game.RequiredAge != nil {
		t.Errorf("Expected nil required age, got %v", *game.RequiredAge)
	}
	if game.PositiveReviews != 0 {
		t.Errorf("Expected review counter to default to 0, got %d", game.PositiveReviews)
	}
}

func TestNormalize_ShortRecord(t *testing.T) {
	n, err := NewRowNormalizer(fullHeader)
	if err != nil {
		t.Fatalf("NewRowNormalizer failed: %v", err)
	}

	// Record shorter than the header: trailing columns read as absent
	game, err := n.Normalize([]string{"10", "Game", "2020-01-01"})
	if err != nil || game == nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if game.Price != nil || game.Tags != nil {
		t.Error("Expected absent trailing columns to be null")
	}
	if game.Windows {
		t.Error("Expected absent platform column to default to false")
	}
}
