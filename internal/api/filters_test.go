// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package api

import (
	"net/url"
	"testing"
)

func TestCompileQuery_Empty(t *testing.T) {
	compiled, ferr := compileQuery(url.Values{})
	if ferr != nil {
		t.Fatalf("compileQuery failed: %v", ferr)
	}
	if len(compiled.Aggregates) != 0 {
		t.Errorf("Expected no aggregates, got %v", compiled.Aggregates)
	}
}

func TestCompileQuery_Aggregates(t *testing.T) {
	values := url.Values{}
	values.Set("aggregate_max_price", "")
	values.Set("aggregate_mean_price", "")

	compiled, ferr := compileQuery(values)
	if ferr != nil {
		t.Fatalf("compileQuery failed: %v", ferr)
	}

	if len(compiled.Aggregates) != 2 {
		t.Fatalf("Expected 2 aggregates, got %v", compiled.Aggregates)
	}
	if compiled.Aggregates[0] != "max_price" || compiled.Aggregates[1] != "mean_price" {
		t.Errorf("Unexpected aggregate order: %v", compiled.Aggregates)
	}
}

func TestCompileQuery_UnsupportedAggregate(t *testing.T) {
	values := url.Values{}
	values.Set("aggregate_median_price", "")

	_, ferr := compileQuery(values)
	if ferr == nil {
		t.Fatal("Expected error for unsupported aggregate")
	}
	if ferr.Status != 400 {
		t.Errorf("Expected status 400, got %d", ferr.Status)
	}
	if ferr.Message != "Unsupported aggregate query median_price." {
		t.Errorf("Unexpected message: %q", ferr.Message)
	}
}

func TestCompileQuery_RequiredAge(t *testing.T) {
	values := url.Values{}
	values.Set("required_age", "18")

	compiled, ferr := compileQuery(values)
	if ferr != nil {
		t.Fatalf("compileQuery failed: %v", ferr)
	}
	if compiled.Filter.RequiredAge == nil || *compiled.Filter.RequiredAge != 18 {
		t.Errorf("Expected required age 18, got %v", compiled.Filter.RequiredAge)
	}

	values.Set("required_age", "eighteen")
	_, ferr = compileQuery(values)
	if ferr == nil || ferr.Message != "Invalid age filter value. Must be an integer." {
		t.Errorf("Expected integer error, got %v", ferr)
	}
}

func TestCompileQuery_PriceList(t *testing.T) {
	values := url.Values{}
	values.Set("price", "0,4.99,9.99")

	compiled, ferr := compileQuery(values)
	if ferr != nil {
		t.Fatalf("compileQuery failed: %v", ferr)
	}
	if len(compiled.Filter.Prices) != 3 {
		t.Errorf("Expected 3 prices, got %v", compiled.Filter.Prices)
	}

	// Trailing comma leaves an empty segment, which is dropped
	values.Set("price", "4.99,")
	compiled, ferr = compileQuery(values)
	if ferr != nil {
		t.Fatalf("compileQuery failed: %v", ferr)
	}
	if len(compiled.Filter.Prices) != 1 || compiled.Filter.Prices[0] != 4.99 {
		t.Errorf("Expected single price 4.99, got %v", compiled.Filter.Prices)
	}

	values.Set("price", "free")
	_, ferr = compileQuery(values)
	if ferr == nil || ferr.Message != "Invalid price filter value. Must be a number." {
		t.Errorf("Expected number error, got %v", ferr)
	}
}

func TestCompileQuery_DateBounds(t *testing.T) {
	values := url.Values{}
	values.Set("date_gt", "2020-01-01")
	values.Set("date_lt", "2021-12-31")

	compiled, ferr := compileQuery(values)
	if ferr != nil {
		t.Fatalf("compileQuery failed: %v", ferr)
	}
	if compiled.Filter.ReleasedAfter == nil || compiled.Filter.ReleasedBefore == nil {
		t.Fatal("Expected both date bounds set")
	}
	if compiled.Filter.ReleasedAfter.Format("2006-01-02") != "2020-01-01" {
		t.Errorf("Unexpected date_gt: %v", compiled.Filter.ReleasedAfter)
	}
}

func TestCompileQuery_DateBoundsAreStrictFormat(t *testing.T) {
	// Only YYYY-MM-DD is accepted, not the ingest layouts
	for _, value := range []string{"Jan 1, 2020", "01/01/2020", "2020-1-1", "2020-13-40"} {
		values := url.Values{}
		values.Set("date_gt", value)

		_, ferr := compileQuery(values)
		if ferr == nil {
			t.Errorf("Expected error for date_gt=%q", value)
			continue
		}
		if ferr.Message != "Invalid date format for date_gt filter. Must be YYYY-MM-DD." {
			t.Errorf("Unexpected message for %q: %q", value, ferr.Message)
		}
	}
}

func TestCompileQuery_UnsupportedDateQuery(t *testing.T) {
	values := url.Values{}
	values.Set("date_eq", "2020-01-01")

	_, ferr := compileQuery(values)
	if ferr == nil || ferr.Message != "Unsupported date query eq." {
		t.Errorf("Expected unsupported date query error, got %v", ferr)
	}
}

func TestCompileQuery_SubstringFields(t *testing.T) {
	values := url.Values{}
	values.Set("name", "portal")
	values.Set("genres", "Puzzle")
	values.Set("about_the_game", "co-op")

	compiled, ferr := compileQuery(values)
	if ferr != nil {
		t.Fatalf("compileQuery failed: %v", ferr)
	}
	if compiled.Filter.Name == nil || *compiled.Filter.Name != "portal" {
		t.Errorf("Expected name filter, got %v", compiled.Filter.Name)
	}
	if compiled.Filter.Genres == nil || *compiled.Filter.Genres != "Puzzle" {
		t.Errorf("Expected genres filter, got %v", compiled.Filter.Genres)
	}
	if compiled.Filter.AboutTheGame == nil || *compiled.Filter.AboutTheGame != "co-op" {
		t.Errorf("Expected about_the_game filter, got %v", compiled.Filter.AboutTheGame)
	}
}

func TestCompileQuery_UnknownFieldNamesField(t *testing.T) {
	for _, field := range []string{"supported_languages", "windows", "bogus"} {
		values := url.Values{}
		values.Set(field, "x")

		_, ferr := compileQuery(values)
		if ferr == nil {
			t.Errorf("Expected error for field %q", field)
			continue
		}
		want := "Field " + field + " does not exist or is not a valid field for filtering."
		if ferr.Message != want {
			t.Errorf("Expected %q, got %q", want, ferr.Message)
		}
	}
}

func TestCompileQuery_ReleaseDateParamIgnored(t *testing.T) {
	values := url.Values{}
	values.Set("release_date", "2020-01-01")

	compiled, ferr := compileQuery(values)
	if ferr != nil {
		t.Fatalf("compileQuery failed: %v", ferr)
	}
	if compiled.Filter.ReleasedAfter != nil || compiled.Filter.ReleasedBefore != nil {
		t.Error("Expected release_date param to apply no condition")
	}
}
