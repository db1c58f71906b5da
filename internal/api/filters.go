// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gamedex/gamedex/internal/database"
)

// Aggregate output keys, in the order kinds are requested.
const (
	aggregateMaxPrice  = "max_price"
	aggregateMinPrice  = "min_price"
	aggregateMeanPrice = "mean_price"
)

// aggregateKinds maps the query-parameter suffix to the store's aggregate
// kind and its output key.
var aggregateKinds = map[string]string{
	aggregateMaxPrice:  "max",
	aggregateMinPrice:  "min",
	aggregateMeanPrice: "mean",
}

// substringColumns are the fields the grammar allows case-insensitive
// substring filtering on. The list is declared here rather than derived
// from the record schema, so adding a column never widens the grammar.
var substringColumns = map[string]bool{
	"name":           true,
	"developers":     true,
	"publishers":     true,
	"categories":     true,
	"genres":         true,
	"tags":           true,
	"about_the_game": true,
}

// filterError carries the HTTP status and message for a rejected query.
type filterError struct {
	Status  int
	Message string
}

func (e *filterError) Error() string {
	return e.Message
}

// compiledQuery is the result of parsing the query grammar: which whole-table
// aggregates to compute, keyed by output name, and the row filter.
type compiledQuery struct {
	Aggregates []string
	Filter     database.GameFilter
}

// compileQuery parses the fixed query grammar from raw query parameters.
//
// Parameters starting with "aggregate_" select whole-table price aggregates.
// "date_gt" and "date_lt" are strict YYYY-MM-DD exclusive bounds.
// "required_age" is an integer equality and "price" a comma-separated list.
// The bare "release_date" parameter is accepted and ignored. Any other
// parameter must name a substring-filterable column or the query is
// rejected with a 400 naming the field.
func compileQuery(values url.Values) (*compiledQuery, *filterError) {
	compiled := &compiledQuery{}

	// Aggregates are processed before filters so an unsupported aggregate
	// rejects the query even when a filter is also bad.
	for field := range values {
		if !strings.HasPrefix(field, "aggregate_") {
			continue
		}
		aggregateField := strings.TrimPrefix(field, "aggregate_")
		if _, ok := aggregateKinds[aggregateField]; !ok {
			return nil, &filterError{Status: 400, Message: fmt.Sprintf("Unsupported aggregate query %s.", aggregateField)}
		}
	}
	// Stable output order regardless of map iteration
	for _, key := range []string{aggregateMaxPrice, aggregateMinPrice, aggregateMeanPrice} {
		if values.Has("aggregate_" + key) {
			compiled.Aggregates = append(compiled.Aggregates, key)
		}
	}

	for field, fieldValues := range values {
		if strings.HasPrefix(field, "aggregate_") {
			continue
		}
		value := fieldValues[len(fieldValues)-1]

		switch {
		case field == "required_age":
			age, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, &filterError{Status: 400, Message: "Invalid age filter value. Must be an integer."}
			}
			compiled.Filter.RequiredAge = &age

		case field == "price":
			prices, err := parsePriceList(value)
			if err != nil {
				return nil, &filterError{Status: 400, Message: "Invalid price filter value. Must be a number."}
			}
			compiled.Filter.Prices = prices

		case field == "release_date":
			// Accepted by the grammar but applies no condition; use the
			// date_gt and date_lt bounds to filter by release date.

		case strings.HasPrefix(field, "date_"):
			bound := strings.TrimPrefix(field, "date_")
			switch bound {
			case "gt":
				t, err := time.Parse("2006-01-02", value)
				if err != nil {
					return nil, &filterError{Status: 400, Message: "Invalid date format for date_gt filter. Must be YYYY-MM-DD."}
				}
				compiled.Filter.ReleasedAfter = &t
			case "lt":
				t, err := time.Parse("2006-01-02", value)
				if err != nil {
					return nil, &filterError{Status: 400, Message: "Invalid date format for date_lt filter. Must be YYYY-MM-DD."}
				}
				compiled.Filter.ReleasedBefore = &t
			default:
				return nil, &filterError{Status: 400, Message: fmt.Sprintf("Unsupported date query %s.", bound)}
			}

		case substringColumns[field]:
			v := value
			switch field {
			case "name":
				compiled.Filter.Name = &v
			case "developers":
				compiled.Filter.Developers = &v
			case "publishers":
				compiled.Filter.Publishers = &v
			case "categories":
				compiled.Filter.Categories = &v
			case "genres":
				compiled.Filter.Genres = &v
			case "tags":
				compiled.Filter.Tags = &v
			case "about_the_game":
				compiled.Filter.AboutTheGame = &v
			}

		default:
			return nil, &filterError{Status: 400, Message: fmt.Sprintf("Field %s does not exist or is not a valid field for filtering.", field)}
		}
	}

	return compiled, nil
}

// parsePriceList splits a comma-separated price parameter. Empty segments
// are dropped, so "5," filters on the single price 5.
func parsePriceList(value string) ([]float64, error) {
	prices := []float64{}
	for _, part := range strings.Split(value, ",") {
		if part == "" {
			continue
		}
		price, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	return prices, nil
}
