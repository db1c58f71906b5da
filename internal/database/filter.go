// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package database

import (
	"fmt"
	"strings"
	"time"
)

// GameFilter contains filter parameters for catalog queries.
//
// All fields are optional and combine using AND logic. Prices with more
// than one value use an IN clause (OR within the field). The substring
// fields match case-insensitively anywhere in the column value.
//
// Date bounds are strict: ReleasedAfter matches release_date > bound and
// ReleasedBefore matches release_date < bound, never >= or <=.
type GameFilter struct {
	RequiredAge    *int64
	Prices         []float64
	ReleasedAfter  *time.Time
	ReleasedBefore *time.Time

	// Case-insensitive substring matches against text columns
	Name         *string
	Developers   *string
	Publishers   *string
	Categories   *string
	Genres       *string
	Tags         *string
	AboutTheGame *string
}

// appendInClause builds a parameterized SQL IN clause for a float list
func appendInClause(columnName string, values []float64, whereClauses *[]string, args *[]interface{}) {
	if len(values) == 0 {
		return
	}

	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, v)
	}

	*whereClauses = append(*whereClauses, fmt.Sprintf("%s IN (%s)", columnName, strings.Join(placeholders, ", ")))
}

// escapeLikePattern escapes LIKE metacharacters so the filter value matches
// literally instead of acting as a wildcard pattern.
func escapeLikePattern(value string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return escaper.Replace(value)
}

// appendContainsClause builds a case-insensitive substring condition
func appendContainsClause(columnName string, value *string, whereClauses *[]string, args *[]interface{}) {
	if value == nil {
		return
	}

	*whereClauses = append(*whereClauses, fmt.Sprintf(`%s ILIKE '%%' || ? || '%%' ESCAPE '\'`, columnName))
	*args = append(*args, escapeLikePattern(*value))
}

// buildFilterConditions builds WHERE clause conditions and args from a GameFilter.
// Returns (whereClauses, args) that can be used to build parameterized queries.
func buildFilterConditions(filter GameFilter) ([]string, []interface{}) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.RequiredAge != nil {
		whereClauses = append(whereClauses, "required_age = ?")
		args = append(args, *filter.RequiredAge)
	}

	switch len(filter.Prices) {
	case 0:
	case 1:
		whereClauses = append(whereClauses, "price = ?")
		args = append(args, filter.Prices[0])
	default:
		appendInClause("price", filter.Prices, &whereClauses, &args)
	}

	if filter.ReleasedAfter != nil {
		whereClauses = append(whereClauses, "release_date > ?")
		args = append(args, *filter.ReleasedAfter)
	}

	if filter.ReleasedBefore != nil {
		whereClauses = append(whereClauses, "release_date < ?")
		args = append(args, *filter.ReleasedBefore)
	}

	appendContainsClause("name", filter.Name, &whereClauses, &args)
	appendContainsClause("developers", filter.Developers, &whereClauses, &args)
	appendContainsClause("publishers", filter.Publishers, &whereClauses, &args)
	appendContainsClause("categories", filter.Categories, &whereClauses, &args)
	appendContainsClause("genres", filter.Genres, &whereClauses, &args)
	appendContainsClause("tags", filter.Tags, &whereClauses, &args)
	appendContainsClause("about_the_game", filter.AboutTheGame, &whereClauses, &args)

	return whereClauses, args
}
