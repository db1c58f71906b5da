// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package ingest

import (
	"context"

	"github.com/gamedex/gamedex/internal/models"
)

// Store is the persistence surface the pipeline needs. *database.DB
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	ExistingAppIDs(ctx context.Context, appIDs []int64) (map[int64]bool, error)
	ApplyBatch(ctx context.Context, creates, updates []models.Game) error
}

// Reconcile partitions a normalized batch against the stored catalog and
// writes it in one transaction.
//
// When the batch repeats an app_id, the last occurrence wins and earlier
// ones are dropped before partitioning, mirroring how a sequential
// per-row upsert would end up. Returns (created, updated) counts.
func Reconcile(ctx context.Context, store Store, games []models.Game) (int64, int64, error) {
	if len(games) == 0 {
		return 0, 0, nil
	}

	// Last occurrence wins while preserving first-seen order
	deduped := make([]models.Game, 0, len(games))
	position := make(map[int64]int, len(games))
	for _, g := range games {
		if i, seen := position[g.AppID]; seen {
			deduped[i] = g
			continue
		}
		position[g.AppID] = len(deduped)
		deduped = append(deduped, g)
	}

	appIDs := make([]int64, len(deduped))
	for i, g := range deduped {
		appIDs[i] = g.AppID
	}

	existing, err := store.ExistingAppIDs(ctx, appIDs)
	if err != nil {
		return 0, 0, &IngestionFailure{Stage: "look up existing games", Err: err}
	}

	creates := []models.Game{}
	updates := []models.Game{}
	for _, g := range deduped {
		if existing[g.AppID] {
			updates = append(updates, g)
		} else {
			creates = append(creates, g)
		}
	}

	if err := store.ApplyBatch(ctx, creates, updates); err != nil {
		return 0, 0, &IngestionFailure{Stage: "apply batch", Err: err}
	}

	return int64(len(creates)), int64(len(updates)), nil
}
