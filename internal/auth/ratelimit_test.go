// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package auth

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow("10.0.0.1") {
		t.Error("Fourth request should be blocked")
	}
}

func TestRateLimiter_TracksClientsIndependently(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("First client should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("Second client should have its own budget")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("First client should be exhausted")
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	rl.Allow("10.0.0.1")

	rl.mu.Lock()
	rl.limiters["10.0.0.1"].lastAccess = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.Lock()
	_, exists := rl.limiters["10.0.0.1"]
	rl.mu.Unlock()

	if exists {
		t.Error("Expected stale entry to be removed")
	}
}
