// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLevelHelpersWriteToGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "trace", Output: &buf})
	defer Init(Config{})

	Trace().Msg("trace line")
	Debug().Msg("debug line")
	Info().Msg("info line")
	Warn().Msg("warn line")
	Error().Msg("error line")

	out := buf.String()
	for _, want := range []string{"trace line", "debug line", "info line", "warn line", "error line"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestInitRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(Config{})

	Info().Msg("suppressed")
	Warn().Msg("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("Expected info line to be filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("Expected warn line in output, got: %s", out)
	}
}

func TestCtxAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer Init(Config{})

	ctx := ContextWithRequestID(context.Background(), "req-123")
	Ctx(ctx).Info().Msg("with request id")

	if !strings.Contains(buf.String(), "req-123") {
		t.Errorf("Expected request_id in output, got: %s", buf.String())
	}
}
