// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"WARN", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTestLoggerOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("expected component field in output, got %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID on empty context = %q, want empty", got)
	}

	id := NewRequestID()
	if id == "" {
		t.Fatal("NewRequestID returned empty string")
	}

	ctx = WithRequestID(ctx, id)
	if got := RequestID(ctx); got != id {
		t.Errorf("RequestID = %q, want %q", got, id)
	}

	ctx = WithSessionID(ctx, "sess-1")
	if got := SessionID(ctx); got != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", got)
	}
}

func TestFromContextChainsDirectly(t *testing.T) {
	t.Parallel()

	ctx := WithSessionID(WithRequestID(context.Background(), "req-9"), "sess-9")

	// Callers chain events straight off the returned logger, so it
	// must come back as a pointer.
	FromContext(ctx).Debug().Msg("chained call")

	log := FromContext(ctx)
	if log == nil {
		t.Fatal("FromContext returned nil")
	}
	log.Info().Msg("context ids attached")
}

func TestSlogHandlerOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))

	logger.Info("worker started", slog.String("name", "refresher"), slog.Int("count", 3))

	out := buf.String()
	for _, want := range []string{`"name":"refresher"`, `"count":3`, "worker started"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %q", want, out)
		}
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)).WithGroup("svc"))

	logger.Warn("restarting", slog.String("reason", "panic"))

	if out := buf.String(); !strings.Contains(out, `"svc.reason":"panic"`) {
		t.Errorf("expected grouped key in output, got %q", out)
	}
}
