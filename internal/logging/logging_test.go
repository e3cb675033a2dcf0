// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{Level: "debug"}, &buf)

	logger.Info().Str("component", "test").Msg("hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["message"] != "hello" || record["component"] != "test" {
		t.Errorf("record = %v, want message and component fields", record)
	}
	if _, ok := record["time"]; !ok {
		t.Error("record missing timestamp")
	}
}

func TestNewWithOutputLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{Level: "warn"}, &buf)

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Error("info event emitted at warn level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn event missing")
	}
}

func TestNewWithOutputConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{Format: "console"}, &buf)

	logger.Info().Msg("console line")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("console output looks like JSON: %q", out)
	}
	if !strings.Contains(out, "console line") {
		t.Errorf("output %q missing message", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID(empty ctx) = %q, want empty", got)
	}

	id := NewRequestID()
	ctx = WithRequestID(ctx, id)
	if got := RequestID(ctx); got != id {
		t.Errorf("RequestID() = %q, want %q", got, id)
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{}, &buf).With().Str("request_id", "r1").Logger()

	ctx := WithLogger(context.Background(), logger)
	scoped := FromContext(ctx)
	scoped.Info().Msg("scoped")

	if !strings.Contains(buf.String(), "r1") {
		t.Errorf("output %q missing request_id field", buf.String())
	}

	// No stored logger: a disabled logger, not a panic.
	dropped := FromContext(context.Background())
	dropped.Info().Msg("dropped")
}

func TestSlogBridge(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{Level: "debug"}, &buf)

	slogger := NewSlogLogger(logger)
	slogger.Info("supervisor event", "service", "http", "restarts", int64(2))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["message"] != "supervisor event" {
		t.Errorf("message = %v, want supervisor event", record["message"])
	}
	if record["service"] != "http" {
		t.Errorf("service = %v, want http", record["service"])
	}
	if record["restarts"] != float64(2) {
		t.Errorf("restarts = %v, want 2", record["restarts"])
	}
}

func TestSlogBridgeGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{Level: "debug"}, &buf)

	slogger := NewSlogLogger(logger).WithGroup("badger").With("mode", "gc")
	slogger.Warn("pass failed")

	if !strings.Contains(buf.String(), "badger.mode") {
		t.Errorf("output %q missing group-prefixed key", buf.String())
	}
}
