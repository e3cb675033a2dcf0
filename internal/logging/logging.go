// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package logging configures zerolog for the whole process: JSON output
// for production, console for development, request-ID propagation through
// context, and an slog bridge for libraries (sutureslog) that want a
// *slog.Logger.
//
// Components receive their logger by injection:
//
//	logger := logging.New(cfg.Logging)
//	engine := learning.NewEngine(userID, engineCfg, logger, store)
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	// Default: info
	Level string `json:"level" koanf:"level" validate:"omitempty,oneof=trace debug info warn error"`

	// Format is json or console. Default: json
	Format string `json:"format" koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller includes file:line in every event. Default: false
	Caller bool `json:"caller" koanf:"caller"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
	}
}

// New builds the root logger for the process. Pass the result down; child
// loggers are derived with .With().Str("component", ...).Logger().
func New(cfg Config) zerolog.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput builds a root logger writing to w; tests use it to capture
// output.
func NewWithOutput(cfg Config, w io.Writer) zerolog.Logger {
	var output io.Writer = w
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(output).Level(ParseLevel(cfg.Level)).
		With().Timestamp().Logger()
	if cfg.Caller {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// ParseLevel maps a level name to a zerolog level; unknown names fall back
// to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
