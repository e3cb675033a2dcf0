// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package supervisor assembles the suture supervision tree for the
// long-running services: the HTTP server and the storage GC loop.
// Supervisor events are logged through the shared zerolog pipeline via
// the slog bridge.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/brewmind/brewmind/internal/logging"
)

// Config holds supervision parameters; zero values fall back to suture's
// defaults.
type Config struct {
	// FailureThreshold is the failure count that triggers backoff.
	FailureThreshold float64

	// FailureBackoff is how long the tree pauses after hitting the
	// threshold.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds graceful service shutdown.
	ShutdownTimeout time.Duration
}

// Tree is the root supervisor.
type Tree struct {
	root *suture.Supervisor
}

// New builds the tree. Services are attached with Add before Serve.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, logger zerolog.Logger) *Tree {
	// sutureslog wants *slog.Logger; bridge it back into zerolog.
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger(logger)}

	spec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: cfg.FailureThreshold,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}

	return &Tree{root: suture.New("brewmind", spec)}
}

// Add registers a service with the root supervisor.
func (t *Tree) Add(service suture.Service) {
	t.root.Add(service)
}

// Serve runs the tree until the context is canceled and returns the
// terminal error, nil on clean shutdown.
func (t *Tree) Serve(ctx context.Context) error {
	err := t.root.Serve(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
