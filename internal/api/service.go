// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig configures the HTTP service.
type ServiceConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Service runs the HTTP server under the supervision tree.
type Service struct {
	cfg     ServiceConfig
	handler http.Handler
	logger  zerolog.Logger
}

// NewService wraps a handler as a supervisable HTTP service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(cfg ServiceConfig, handler http.Handler, logger zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// Serve implements suture.Service: it runs the server until the context
// is canceled, then shuts down gracefully within the shutdown timeout.
func (s *Service) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))

	server := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Graceful shutdown incomplete, closing")
		_ = server.Close()
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return ctx.Err()
}

func (s *Service) String() string { return "http" }
