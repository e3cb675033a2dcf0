// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package api exposes the HTTP surface: brew ingestion, predictions,
// recommendations, diary insights, profile access, recipe upserts, the
// privacy-delete flow, health probes, and Prometheus metrics.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/logging"
)

// RouterConfig tunes the shared middleware stack.
type RouterConfig struct {
	// RateLimit is the per-client request budget per minute.
	RateLimit int

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string
}

// NewRouter assembles the chi router around a handler set.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRouter(cfg RouterConfig, handler *Handler, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogging(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health/live", handler.HealthLive)
	r.Get("/health/ready", handler.HealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/brews", handler.IngestBrew)
			r.Get("/predictions/{recipeID}", handler.PredictRating)
			r.Get("/recommendations", handler.Recommendations)
			r.Get("/insights", handler.Insights)
			r.Get("/profile", handler.Profile)
			r.Delete("/", handler.DeleteUser)
		})

		r.Put("/recipes/{recipeID}", handler.PutRecipe)
	})

	return r
}

// requestLogging stamps each request with an ID, stores a request-scoped
// logger in the context, and logs one completion line.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func requestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.NewRequestID()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With().Str("request_id", requestID).Logger()
			ctx := logging.WithRequestID(r.Context(), requestID)
			ctx = logging.WithLogger(ctx, reqLogger)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("Request completed")
		})
	}
}
