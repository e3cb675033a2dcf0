// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Command brewmind runs the on-device preference learning and
// recommendation service: embedded storage, per-user engines, and the
// HTTP surface, all under one supervision tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brewmind/brewmind/internal/api"
	"github.com/brewmind/brewmind/internal/config"
	"github.com/brewmind/brewmind/internal/engines"
	"github.com/brewmind/brewmind/internal/logging"
	"github.com/brewmind/brewmind/internal/recommend"
	"github.com/brewmind/brewmind/internal/storage"
	"github.com/brewmind/brewmind/internal/supervisor"
	"github.com/brewmind/brewmind/internal/telemetry"
	"github.com/brewmind/brewmind/internal/weather"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "brewmind: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional)")
	travelMode := flag.Bool("travel", false, "start with travel mode active")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)
	logger.Info().Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Bool("in_memory", cfg.Storage.InMemory).Msg("Starting brewmind")

	store, err := storage.Open(storage.Options{
		Path:     cfg.Storage.Path,
		InMemory: cfg.Storage.InMemory,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Closing storage failed")
		}
	}()

	metrics := telemetry.New(prometheus.DefaultRegisterer)

	var weatherProvider weather.Provider = weather.NewStatic(nil)
	if cfg.Weather.Enabled {
		weatherProvider = weather.NewClient(weather.ClientConfig{
			BaseURL:           cfg.Weather.BaseURL,
			Timeout:           cfg.Weather.Timeout,
			RequestsPerMinute: cfg.Weather.RequestsPerMinute,
		}, logger)
	}

	travel := &recommend.TravelMode{}
	travel.Set(*travelMode)

	registry := engines.NewRegistry(engines.Deps{
		Store:      store,
		Candidates: store.Candidates,
		Weather:    weatherProvider,
		Travel:     travel,
		Telemetry:  metrics,
		Logger:     logger,
		LearningCfg: cfg.Learning,
		RecommendCfg: recommend.Config{
			TopK:           cfg.Recommend.TopK,
			CacheTTL:       cfg.Recommend.CacheTTL,
			CandidateLimit: cfg.Recommend.CandidateLimit,
		},
	})

	handler := api.NewHandler(registry, store, logger,
		api.WithMetrics(metrics),
		api.WithReadyCheck(func(ctx context.Context) error {
			_, err := store.LoadProfile(ctx, "readiness-probe")
			return err
		}))

	router := api.NewRouter(api.RouterConfig{
		RateLimit:   cfg.Server.RateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, handler, logger)

	tree := supervisor.New(supervisor.Config{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)
	tree.Add(api.NewService(api.ServiceConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger))
	tree.Add(storage.NewGCService(store, cfg.Storage.GCInterval, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = tree.Serve(ctx)
	logger.Info().Dur("uptime", time.Since(start)).Msg("Shut down")
	return err
}
