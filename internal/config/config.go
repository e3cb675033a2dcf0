// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package config loads the layered Brewmind configuration: built-in
// defaults, then an optional YAML file, then BREWMIND_-prefixed
// environment variables, each layer overriding the previous one.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/logging"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `json:"server" koanf:"server"`
	Storage   StorageConfig   `json:"storage" koanf:"storage"`
	Learning  learning.Config `json:"learning" koanf:"learning"`
	Recommend RecommendConfig `json:"recommend" koanf:"recommend"`
	Weather   WeatherConfig   `json:"weather" koanf:"weather"`
	Logging   logging.Config  `json:"logging" koanf:"logging"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Host is the listen address.
	Host string `json:"host" koanf:"host"`

	// Port is the listen port.
	Port int `json:"port" koanf:"port" validate:"gte=1,lte=65535"`

	// ReadTimeout bounds request reads.
	ReadTimeout time.Duration `json:"read_timeout" koanf:"read_timeout" validate:"gt=0"`

	// WriteTimeout bounds response writes.
	WriteTimeout time.Duration `json:"write_timeout" koanf:"write_timeout" validate:"gt=0"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" koanf:"shutdown_timeout" validate:"gt=0"`

	// RateLimit is the per-client request budget per minute.
	RateLimit int `json:"rate_limit" koanf:"rate_limit" validate:"gt=0"`

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `json:"cors_origins" koanf:"cors_origins"`
}

// StorageConfig configures the embedded Badger store.
type StorageConfig struct {
	// Path is the on-disk data directory. Required unless InMemory is set.
	Path string `json:"path" koanf:"path"`

	// InMemory runs storage without touching disk.
	InMemory bool `json:"in_memory" koanf:"in_memory"`

	// GCInterval is how often the value-log GC pass runs.
	GCInterval time.Duration `json:"gc_interval" koanf:"gc_interval" validate:"gt=0"`
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	// TopK is how many recommendations a request returns.
	TopK int `json:"top_k" koanf:"top_k" validate:"gt=0"`

	// CacheTTL is the freshness window for context-keyed results.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl" validate:"gt=0"`

	// CandidateLimit is how many candidates are fetched for scoring.
	CandidateLimit int `json:"candidate_limit" koanf:"candidate_limit" validate:"gt=0"`
}

// WeatherConfig configures the weather provider.
type WeatherConfig struct {
	// Enabled turns the HTTP weather client on. When off, recommendations
	// run without weather context.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// BaseURL is an Open-Meteo-compatible endpoint.
	BaseURL string `json:"base_url" koanf:"base_url" validate:"omitempty,url"`

	// Timeout bounds each upstream request.
	Timeout time.Duration `json:"timeout" koanf:"timeout" validate:"gt=0"`

	// RequestsPerMinute caps upstream call rate.
	RequestsPerMinute int `json:"requests_per_minute" koanf:"requests_per_minute" validate:"gt=0"`

	// Location is the default location key passed to the provider.
	Location string `json:"location" koanf:"location"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8642,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       120,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{
			Path:       "/data/brewmind",
			GCInterval: 5 * time.Minute,
		},
		Learning: learning.DefaultConfig(),
		Recommend: RecommendConfig{
			TopK:           5,
			CacheTTL:       15 * time.Minute,
			CandidateLimit: 20,
		},
		Weather: WeatherConfig{
			Enabled:           false,
			BaseURL:           "https://api.open-meteo.com/v1/forecast",
			Timeout:           5 * time.Second,
			RequestsPerMinute: 6,
		},
		Logging: logging.DefaultConfig(),
	}
}

var validate = validator.New()

// Validate checks the configuration. Struct tags cover range checks;
// cross-field rules are verified manually.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("config validation: storage.path is required unless storage.in_memory is set")
	}
	if c.Weather.Enabled && c.Weather.BaseURL == "" {
		return fmt.Errorf("config validation: weather.base_url is required when weather.enabled is set")
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return &clone
}
