// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned when the client-side rate limit is exhausted.
// Callers treat it like any other weather failure: no weather, no bonus.
var ErrThrottled = errors.New("weather: request throttled")

// ClientConfig configures the HTTP weather provider.
type ClientConfig struct {
	// BaseURL is the Open-Meteo-compatible forecast endpoint.
	BaseURL string

	// Timeout bounds each upstream request.
	// Default: 5s
	Timeout time.Duration

	// RequestsPerMinute caps upstream calls. Weather changes slowly;
	// there is no reason to hammer the API from a single device.
	// Default: 6
	RequestsPerMinute int
}

// Client fetches current weather over HTTP. Upstream calls run through a
// circuit breaker so a flaky network cannot stall every recommendation,
// and a local rate limiter keeps the device a polite API citizen.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Report]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates an HTTP weather provider.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 6
	}

	breaker := gobreaker.NewCircuitBreaker[*Report](gobreaker.Settings{
		Name:    "weather",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 2),
		logger:  logger.With().Str("component", "weather").Logger(),
	}
}

// currentResponse mirrors the subset of the Open-Meteo current-weather
// payload the client consumes.
type currentResponse struct {
	Current struct {
		TemperatureC float64 `json:"temperature_2m"`
		Humidity     float64 `json:"relative_humidity_2m"`
		WeatherCode  int     `json:"weather_code"`
	} `json:"current"`
}

// Current implements Provider. The location key is passed through as a
// query parameter; resolution to coordinates is the endpoint's concern.
func (c *Client) Current(ctx context.Context, location string) (*Report, error) {
	if !c.limiter.Allow() {
		return nil, ErrThrottled
	}

	report, err := c.breaker.Execute(func() (*Report, error) {
		return c.fetch(ctx, location)
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("location", location).Msg("weather fetch failed")
		return nil, err
	}

	return report, nil
}

// fetch performs a single upstream request.
func (c *Client) fetch(ctx context.Context, location string) (*Report, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code")
	if location != "" {
		q.Set("location", location)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	var parsed currentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	return &Report{
		Condition:    conditionFromWMOCode(parsed.Current.WeatherCode),
		TemperatureC: parsed.Current.TemperatureC,
		Humidity:     parsed.Current.Humidity,
	}, nil
}
