// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package recommend produces contextual recipe recommendations: it
// enriches the request situation (clock, weather, anticipated mood,
// travel mode), scores candidates against the learned taste profile with
// additive context boosts, and caches the result set per context
// fingerprint.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/taste"
	"github.com/brewmind/brewmind/internal/weather"
)

// ErrNoProfile is returned when recommendations are requested before the
// user's learning engine has been initialized.
var ErrNoProfile = errors.New("recommend: taste profile unavailable")

// evidenceThreshold is the minimum boost that earns an evidence line.
const evidenceThreshold = 0.2

// Engine generates recommendations for a single user. It is safe for
// concurrent use as long as the ProfileSource is.
type Engine struct {
	cfg       Config
	logger    zerolog.Logger
	profiles  ProfileSource
	fetch     CandidateFetcher
	weather   weather.Provider
	travel    TravelManager
	telemetry TelemetrySink
	cache     *resultCache
	clock     func() time.Time
}

// Option customizes engine construction.
type Option func(*Engine)

// WithWeather sets the weather provider used during context enrichment.
func WithWeather(p weather.Provider) Option {
	return func(e *Engine) { e.weather = p }
}

// WithTravel sets the travel-mode manager.
func WithTravel(tm TravelManager) Option {
	return func(e *Engine) { e.travel = tm }
}

// WithTelemetry sets the telemetry sink.
func WithTelemetry(sink TelemetrySink) Option {
	return func(e *Engine) { e.telemetry = sink }
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine creates a recommendation engine over a profile source and a
// candidate fetcher. Weather, travel mode, and telemetry default to no-ops.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(cfg Config, logger zerolog.Logger, profiles ProfileSource, fetch CandidateFetcher, opts ...Option) *Engine {
	cfg.sanitize()

	e := &Engine{
		cfg:       cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		profiles:  profiles,
		fetch:     fetch,
		travel:    noopTravel{},
		telemetry: noopTelemetry{},
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.cache = newResultCache(e.cfg.CacheTTL, e.logger)
	return e
}

// EnrichContext fills the missing situational fields: time of day and
// weekday from the wall clock, weather from the provider, anticipated mood
// from recent diary signals, and the simplify flag from travel mode.
// Weather failures degrade to no weather and never fail enrichment.
func (e *Engine) EnrichContext(ctx context.Context, sit learning.Situation) learning.Situation {
	now := e.clock()

	if sit.TimeOfDay == taste.TimeUnknown {
		sit.TimeOfDay = taste.TimeOfDayFromHour(now.Hour())
	}
	if sit.Weekday < 0 {
		sit.Weekday = int(now.Weekday())
	}

	if sit.Weather == nil && e.weather != nil {
		report, err := e.weather.Current(ctx, sit.Location)
		if err != nil {
			e.logger.Debug().Err(err).Msg("Weather lookup failed, continuing without weather")
		} else {
			sit.Weather = report
		}
	}

	if sit.AnticipatedMood == taste.MoodUnknown {
		sit.AnticipatedMood = inferMood(e.profiles.History(), now, sit.TimeOfDay)
	}

	if !sit.Simplify && e.travel.Active() {
		sit.Simplify = true
	}

	return sit
}

// Recommend returns the top-K recommendations for the situation. Identical
// enriched contexts within the cache TTL are served from cache.
func (e *Engine) Recommend(ctx context.Context, sit learning.Situation) ([]Recommendation, error) {
	profile := e.profiles.Profile()
	if profile == nil {
		return nil, ErrNoProfile
	}

	sit = e.EnrichContext(ctx, sit)
	now := e.clock()
	key := cacheKey(sit)

	if cached := e.cache.get(key, now); cached != nil {
		e.telemetry.RecordCacheHit()
		e.logger.Debug().Str("cache_key", key).Msg("Serving recommendations from cache")
		return cached, nil
	}

	candidates, err := e.fetch(ctx, profile.Preferences, e.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}

	recs := make([]Recommendation, 0, len(candidates))
	for i := range candidates {
		recs = append(recs, scoreCandidate(&candidates[i], profile, sit))
	}

	sort.SliceStable(recs, func(a, b int) bool {
		return recs[a].PredictedRating > recs[b].PredictedRating
	})
	if len(recs) > e.cfg.TopK {
		recs = recs[:e.cfg.TopK]
	}

	e.cache.put(key, recs, now)
	e.telemetry.RecordGenerated(len(recs))
	if sit.Simplify {
		e.telemetry.RecordTravelMode()
	}

	e.logger.Debug().Int("count", len(recs)).Bool("simplified", sit.Simplify).
		Msg("Generated recommendations")
	return recs, nil
}

// scoreCandidate applies the additive context-boost model to one candidate.
func scoreCandidate(recipe *learning.RecipeProfile, profile *learning.UserTasteProfile, sit learning.Situation) Recommendation {
	base := recipe.TasteVector.Cosine(profile.Preferences)

	var total, weatherBoost float64
	var evidence []string

	boost := func(v float64, reason string) {
		total += v
		if v > evidenceThreshold {
			evidence = append(evidence, fmt.Sprintf("%s %+.2f", reason, v))
		}
	}

	if w := sit.Weather; w != nil {
		before := total
		if recipe.HasTag("iced") && w.TemperatureC > 24 {
			boost(0.35, "iced drink for a hot day")
		}
		if recipe.HasTag("rich") && w.TemperatureC < 5 {
			boost(0.25, "rich warmer for a cold day")
		}
		if recipe.HasTag("cold_brew") && w.Humidity > 80 {
			boost(0.2, "cold brew for humid weather")
		}
		weatherBoost = total - before
	}

	if recipe.HasTag("morning_boost") && sit.TimeOfDay == taste.TimeMorning {
		boost(0.3, "morning kickstart")
	}
	if recipe.HasTag("low_caffeine") && sit.TimeOfDay == taste.TimeEvening {
		boost(0.35, "evening-friendly caffeine")
	}

	if recipe.HasTag("comfort") && sit.AnticipatedMood == taste.MoodStressed {
		boost(0.25, "comfort pick for a stressful day")
	}
	if recipe.HasTag("energy") && sit.AnticipatedMood == taste.MoodTired {
		boost(0.2, "energy pick for a tired day")
	}

	if sit.Simplify && !recipe.HasTag("quick") {
		boost(-0.15, "slower recipe while traveling")
	}

	rating := base*5 + total
	if rating > 5 {
		rating = 5
	}

	return Recommendation{
		Recipe:          *recipe,
		PredictedRating: rating,
		Confidence:      base*0.6 + weatherBoost*0.1 + 0.3,
		Evidence:        evidence,
	}
}

// inferMood anticipates the user's mood from recent diary signals: a
// fresh after-brew mood wins, then the dominant before-brew mood at the
// same time of day, then a tiredness default for night brews.
func inferMood(history []learning.BrewHistoryEntry, now time.Time, tod taste.TimeOfDay) taste.Mood {
	const freshWindow = 6 * time.Hour
	const lookback = 10

	if len(history) > 0 {
		head := history[0]
		if head.Context.MoodAfter != "" && now.Sub(head.CreatedAt) <= freshWindow {
			if mood := taste.ParseMood(head.Context.MoodAfter); mood != taste.MoodUnknown {
				return mood
			}
		}
	}

	counts := make(map[taste.Mood]int)
	var order []taste.Mood
	for i := 0; i < len(history) && i < lookback; i++ {
		entry := history[i]
		if entry.Context.TimeOfDay != tod || entry.Context.MoodBefore == "" {
			continue
		}
		mood := taste.ParseMood(entry.Context.MoodBefore)
		if mood == taste.MoodUnknown {
			continue
		}
		if _, seen := counts[mood]; !seen {
			order = append(order, mood)
		}
		counts[mood]++
	}

	best := taste.MoodUnknown
	bestCount := 0
	for _, mood := range order {
		if counts[mood] > bestCount {
			best = mood
			bestCount = counts[mood]
		}
	}
	if best != taste.MoodUnknown {
		return best
	}

	if tod == taste.TimeNight {
		return taste.MoodTired
	}
	return taste.MoodUnknown
}
