// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package engines owns the per-user engine pair. Learning engines are not
// safe for concurrent use, so the registry lazily builds one pair per user
// and serializes all access to it behind a per-user lock.
package engines

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/recommend"
	"github.com/brewmind/brewmind/internal/weather"
)

// Deps bundles the shared collaborators every engine pair is built from.
type Deps struct {
	Store      learning.Storage
	Candidates recommend.CandidateFetcher
	Weather    weather.Provider
	Travel     recommend.TravelManager
	Telemetry  recommend.TelemetrySink
	Logger     zerolog.Logger

	LearningCfg  learning.Config
	RecommendCfg recommend.Config

	// Clock overrides time for tests; nil means time.Now.
	Clock func() time.Time
}

// Pair is one user's learning and recommendation engines. It is only
// valid while the release function from Acquire has not been called.
type Pair struct {
	mu        sync.Mutex
	Learning  *learning.Engine
	Recommend *recommend.Engine
}

// Registry hands out initialized, locked engine pairs.
type Registry struct {
	deps   Deps
	logger zerolog.Logger

	mu    sync.Mutex
	users map[string]*Pair
}

// NewRegistry creates the registry. The zero-value optional deps (weather,
// travel, telemetry, clock) stay nil and fall back to engine defaults.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "engines").Logger(),
		users:  make(map[string]*Pair),
	}
}

// Acquire returns the user's engine pair with its lock held, building and
// initializing the pair on first use. The caller must invoke release when
// done; the pair must not be used afterwards.
func (r *Registry) Acquire(ctx context.Context, userID string) (*Pair, func(), error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("engines: empty user ID")
	}

	r.mu.Lock()
	pair, ok := r.users[userID]
	if !ok {
		pair = r.build(userID)
		r.users[userID] = pair
	}
	r.mu.Unlock()

	pair.mu.Lock()
	if err := pair.Learning.Initialize(ctx); err != nil {
		pair.mu.Unlock()
		return nil, nil, fmt.Errorf("initializing engines for %q: %w", userID, err)
	}

	return pair, pair.mu.Unlock, nil
}

// Evict drops the user's cached pair; the next Acquire rebuilds from
// storage. Used after a privacy delete.
func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	delete(r.users, userID)
	r.mu.Unlock()

	r.logger.Debug().Str("user_id", userID).Msg("Evicted engine pair")
}

func (r *Registry) build(userID string) *Pair {
	var learnOpts []learning.Option
	if r.deps.Clock != nil {
		learnOpts = append(learnOpts, learning.WithClock(r.deps.Clock))
	}

	learner := learning.NewEngine(userID, r.deps.Store, r.deps.LearningCfg, r.deps.Logger, learnOpts...)

	recOpts := []recommend.Option{}
	if r.deps.Weather != nil {
		recOpts = append(recOpts, recommend.WithWeather(r.deps.Weather))
	}
	if r.deps.Travel != nil {
		recOpts = append(recOpts, recommend.WithTravel(r.deps.Travel))
	}
	if r.deps.Telemetry != nil {
		recOpts = append(recOpts, recommend.WithTelemetry(r.deps.Telemetry))
	}
	if r.deps.Clock != nil {
		recOpts = append(recOpts, recommend.WithClock(r.deps.Clock))
	}

	recommender := recommend.NewEngine(r.deps.RecommendCfg, r.deps.Logger, learner, r.deps.Candidates, recOpts...)

	r.logger.Debug().Str("user_id", userID).Msg("Built engine pair")
	return &Pair{Learning: learner, Recommend: recommender}
}
