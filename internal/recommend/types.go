// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package recommend

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/taste"
)

// Recommendation is one scored candidate in a recommendation set.
type Recommendation struct {
	// Recipe is the candidate recipe.
	Recipe learning.RecipeProfile `json:"recipe"`

	// PredictedRating is the context-adjusted rating in [0, 5].
	PredictedRating float64 `json:"predicted_rating"`

	// Confidence expresses evidence behind the score, in [0, 1].
	Confidence float64 `json:"confidence"`

	// Evidence lists the context boosts above the evidence threshold,
	// as human-readable strings.
	Evidence []string `json:"evidence,omitempty"`
}

// ProfileSource exposes the learned state the scorer reads. The per-user
// learning engine satisfies it.
type ProfileSource interface {
	// Profile returns the current taste profile, nil before initialization.
	Profile() *learning.UserTasteProfile

	// History returns the bounded newest-first brew history.
	History() []learning.BrewHistoryEntry
}

// CandidateFetcher returns up to limit candidate recipes for a taste
// vector, best matches first.
type CandidateFetcher func(ctx context.Context, prefs taste.Vector, limit int) ([]learning.RecipeProfile, error)

// TravelManager reports whether travel mode wants simplified
// recommendations.
type TravelManager interface {
	Active() bool
}

// TelemetrySink receives fire-and-forget counters. Implementations must
// never block or fail the caller.
type TelemetrySink interface {
	RecordGenerated(count int)
	RecordCacheHit()
	RecordTravelMode()
}

// TravelMode is a concrete TravelManager: a process-wide toggle flipped
// by the owner (CLI flag, future settings surface).
type TravelMode struct {
	active atomic.Bool
}

// Set flips travel mode.
func (t *TravelMode) Set(active bool) { t.active.Store(active) }

// Active implements TravelManager.
func (t *TravelMode) Active() bool { return t.active.Load() }

type noopTravel struct{}

func (noopTravel) Active() bool { return false }

type noopTelemetry struct{}

func (noopTelemetry) RecordGenerated(int) {}
func (noopTelemetry) RecordCacheHit()     {}
func (noopTelemetry) RecordTravelMode()   {}

// Config tunes the recommendation engine. The zero value is usable; fields
// left at zero fall back to defaults.
type Config struct {
	// TopK is how many recommendations a request returns (default 5).
	TopK int

	// CacheTTL is how long a context-keyed result set stays fresh
	// (default 15 minutes).
	CacheTTL time.Duration

	// CandidateLimit is how many candidates are fetched for scoring
	// (default 20).
	CandidateLimit int
}

func (c *Config) sanitize() {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = 20
	}
}
