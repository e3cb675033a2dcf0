// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package learning implements the on-device preference learning engine: a
// per-user taste profile updated online from brew feedback, plus contextual
// rating prediction for candidate recipes.
//
// The engine is deliberately not safe for concurrent use. Exactly one
// logical engine exists per user; callers (in this repository, the engines
// registry) serialize access. Updates follow mutate-then-persist with
// documented at-least-once semantics: if persistence fails the in-memory
// state stays mutated and the entry ID serves as the idempotent replay key
// for a retry.
package learning

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/taste"
	"github.com/brewmind/brewmind/internal/weather"
)

// Storage is the persistence contract consumed by the engine. It is
// implemented by the storage adapter; the engine never assumes an on-disk
// format. Optional capabilities (similar recipes, community stats) are
// separate interfaces checked at construction time.
type Storage interface {
	// LoadProfile returns the stored profile, or (nil, nil) when the
	// user has none yet.
	LoadProfile(ctx context.Context, userID string) (*UserTasteProfile, error)

	// PersistProfile writes the profile.
	PersistProfile(ctx context.Context, profile *UserTasteProfile) error

	// AppendHistory durably records a brew entry.
	AppendHistory(ctx context.Context, entry *BrewHistoryEntry) error

	// RecentHistory returns up to limit entries, newest first.
	RecentHistory(ctx context.Context, userID string, limit int) ([]BrewHistoryEntry, error)

	// RecipeProfile resolves a recipe, or (nil, nil) when unknown.
	RecipeProfile(ctx context.Context, recipeID string) (*RecipeProfile, error)
}

// SimilarRecipeFinder is an optional storage capability that supplies
// recipes similar to a target for the prediction similarity boost.
type SimilarRecipeFinder interface {
	SimilarRecipes(ctx context.Context, userID, recipeID string, limit int) ([]RecipeProfile, error)
}

// CommunityStatsProvider is an optional storage capability exposing
// aggregate flavor-note statistics from the community hook.
type CommunityStatsProvider interface {
	CommunityFlavorStats(ctx context.Context) (map[string]CommunityStat, error)
}

// noopSimilar is the default no-op SimilarRecipeFinder.
type noopSimilar struct{}

func (noopSimilar) SimilarRecipes(context.Context, string, string, int) ([]RecipeProfile, error) {
	return nil, nil
}

// noopCommunity is the default no-op CommunityStatsProvider.
type noopCommunity struct{}

func (noopCommunity) CommunityFlavorStats(context.Context) (map[string]CommunityStat, error) {
	return nil, nil
}

// Config holds the engine's tunable parameters.
type Config struct {
	// LearningRate scales every online preference update.
	// Default: 0.1
	LearningRate float64 `json:"learning_rate" koanf:"learning_rate" validate:"gte=0,lte=1"`

	// DecayFactor is the weekly pull of stale values toward neutral.
	// Default: 0.95
	DecayFactor float64 `json:"decay_factor" koanf:"decay_factor" validate:"gt=0,lte=1"`

	// HistoryLimit caps the in-memory history cache.
	// Default: 200
	HistoryLimit int `json:"history_limit" koanf:"history_limit" validate:"gt=0"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.1,
		DecayFactor:  0.95,
		HistoryLimit: 200,
	}
}

// sanitize applies defaults for zero values.
func (c Config) sanitize() Config {
	if c.LearningRate == 0 {
		c.LearningRate = 0.1
	}
	if c.DecayFactor == 0 {
		c.DecayFactor = 0.95
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 200
	}
	return c
}

// Engine owns one user's taste model. Construct it with NewEngine and call
// Initialize before anything else.
type Engine struct {
	userID    string
	cfg       Config
	logger    zerolog.Logger
	store     Storage
	similar   SimilarRecipeFinder
	community CommunityStatsProvider
	clock     func() time.Time

	profile     *UserTasteProfile
	history     []BrewHistoryEntry
	initialized bool
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock overrides the engine clock; used in tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine creates a learning engine for one user. Optional storage
// capabilities are detected here and replaced with explicit no-ops when
// absent, so call sites never branch on presence.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(userID string, store Storage, cfg Config, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		userID:    userID,
		cfg:       cfg.sanitize(),
		logger:    logger.With().Str("component", "learning").Str("user_id", userID).Logger(),
		store:     store,
		similar:   noopSimilar{},
		community: noopCommunity{},
		clock:     time.Now,
	}

	if f, ok := store.(SimilarRecipeFinder); ok {
		e.similar = f
	}
	if c, ok := store.(CommunityStatsProvider); ok {
		e.community = c
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Initialize loads (or creates) the profile and the bounded recent history.
// It is idempotent: a second call is a no-op and neither duplicates history
// nor resets the profile. On failure the engine stays uninitialized and the
// call is safe to retry.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.initialized {
		return nil
	}

	profile, err := e.store.LoadProfile(ctx, e.userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	if profile == nil {
		profile = NewDefaultProfile(e.userID, e.clock())
		if err := e.store.PersistProfile(ctx, profile); err != nil {
			return fmt.Errorf("persist default profile: %w", err)
		}
		e.logger.Info().Msg("created default taste profile")
	}

	history, err := e.store.RecentHistory(ctx, e.userID, e.cfg.HistoryLimit)
	if err != nil {
		return fmt.Errorf("load recent history: %w", err)
	}

	e.profile = profile
	e.history = history
	e.initialized = true

	e.logger.Debug().Int("history", len(history)).Msg("engine initialized")
	return nil
}

// Profile returns the current in-memory profile, nil before Initialize.
func (e *Engine) Profile() *UserTasteProfile {
	return e.profile
}

// History returns a copy of the bounded in-memory history, newest first.
func (e *Engine) History() []BrewHistoryEntry {
	out := make([]BrewHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// mustInit panics on use-before-Initialize; that is a programmer error,
// not a runtime condition to retry.
func (e *Engine) mustInit() {
	if !e.initialized {
		panic("learning: engine used before Initialize")
	}
}

// Prediction scoring constants.
const (
	fallbackRating     = 3.0
	fallbackConfidence = 0.2
	ratingMin          = 1.0
	ratingMax          = 5.0
	maxSimilarRecipes  = 3
)

// PredictRating predicts the user's rating for a recipe under the given
// situation. Missing catalog data soft-degrades to a fixed low-confidence
// fallback; it never returns an error for an unknown recipe.
func (e *Engine) PredictRating(ctx context.Context, recipeID string, sit Situation) PredictionResult {
	e.mustInit()

	recipe, err := e.store.RecipeProfile(ctx, recipeID)
	if err != nil {
		e.logger.Warn().Err(err).Str("recipe_id", recipeID).Msg("recipe lookup failed")
	}
	if recipe == nil {
		return PredictionResult{
			RecipeID:        recipeID,
			PredictedRating: fallbackRating,
			Confidence:      fallbackConfidence,
			ContextBonuses:  []string{"no data"},
		}
	}

	baseSimilarity := e.profile.Preferences.Cosine(recipe.TasteVector)
	rating := 3 + baseSimilarity*1.5

	bonuses, bonusTotal := e.contextBonuses(recipe, sit)
	rating += bonusTotal

	contributing, simBoost := e.similarityBoost(ctx, recipe)
	rating += simBoost
	if simBoost != 0 {
		bonuses = append(bonuses, fmt.Sprintf("similar recipes %+.2f", simBoost))
	}

	confidence := 0.3 + math.Max(0, baseSimilarity)*0.4 +
		0.05*float64(len(contributing)) +
		math.Min(0.25, float64(len(e.history))*0.01)

	return PredictionResult{
		RecipeID:            recipeID,
		PredictedRating:     clampRange(rating, ratingMin, ratingMax),
		Confidence:          math.Min(0.95, confidence),
		ContributingRecipes: contributing,
		ContextBonuses:      bonuses,
	}
}

// contextBonuses computes the additive situational bonuses with a
// human-readable trail.
func (e *Engine) contextBonuses(recipe *RecipeProfile, sit Situation) ([]string, float64) {
	var bonuses []string
	var total float64

	add := func(v float64, reason string) {
		total += v
		bonuses = append(bonuses, fmt.Sprintf("%s %+.2f", reason, v))
	}

	if sit.TimeOfDay == taste.TimeMorning && e.profile.PreferredStrength == taste.StrengthStrong {
		add(0.25, "morning with strong preference")
	}

	if w := sit.Weather; w != nil {
		switch {
		case w.TemperatureC > 24 && recipe.HasTag("iced"):
			add(0.3, "hot day, iced recipe")
		case w.TemperatureC < 5 && recipe.HasTag("rich"):
			add(0.2, "cold day, rich recipe")
		case w.Condition == weather.ConditionRain && recipe.HasTag("comfort"):
			add(0.15, "rainy day, comfort recipe")
		}
	}

	switch time.Weekday(sit.Weekday) {
	case time.Monday:
		add(0.2, "monday pick-me-up")
	case time.Friday:
		add(0.1, "friday treat")
	case time.Saturday, time.Sunday:
		add(-0.1, "weekend wind-down")
	}

	if sit.AnticipatedMood == taste.MoodTired {
		add(0.2, "anticipated tiredness")
	}

	return bonuses, total
}

// similarityBoost averages the cosine similarity of up to 3 externally
// supplied similar recipes to the target and scales it by 0.1. Lookup
// failures degrade to no boost.
func (e *Engine) similarityBoost(ctx context.Context, recipe *RecipeProfile) ([]string, float64) {
	similar, err := e.similar.SimilarRecipes(ctx, e.userID, recipe.ID, maxSimilarRecipes)
	if err != nil {
		e.logger.Debug().Err(err).Msg("similar recipe lookup failed")
		return nil, 0
	}
	if len(similar) == 0 {
		return nil, 0
	}
	if len(similar) > maxSimilarRecipes {
		similar = similar[:maxSimilarRecipes]
	}

	var sum float64
	ids := make([]string, 0, len(similar))
	for i := range similar {
		sum += recipe.TasteVector.Cosine(similar[i].TasteVector)
		ids = append(ids, similar[i].ID)
	}

	return ids, (sum / float64(len(similar))) * 0.1
}

// IngestBrew applies one brew feedback event to the profile: history push,
// time decay, weighted per-dimension updates, flavor-note and community
// updates, seasonal adjustment, drift detection, confidence refresh, then
// persistence. The returned profile is the engine's live copy.
//
// Persistence failures propagate; the in-memory mutation is NOT rolled
// back (at-least-once). Re-ingesting the entry already at the head of the
// history re-persists without re-applying the update.
func (e *Engine) IngestBrew(ctx context.Context, entry *BrewHistoryEntry, event *LearningEvent) (*UserTasteProfile, error) {
	e.mustInit()

	if len(e.history) > 0 && e.history[0].ID == entry.ID {
		e.logger.Debug().Str("entry_id", entry.ID).Msg("replaying persisted ingest")
		return e.profile, e.persist(ctx, entry)
	}

	now := e.clock()

	// Step 1: bounded newest-first history push.
	var previous *BrewHistoryEntry
	if len(e.history) > 0 {
		previous = &e.history[0]
	}
	e.history = append([]BrewHistoryEntry{*entry}, e.history...)
	if len(e.history) > e.cfg.HistoryLimit {
		e.history = e.history[:e.cfg.HistoryLimit]
	}

	// Steps 2-3: trust weight and rating signal.
	weight := eventWeight(event)
	signal := ratingSignal(entry.Rating)

	// Step 4: once-per-call time decay toward neutral.
	e.applyDecay(now)

	// Step 5: per-dimension online update.
	e.updatePreferences(entry, signal, weight)

	// Step 6: flavor notes, with the optional community-influence term.
	e.updateFlavorNotes(ctx, entry, signal, weight)

	// Step 7: seasonal adjustment for the entry's month.
	e.applySeasonalAdjustment(entry, signal, weight)

	// Step 8: drift detection.
	e.detectDrift(entry)

	// Step 9: preference confidence.
	e.profile.PreferenceConfidence = e.computeConfidence(now, previous)

	// Step 10: stamp and persist. No rollback on failure.
	e.profile.LastRecalculatedAt = now
	e.profile.UpdatedAt = now

	if err := e.persist(ctx, entry); err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("entry_id", entry.ID).
		Float64("rating", entry.Rating).
		Float64("confidence", e.profile.PreferenceConfidence).
		Msg("brew ingested")

	return e.profile, nil
}

// persist writes the entry and the profile. Called both for fresh ingests
// and for idempotent replays after a failed persist.
func (e *Engine) persist(ctx context.Context, entry *BrewHistoryEntry) error {
	if err := e.store.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if err := e.store.PersistProfile(ctx, e.profile); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

// eventWeight computes the trust multiplier for an optional learning event.
func eventWeight(event *LearningEvent) float64 {
	if event == nil {
		return 1.0
	}
	w := event.Weight
	if w == 0 {
		w = 1.0
	}
	return event.Type.Multiplier() * w
}

// ratingSignal maps a rating to [-1, 1]. An unrated entry (rating 0)
// carries no directional signal rather than reading as strong dislike.
func ratingSignal(rating float64) float64 {
	if rating == 0 {
		return 0
	}
	return clampRange((rating-3)/2, -1, 1)
}

// applyDecay pulls every preference dimension and flavor-note score toward
// the neutral midpoint based on whole calendar days since the last
// recalculation: value = 5 + (value-5) * decayFactor^(days/7).
func (e *Engine) applyDecay(now time.Time) {
	days := wholeDaysBetween(e.profile.LastRecalculatedAt, now)
	if days <= 0 {
		return
	}

	factor := math.Pow(e.cfg.DecayFactor, float64(days)/7)

	e.profile.Preferences = taste.Vector{
		Sweetness:  decayToward(e.profile.Preferences.Sweetness, factor),
		Acidity:    decayToward(e.profile.Preferences.Acidity, factor),
		Bitterness: decayToward(e.profile.Preferences.Bitterness, factor),
		Body:       decayToward(e.profile.Preferences.Body, factor),
	}

	for note, score := range e.profile.FlavorNotes {
		e.profile.FlavorNotes[note] = decayToward(score, factor)
	}
}

// decayToward pulls one value toward the neutral midpoint.
func decayToward(value, factor float64) float64 {
	return taste.Round3(taste.DimNeutral + (value-taste.DimNeutral)*factor)
}

// wholeDaysBetween counts whole calendar days from a to b in UTC.
func wholeDaysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// updatePreferences applies the per-dimension online update: the target is
// the explicit feedback value when present, otherwise the current value
// nudged by the rating signal.
func (e *Engine) updatePreferences(entry *BrewHistoryEntry, signal, weight float64) {
	step := e.cfg.LearningRate * weight * math.Max(0.5, math.Abs(signal))

	update := func(current float64, feedback *float64) float64 {
		target := current + signal*2
		if feedback != nil {
			target = *feedback
		}
		return taste.Round3(taste.ClampDim(current + (target-current)*step))
	}

	p := &e.profile.Preferences
	p.Sweetness = update(p.Sweetness, entry.TasteFeedback.Sweetness)
	p.Acidity = update(p.Acidity, entry.TasteFeedback.Acidity)
	p.Bitterness = update(p.Bitterness, entry.TasteFeedback.Bitterness)
	p.Body = update(p.Body, entry.TasteFeedback.Body)
}

// updateFlavorNotes nudges the score of every note named by the entry, and
// blends in community averages when the capability is available. The
// community term is independent of the personal learning-rate term.
func (e *Engine) updateFlavorNotes(ctx context.Context, entry *BrewHistoryEntry, signal, weight float64) {
	if len(entry.FlavorNotes) == 0 {
		return
	}

	stats, err := e.community.CommunityFlavorStats(ctx)
	if err != nil {
		e.logger.Debug().Err(err).Msg("community stats unavailable")
		stats = nil
	}

	step := e.cfg.LearningRate * weight * math.Max(0.5, math.Abs(signal))

	for _, note := range entry.FlavorNotes {
		current, ok := e.profile.FlavorNotes[note]
		if !ok {
			current = taste.DimNeutral
		}

		target := current + signal*2
		next := current + (target-current)*step

		if stat, ok := stats[note]; ok && stat.SampleSize > 0 {
			influence := math.Min(1, float64(stat.SampleSize)/50)
			next += (stat.Average - next) * influence * 0.05
		}

		e.profile.FlavorNotes[note] = taste.Round3(taste.ClampDim(next))
	}
}

// applySeasonalAdjustment upserts the bounded delta record for the entry's
// YYYY-MM month.
func (e *Engine) applySeasonalAdjustment(entry *BrewHistoryEntry, signal, weight float64) {
	month := entry.CreatedAt.UTC().Format("2006-01")
	delta := e.cfg.LearningRate * weight * 0.5 * signal

	for i := range e.profile.SeasonalAdjustments {
		if e.profile.SeasonalAdjustments[i].Month == month {
			adj := &e.profile.SeasonalAdjustments[i]
			adj.Sweetness = clampRange(taste.Round3(adj.Sweetness+delta), -SeasonalDeltaBound, SeasonalDeltaBound)
			adj.Body = clampRange(taste.Round3(adj.Body+delta/2), -SeasonalDeltaBound, SeasonalDeltaBound)
			return
		}
	}

	e.profile.SeasonalAdjustments = append(e.profile.SeasonalAdjustments, SeasonalAdjustment{
		Month:     month,
		Sweetness: clampRange(taste.Round3(delta), -SeasonalDeltaBound, SeasonalDeltaBound),
		Body:      clampRange(taste.Round3(delta/2), -SeasonalDeltaBound, SeasonalDeltaBound),
	})
}

// detectDrift flags sudden disagreement between recent history and the new
// entry, and nudges the profile accordingly.
func (e *Engine) detectDrift(entry *BrewHistoryEntry) {
	// The new entry sits at history[0]; the prior five are history[1:6].
	if len(e.history) >= 6 && entry.Rating > 0 && entry.Rating <= 2 {
		var sum float64
		for _, prior := range e.history[1:6] {
			sum += prior.Rating
		}
		if sum/5 >= 4.5 {
			p := &e.profile.Preferences
			p.Sweetness = taste.Round3(taste.ClampDim(p.Sweetness - 0.4))
			p.Bitterness = taste.Round3(taste.ClampDim(p.Bitterness + 0.4))
			e.logger.Info().Str("entry_id", entry.ID).Msg("preference drift detected")
		}
	}

	if entry.RecipeID == "" || entry.Rating == 0 {
		return
	}
	for _, prior := range e.history[1:] {
		if prior.RecipeID != entry.RecipeID || prior.Rating == 0 {
			continue
		}
		if prior.Rating-entry.Rating >= 2 {
			old := e.profile.PreferredStrength
			e.profile.PreferredStrength = old.Downgrade()
			e.logger.Info().
				Str("recipe_id", entry.RecipeID).
				Str("from", string(old)).
				Str("to", string(e.profile.PreferredStrength)).
				Msg("negative rating swing, downgrading strength preference")
		}
		return
	}
}

// computeConfidence derives the profile confidence from history size and
// recency of the previous brew.
func (e *Engine) computeConfidence(now time.Time, previous *BrewHistoryEntry) float64 {
	recency := 1.0
	if previous != nil {
		minutes := now.Sub(previous.CreatedAt).Minutes()
		recency = math.Max(0.2, 1-minutes/(7*24*60))
	}

	base := 0.35 + math.Min(50, float64(len(e.history)))*0.01
	return math.Min(0.95, base*recency)
}

// clampRange forces x into [lo, hi].
func clampRange(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
