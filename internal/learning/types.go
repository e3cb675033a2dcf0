// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package learning

import (
	"time"

	"github.com/brewmind/brewmind/internal/taste"
	"github.com/brewmind/brewmind/internal/weather"
)

// UserTasteProfile is the per-user learned taste model. It is created on
// first load, mutated only by IngestBrew, and persisted after every
// mutation. Removal happens only through the privacy-delete flow on the
// storage adapter.
type UserTasteProfile struct {
	// UserID identifies the profile owner.
	UserID string `json:"user_id"`

	// Preferences is the learned 4-dimensional taste vector, always
	// clamped to [0, 10].
	Preferences taste.Vector `json:"preferences"`

	// FlavorNotes maps flavor-note names to learned scores in [0, 10].
	FlavorNotes taste.FlavorNotes `json:"flavor_notes"`

	// MilkPreferences lists preferred milk choices (e.g. "oat", "whole").
	MilkPreferences []string `json:"milk_preferences,omitempty"`

	// CaffeineSensitivity is the user's caffeine sensitivity level.
	CaffeineSensitivity taste.CaffeineSensitivity `json:"caffeine_sensitivity"`

	// PreferredStrength is the user's preferred brew strength.
	PreferredStrength taste.Strength `json:"preferred_strength"`

	// SeasonalAdjustments holds one bounded delta record per calendar
	// month (keyed YYYY-MM).
	SeasonalAdjustments []SeasonalAdjustment `json:"seasonal_adjustments,omitempty"`

	// PreferenceConfidence expresses how much evidence backs the
	// profile, in [0, 1].
	PreferenceConfidence float64 `json:"preference_confidence"`

	// LastRecalculatedAt is when the profile last went through an
	// online update (the reference point for time decay).
	LastRecalculatedAt time.Time `json:"last_recalculated_at"`

	// UpdatedAt is when the profile was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// SeasonalAdjustment is a per-month taste delta. Every delta dimension is
// bounded to [-3, 3].
type SeasonalAdjustment struct {
	// Month is the calendar month key in YYYY-MM form.
	Month string `json:"month"`

	// Sweetness is the sweetness delta for the month.
	Sweetness float64 `json:"sweetness"`

	// Body is the body delta for the month.
	Body float64 `json:"body"`
}

// SeasonalDeltaBound is the absolute bound on seasonal adjustment deltas.
const SeasonalDeltaBound = 3.0

// PartialFeedback is explicit per-dimension taste feedback attached to a
// brew. Nil fields mean "no explicit feedback for this dimension".
type PartialFeedback struct {
	Sweetness  *float64 `json:"sweetness,omitempty"`
	Acidity    *float64 `json:"acidity,omitempty"`
	Bitterness *float64 `json:"bitterness,omitempty"`
	Body       *float64 `json:"body,omitempty"`
}

// Situation is the situational context attached to a brew entry or a
// prediction request. A Weekday below zero means unknown.
type Situation struct {
	// TimeOfDay is the coarse clock bucket; empty means unknown.
	TimeOfDay taste.TimeOfDay `json:"time_of_day,omitempty"`

	// Weekday is the day of week (0=Sunday .. 6=Saturday); -1 unknown.
	Weekday int `json:"weekday"`

	// Weather is the observation at brew/prediction time, if any.
	Weather *weather.Report `json:"weather,omitempty"`

	// MoodBefore is the user's free-text mood before the brew.
	MoodBefore string `json:"mood_before,omitempty"`

	// MoodAfter is the user's free-text mood after the brew.
	MoodAfter string `json:"mood_after,omitempty"`

	// AnticipatedMood is the inferred mood category for predictions.
	AnticipatedMood taste.Mood `json:"anticipated_mood,omitempty"`

	// Location is an opaque location key for the weather provider.
	Location string `json:"location,omitempty"`

	// Simplify indicates travel mode wants simplified recommendations.
	Simplify bool `json:"simplify,omitempty"`
}

// NewSituation returns a Situation with the weekday marked unknown.
func NewSituation() Situation {
	return Situation{Weekday: -1}
}

// BrewHistoryEntry is an immutable brew feedback event. Entries are
// appended to a bounded newest-first history and never mutated afterwards.
type BrewHistoryEntry struct {
	// ID uniquely identifies the entry and doubles as the idempotent
	// replay key for at-least-once ingestion.
	ID string `json:"id"`

	// UserID is the owner of the entry.
	UserID string `json:"user_id"`

	// RecipeID references the brewed recipe, when known.
	RecipeID string `json:"recipe_id,omitempty"`

	// TasteFeedback is optional explicit per-dimension feedback.
	TasteFeedback PartialFeedback `json:"taste_feedback,omitempty"`

	// FlavorNotes lists the note names perceived in this brew.
	FlavorNotes []string `json:"flavor_notes,omitempty"`

	// Rating is the user's rating in [0, 5]; 0 means unrated.
	Rating float64 `json:"rating"`

	// Context captures the situation the brew happened in.
	Context Situation `json:"context"`

	// Modifications lists recipe modification tags ("extra shot", ...).
	Modifications []string `json:"modifications,omitempty"`

	// CreatedAt is when the brew happened.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the entry record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// EventType classifies a learning event attached to a brew.
type EventType string

// Learning event types.
const (
	EventLiked     EventType = "liked"
	EventDisliked  EventType = "disliked"
	EventFavorited EventType = "favorited"
	EventRepeated  EventType = "repeated"
	EventShared    EventType = "shared"
)

// Multiplier returns the trust multiplier for the event type. Disliked
// events weigh heaviest: negative surprise carries the most information.
func (t EventType) Multiplier() float64 {
	switch t {
	case EventLiked:
		return 1.1
	case EventFavorited:
		return 1.2
	case EventRepeated:
		return 0.9
	case EventDisliked:
		return 1.3
	default:
		return 1.0
	}
}

// LearningEvent biases how much an ingested brew is trusted.
type LearningEvent struct {
	// Type is the event classification.
	Type EventType `json:"type"`

	// Weight scales the type multiplier; zero is treated as 1.
	Weight float64 `json:"weight,omitempty"`
}

// RecipeProfile is an external candidate item's taste description. It is
// read-only at prediction time and not owned by this package.
type RecipeProfile struct {
	// ID identifies the recipe.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name,omitempty"`

	// TasteVector is the recipe's own 4-dimensional taste profile.
	TasteVector taste.Vector `json:"taste_vector"`

	// Tags carries behavior tags consumed by context scoring
	// ("iced", "rich", "comfort", "quick", "morning_boost", ...).
	Tags []string `json:"tags,omitempty"`

	// BrewMethod names the preparation method ("espresso", "v60", ...).
	BrewMethod string `json:"brew_method,omitempty"`
}

// HasTag reports whether the recipe carries the given tag.
func (r *RecipeProfile) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PredictionResult is an ephemeral rating prediction. It is persisted only
// inside the recommendation cache, together with a TTL stamp.
type PredictionResult struct {
	// RecipeID is the candidate the prediction is for.
	RecipeID string `json:"recipe_id"`

	// PredictedRating is the predicted rating in [1, 5].
	PredictedRating float64 `json:"predicted_rating"`

	// Confidence expresses prediction evidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// ContributingRecipes lists up to 3 similar recipes that boosted
	// the prediction.
	ContributingRecipes []string `json:"contributing_recipes,omitempty"`

	// ContextBonuses is the human-readable explanation trail of the
	// applied context bonuses.
	ContextBonuses []string `json:"context_bonuses,omitempty"`
}

// CommunityStat is an aggregate flavor-note statistic from the optional
// community hook.
type CommunityStat struct {
	// Average is the community-wide mean score for the note.
	Average float64 `json:"average"`

	// SampleSize is the number of users behind the average.
	SampleSize int `json:"sample_size"`
}

// NewDefaultProfile creates the profile used on first load for a user with
// no stored state: neutral preferences, balanced strength, medium caffeine
// sensitivity, zero confidence.
func NewDefaultProfile(userID string, now time.Time) *UserTasteProfile {
	return &UserTasteProfile{
		UserID: userID,
		Preferences: taste.Vector{
			Sweetness:  taste.DimNeutral,
			Acidity:    taste.DimNeutral,
			Bitterness: taste.DimNeutral,
			Body:       taste.DimNeutral,
		},
		FlavorNotes:         taste.FlavorNotes{},
		CaffeineSensitivity: taste.CaffeineMedium,
		PreferredStrength:   taste.StrengthBalanced,
		LastRecalculatedAt:  now,
		UpdatedAt:           now,
	}
}
