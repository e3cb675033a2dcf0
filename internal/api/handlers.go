// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/diary"
	"github.com/brewmind/brewmind/internal/engines"
	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/logging"
	"github.com/brewmind/brewmind/internal/recommend"
	"github.com/brewmind/brewmind/internal/taste"
	"github.com/brewmind/brewmind/internal/weather"
)

// CatalogStore is the storage surface the handlers use directly, outside
// the per-user engines.
type CatalogStore interface {
	PutRecipeProfile(ctx context.Context, recipe *learning.RecipeProfile) error
	DeleteUserData(ctx context.Context, userID string) error
}

// IngestMetrics is the optional telemetry surface for the HTTP handlers.
type IngestMetrics interface {
	RecordIngest()
	RecordUserDeleted()
	ObservePrediction(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordIngest()                   {}
func (noopMetrics) RecordUserDeleted()              {}
func (noopMetrics) ObservePrediction(time.Duration) {}

// Handler implements the HTTP endpoints.
type Handler struct {
	registry *engines.Registry
	store    CatalogStore
	metrics  IngestMetrics
	logger   zerolog.Logger
	ready    func(ctx context.Context) error
}

// HandlerOption customizes handler construction.
type HandlerOption func(*Handler)

// WithMetrics attaches the telemetry surface.
func WithMetrics(m IngestMetrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithReadyCheck sets the readiness probe dependency check.
func WithReadyCheck(check func(ctx context.Context) error) HandlerOption {
	return func(h *Handler) { h.ready = check }
}

// NewHandler creates the handler set.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(registry *engines.Registry, store CatalogStore, logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: registry,
		store:    store,
		metrics:  noopMetrics{},
		logger:   logger.With().Str("component", "api").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// situationRequest is the wire form of a brew/prediction context. A nil
// weekday means unknown; free-text moods are carried through and mapped
// to categories inside the engines.
type situationRequest struct {
	TimeOfDay  string          `json:"time_of_day"`
	Weekday    *int            `json:"weekday"`
	Weather    *weather.Report `json:"weather"`
	MoodBefore string          `json:"mood_before"`
	MoodAfter  string          `json:"mood_after"`
	Location   string          `json:"location"`
}

func (s *situationRequest) toSituation() learning.Situation {
	sit := learning.NewSituation()
	if s == nil {
		return sit
	}

	sit.TimeOfDay = taste.TimeOfDay(s.TimeOfDay)
	if s.Weekday != nil {
		sit.Weekday = *s.Weekday
	}
	sit.Weather = s.Weather
	sit.MoodBefore = s.MoodBefore
	sit.MoodAfter = s.MoodAfter
	sit.Location = s.Location
	return sit
}

// ingestRequest is the wire form of a brew feedback event.
type ingestRequest struct {
	ID            string                   `json:"id"`
	RecipeID      string                   `json:"recipe_id"`
	Rating        float64                  `json:"rating"`
	TasteFeedback learning.PartialFeedback `json:"taste_feedback"`
	FlavorNotes   []string                 `json:"flavor_notes"`
	Modifications []string                 `json:"modifications"`
	Context       *situationRequest        `json:"context"`
	Event         *learning.LearningEvent  `json:"event"`
	CreatedAt     *time.Time               `json:"created_at"`
}

// IngestBrew handles POST /api/v1/users/{userID}/brews.
func (h *Handler) IngestBrew(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be in [0, 5]")
		return
	}

	entry := &learning.BrewHistoryEntry{
		ID:            req.ID,
		UserID:        userID,
		RecipeID:      req.RecipeID,
		TasteFeedback: req.TasteFeedback,
		FlavorNotes:   req.FlavorNotes,
		Rating:        req.Rating,
		Context:       req.Context.toSituation(),
		Modifications: req.Modifications,
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	if req.CreatedAt != nil {
		entry.CreatedAt = req.CreatedAt.UTC()
	}
	entry.UpdatedAt = now
	if entry.Context.TimeOfDay == taste.TimeUnknown {
		entry.Context.TimeOfDay = taste.TimeOfDayFromHour(entry.CreatedAt.Hour())
	}
	if entry.Context.Weekday < 0 {
		entry.Context.Weekday = int(entry.CreatedAt.Weekday())
	}

	pair, release, err := h.registry.Acquire(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer release()

	profile, err := pair.Learning.IngestBrew(r.Context(), entry, req.Event)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.metrics.RecordIngest()
	writeJSON(w, http.StatusOK, map[string]any{
		"entry_id": entry.ID,
		"profile":  profile,
	})
}

// PredictRating handles GET /api/v1/users/{userID}/predictions/{recipeID}.
func (h *Handler) PredictRating(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	recipeID := chi.URLParam(r, "recipeID")

	pair, release, err := h.registry.Acquire(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer release()

	sit := pair.Recommend.EnrichContext(r.Context(), learning.NewSituation())

	start := time.Now()
	result := pair.Learning.PredictRating(r.Context(), recipeID, sit)
	h.metrics.ObservePrediction(time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

// Recommendations handles GET /api/v1/users/{userID}/recommendations?k=N.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = parsed
	}

	pair, release, err := h.registry.Acquire(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer release()

	recs, err := pair.Recommend.Recommend(r.Context(), learning.NewSituation())
	if err != nil {
		if errors.Is(err, recommend.ErrNoProfile) {
			writeError(w, http.StatusConflict, "taste profile unavailable")
			return
		}
		h.serverError(w, r, err)
		return
	}
	if k > 0 && len(recs) > k {
		recs = recs[:k]
	}

	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// Insights handles GET /api/v1/users/{userID}/insights?window=week|month|all.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	window := r.URL.Query().Get("window")

	pair, release, err := h.registry.Acquire(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	entries := pair.Learning.History()
	release()

	now := time.Now().UTC()
	switch window {
	case "week":
		entries = diary.FilterWeek(entries, now)
	case "month":
		entries = diary.FilterMonth(entries, now)
	case "", "all":
	default:
		writeError(w, http.StatusBadRequest, "window must be week, month, or all")
		return
	}

	writeJSON(w, http.StatusOK, diary.GenerateInsights(entries))
}

// Profile handles GET /api/v1/users/{userID}/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	pair, release, err := h.registry.Acquire(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	profile := pair.Learning.Profile()
	release()

	writeJSON(w, http.StatusOK, profile)
}

// DeleteUser handles DELETE /api/v1/users/{userID}: the privacy-delete
// flow removing the profile and full history.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.store.DeleteUserData(r.Context(), userID); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.registry.Evict(userID)
	h.metrics.RecordUserDeleted()

	w.WriteHeader(http.StatusNoContent)
}

// PutRecipe handles PUT /api/v1/recipes/{recipeID}.
func (h *Handler) PutRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "recipeID")

	var recipe learning.RecipeProfile
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	recipe.ID = recipeID
	recipe.TasteVector = recipe.TasteVector.Clamp()

	if err := h.store.PutRecipeProfile(r.Context(), &recipe); err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// HealthLive handles GET /health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /health/ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())
	logger.Error().Err(err).
		Str("path", r.URL.Path).Msg("Request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
