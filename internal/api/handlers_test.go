// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/engines"
	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/recommend"
	"github.com/brewmind/brewmind/internal/storage"
	"github.com/brewmind/brewmind/internal/taste"
)

func newTestServer(t *testing.T, opts ...HandlerOption) (*httptest.Server, *storage.Store) {
	t.Helper()

	store, err := storage.Open(storage.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	registry := engines.NewRegistry(engines.Deps{
		Store:        store,
		Candidates:   store.Candidates,
		Logger:       zerolog.Nop(),
		LearningCfg:  learning.DefaultConfig(),
		RecommendCfg: recommend.Config{},
	})

	handler := NewHandler(registry, store, zerolog.Nop(), opts...)
	router := NewRouter(RouterConfig{RateLimit: 0, CORSOrigins: []string{"*"}}, handler, zerolog.Nop())

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading response: %v", err)
	}
	return resp, buf.Bytes()
}

func TestIngestBrewAndProfile(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/u1/brews", map[string]any{
		"recipe_id": "cortado",
		"rating":    5,
		"event":     map[string]any{"type": "liked"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var ingest struct {
		EntryID string                    `json:"entry_id"`
		Profile learning.UserTasteProfile `json:"profile"`
	}
	if err := json.Unmarshal(body, &ingest); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if ingest.EntryID == "" {
		t.Error("entry_id missing")
	}
	if ingest.Profile.Preferences.Sweetness <= taste.DimNeutral {
		t.Errorf("Sweetness = %v, want above neutral after a 5-star brew", ingest.Profile.Preferences.Sweetness)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/users/u1/profile", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	var profile learning.UserTasteProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if profile.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", profile.UserID)
	}
}

func TestIngestBrewRejectsBadRating(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/u1/brews", map[string]any{
		"rating": 9,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPredictUnknownRecipeFallsBack(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/users/u1/predictions/ghost", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var result learning.PredictionResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.PredictedRating != 3 || result.Confidence != 0.2 {
		t.Errorf("fallback = (%v, %v), want (3, 0.2)", result.PredictedRating, result.Confidence)
	}
}

func TestRecommendationsWithCatalog(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	recipes := []learning.RecipeProfile{
		{ID: "balanced", TasteVector: taste.Vector{Sweetness: 5, Acidity: 5, Bitterness: 5, Body: 5}},
		{ID: "sharp", TasteVector: taste.Vector{Acidity: 10}},
	}
	for i := range recipes {
		if err := store.PutRecipeProfile(ctx, &recipes[i]); err != nil {
			t.Fatalf("seeding recipe: %v", err)
		}
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/users/u1/recommendations", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var result struct {
		Recommendations []recommend.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("len = %d, want 2", len(result.Recommendations))
	}
	if result.Recommendations[0].Recipe.ID != "balanced" {
		t.Errorf("top recipe = %q, want balanced", result.Recommendations[0].Recipe.ID)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/users/u1/recommendations?k=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(result.Recommendations) != 1 {
		t.Errorf("len = %d, want 1 with k=1", len(result.Recommendations))
	}
}

func TestRecommendationsRejectsBadK(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/users/u1/recommendations?k=zero", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInsightsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/users/u1/insights", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var insights struct {
		BrewsCount      int     `json:"brews_count"`
		AverageRating   float64 `json:"average_rating"`
		BestMomentOfDay string  `json:"best_moment_of_day"`
	}
	if err := json.Unmarshal(body, &insights); err != nil {
		t.Fatalf("decoding insights: %v", err)
	}
	if insights.BrewsCount != 0 || insights.AverageRating != 0 || insights.BestMomentOfDay != "unknown" {
		t.Errorf("insights = %+v, want empty defaults", insights)
	}
}

func TestInsightsRejectsBadWindow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/users/u1/insights?window=year", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDeleteUserResetsProfile(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/u1/brews", map[string]any{
		"rating": 5,
	})

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/users/u1/", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/users/u1/profile", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	var profile learning.UserTasteProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if profile.Preferences.Sweetness != taste.DimNeutral {
		t.Errorf("Sweetness = %v, want neutral after delete", profile.Preferences.Sweetness)
	}
}

func TestPutRecipe(t *testing.T) {
	srv, store := newTestServer(t)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/api/v1/recipes/cortado", map[string]any{
		"name":         "Cortado",
		"taste_vector": map[string]any{"sweetness": 6, "bitterness": 12},
		"tags":         []string{"morning_boost"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	recipe, err := store.RecipeProfile(context.Background(), "cortado")
	if err != nil {
		t.Fatalf("RecipeProfile() error = %v", err)
	}
	if recipe == nil || recipe.Name != "Cortado" {
		t.Fatalf("recipe = %+v, want stored Cortado", recipe)
	}
	// Out-of-range dimensions are clamped at the boundary.
	if recipe.TasteVector.Bitterness != taste.DimMax {
		t.Errorf("Bitterness = %v, want clamped to %v", recipe.TasteVector.Bitterness, taste.DimMax)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health/live", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live status = %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/health/ready", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d, want 200", resp.StatusCode)
	}
}

func TestHealthReadyFailure(t *testing.T) {
	srv, _ := newTestServer(t, WithReadyCheck(func(context.Context) error {
		return errors.New("store not ready")
	}))

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health/ready", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health/live", nil)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

// Guard against route registration drift: every documented route resolves.
func TestRouteRegistration(t *testing.T) {
	handler := NewHandler(nil, nil, zerolog.Nop())
	router := NewRouter(RouterConfig{}, handler, zerolog.Nop())

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/users/u1/brews"},
		{http.MethodGet, "/api/v1/users/u1/predictions/r1"},
		{http.MethodGet, "/api/v1/users/u1/recommendations"},
		{http.MethodGet, "/api/v1/users/u1/insights"},
		{http.MethodGet, "/api/v1/users/u1/profile"},
		{http.MethodDelete, "/api/v1/users/u1/"},
		{http.MethodPut, "/api/v1/recipes/r1"},
		{http.MethodGet, "/health/live"},
		{http.MethodGet, "/health/ready"},
		{http.MethodGet, "/metrics"},
	}

	for _, route := range routes {
		rctx := chi.NewRouteContext()
		if !router.Match(rctx, route.method, route.path) {
			t.Errorf("route %s %s not registered", route.method, route.path)
		}
	}
}
