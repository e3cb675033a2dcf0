// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package diary

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/taste"
)

var testBase = time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC) // a Wednesday

func entryAt(offset time.Duration, rating float64) learning.BrewHistoryEntry {
	return learning.BrewHistoryEntry{
		ID:        "e-" + offset.String(),
		UserID:    "u1",
		Rating:    rating,
		Context:   learning.NewSituation(),
		CreatedAt: testBase.Add(offset),
	}
}

func TestGenerateInsightsEmpty(t *testing.T) {
	got := GenerateInsights(nil)

	if got.BrewsCount != 0 {
		t.Errorf("BrewsCount = %d, want 0", got.BrewsCount)
	}
	if got.AverageRating != 0 {
		t.Errorf("AverageRating = %v, want 0", got.AverageRating)
	}
	if got.BestMomentOfDay != "unknown" {
		t.Errorf("BestMomentOfDay = %q, want %q", got.BestMomentOfDay, "unknown")
	}
	if got.Skill.Trend != TrendStable {
		t.Errorf("Skill.Trend = %v, want stable", got.Skill.Trend)
	}
}

func TestAverageRating(t *testing.T) {
	entries := []learning.BrewHistoryEntry{
		entryAt(0, 2),
		entryAt(time.Hour, 3),
		entryAt(2*time.Hour, 4),
	}

	if got := AverageRating(entries); got != 3 {
		t.Errorf("AverageRating() = %v, want 3", got)
	}
}

func TestTopFlavorNotesTieBreaksByFirstSeen(t *testing.T) {
	entries := []learning.BrewHistoryEntry{
		{FlavorNotes: []string{"citrus", "chocolate"}},
		{FlavorNotes: []string{"chocolate", "caramel"}},
		{FlavorNotes: []string{"chocolate", "citrus", "floral"}},
		{FlavorNotes: []string{"caramel"}},
	}

	// chocolate=3, citrus=2, caramel=2 (citrus first seen before caramel),
	// floral=1 drops out of the top 3.
	want := []string{"chocolate", "citrus", "caramel"}
	if got := TopFlavorNotes(entries, 3); !reflect.DeepEqual(got, want) {
		t.Errorf("TopFlavorNotes() = %v, want %v", got, want)
	}
}

func TestBestMomentOfDay(t *testing.T) {
	morning := learning.NewSituation()
	morning.TimeOfDay = taste.TimeMorning
	evening := learning.NewSituation()
	evening.TimeOfDay = taste.TimeEvening

	entries := []learning.BrewHistoryEntry{
		{Rating: 3, Context: morning},
		{Rating: 4, Context: morning},
		{Rating: 5, Context: evening},
	}

	if got := BestMomentOfDay(entries); got != "evening" {
		t.Errorf("BestMomentOfDay() = %q, want %q", got, "evening")
	}
}

func TestBestMomentOfDayUnknownBucket(t *testing.T) {
	// Entries without a time-of-day still count as their own bucket.
	entries := []learning.BrewHistoryEntry{
		{Rating: 5, Context: learning.NewSituation()},
	}

	if got := BestMomentOfDay(entries); got != "unknown" {
		t.Errorf("BestMomentOfDay() = %q, want %q", got, "unknown")
	}
}

func TestAnalyzeMoodImpact(t *testing.T) {
	mk := func(before, after string) learning.BrewHistoryEntry {
		sit := learning.NewSituation()
		sit.MoodBefore = before
		sit.MoodAfter = after
		return learning.BrewHistoryEntry{Context: sit}
	}

	entries := []learning.BrewHistoryEntry{
		mk("tired", "happy"),   // -1 -> +2: shift +3
		mk("tired", "calm"),    // -1 -> +1: shift +2
		mk("stressed", "calm"), // -1 -> +1: shift +2
		mk("", "happy"),        // no before-mood, skipped
	}

	impact := AnalyzeMoodImpact(entries)

	if len(impact.Buckets) != 2 {
		t.Fatalf("len(Buckets) = %d, want 2", len(impact.Buckets))
	}

	tired := impact.Buckets[0]
	if tired.Mood != "tired" || tired.Count != 2 || tired.MeanShift != 2.5 {
		t.Errorf("tired bucket = %+v, want mood=tired count=2 meanShift=2.5", tired)
	}
	if tired.Effect != "positive" {
		t.Errorf("tired Effect = %q, want positive", tired.Effect)
	}

	stressed := impact.Buckets[1]
	if stressed.Mood != "stressed" || stressed.MeanShift != 2 {
		t.Errorf("stressed bucket = %+v, want mood=stressed meanShift=2", stressed)
	}

	if impact.MoodShiftScore != 4.5 {
		t.Errorf("MoodShiftScore = %v, want 4.5", impact.MoodShiftScore)
	}
}

func TestAnalyzeMoodImpactNegativeEffect(t *testing.T) {
	sit := learning.NewSituation()
	sit.MoodBefore = "happy"
	sit.MoodAfter = "stressed"

	impact := AnalyzeMoodImpact([]learning.BrewHistoryEntry{{Context: sit}})

	if len(impact.Buckets) != 1 {
		t.Fatalf("len(Buckets) = %d, want 1", len(impact.Buckets))
	}
	if impact.Buckets[0].Effect != "negative" {
		t.Errorf("Effect = %q, want negative", impact.Buckets[0].Effect)
	}
}

func TestSkillTrendImproving(t *testing.T) {
	// Ratings 2, 3, 4 at 0, 60, 120 minutes: slope 1/60 per minute.
	entries := []learning.BrewHistoryEntry{
		entryAt(0, 2),
		entryAt(time.Hour, 3),
		entryAt(2*time.Hour, 4),
	}

	got := SkillTrend(entries)

	if got.Trend != TrendImproving {
		t.Errorf("Trend = %v, want improving", got.Trend)
	}
	if math.Abs(got.Slope-1.0/60.0) > 1e-9 {
		t.Errorf("Slope = %v, want %v", got.Slope, 1.0/60.0)
	}
	if got.Samples != 3 {
		t.Errorf("Samples = %d, want 3", got.Samples)
	}
}

func TestSkillTrendDeclining(t *testing.T) {
	entries := []learning.BrewHistoryEntry{
		entryAt(0, 5),
		entryAt(time.Hour, 3),
		entryAt(2*time.Hour, 1),
	}

	if got := SkillTrend(entries); got.Trend != TrendDeclining {
		t.Errorf("Trend = %v, want declining", got.Trend)
	}
}

func TestSkillTrendHandlesUnsortedInput(t *testing.T) {
	entries := []learning.BrewHistoryEntry{
		entryAt(2*time.Hour, 4),
		entryAt(0, 2),
		entryAt(time.Hour, 3),
	}

	if got := SkillTrend(entries); got.Trend != TrendImproving {
		t.Errorf("Trend = %v, want improving", got.Trend)
	}
}

func TestSkillTrendDegenerate(t *testing.T) {
	// All samples at the same instant: zero denominator, stable.
	entries := []learning.BrewHistoryEntry{
		entryAt(0, 1),
		entryAt(0, 3),
		entryAt(0, 5),
	}

	got := SkillTrend(entries)
	if got.Slope != 0 || got.Trend != TrendStable {
		t.Errorf("SkillTrend() = %+v, want slope 0 stable", got)
	}
}

func TestSkillTrendTooFewSamples(t *testing.T) {
	entries := []learning.BrewHistoryEntry{entryAt(0, 2), entryAt(time.Hour, 5)}

	got := SkillTrend(entries)
	if got.Trend != TrendStable || got.Samples != 2 {
		t.Errorf("SkillTrend() = %+v, want stable with 2 samples", got)
	}
}

func TestFilterWeek(t *testing.T) {
	// testBase is Wednesday 2026-03-04; the ISO week runs Mon 03-02
	// through Sun 03-08.
	inside := entryAt(0, 4)
	monday := entryAt(-2*24*time.Hour - 9*time.Hour, 3)   // Mon 00:00
	lastSunday := entryAt(-3*24*time.Hour - 9*time.Hour, 2) // Sun before
	nextMonday := entryAt(4*24*time.Hour+15*time.Hour, 5)   // Mon 00:00 next week

	got := FilterWeek([]learning.BrewHistoryEntry{inside, monday, lastSunday, nextMonday}, testBase)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != inside.ID || got[1].ID != monday.ID {
		t.Errorf("FilterWeek kept %q and %q, want inside+monday", got[0].ID, got[1].ID)
	}
}

func TestFilterMonth(t *testing.T) {
	inside := entryAt(0, 4)
	february := entryAt(-4*24*time.Hour, 3)
	april := entryAt(30*24*time.Hour, 5)

	got := FilterMonth([]learning.BrewHistoryEntry{inside, february, april}, testBase)

	if len(got) != 1 || got[0].ID != inside.ID {
		t.Errorf("FilterMonth kept %d entries, want just the March one", len(got))
	}
}
