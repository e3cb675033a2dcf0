// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package diary derives behavioral insights from the brew history log:
// summaries, best-moment-of-day, mood impact, and skill progression. All
// functions are pure and deterministic given the entry list and a
// reference time; callers own windowing and I/O.
package diary

import (
	"sort"
	"time"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/taste"
)

// Trend labels the direction of the skill progression slope.
type Trend string

// Skill trend labels.
const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Insights is the full analytics bundle over a set of entries.
type Insights struct {
	// BrewsCount is the number of entries analyzed.
	BrewsCount int `json:"brews_count"`

	// AverageRating is the mean rating across all entries.
	AverageRating float64 `json:"average_rating"`

	// TopFlavorNotes lists the 3 most frequent note names, ties broken
	// by first-seen order.
	TopFlavorNotes []string `json:"top_flavor_notes,omitempty"`

	// BestMomentOfDay is the time-of-day bucket with the highest mean
	// rating; "unknown" when nothing qualifies.
	BestMomentOfDay string `json:"best_moment_of_day"`

	// MoodImpact summarizes how brewing shifts the user's mood.
	MoodImpact MoodImpact `json:"mood_impact"`

	// Skill is the closed-form skill progression signal.
	Skill SkillProgression `json:"skill"`
}

// MoodImpact aggregates before/after mood shifts per mood category.
type MoodImpact struct {
	// Buckets holds one record per distinct before-brew mood category.
	Buckets []MoodBucket `json:"buckets,omitempty"`

	// MoodShiftScore is the sum of all bucket mean shifts.
	MoodShiftScore float64 `json:"mood_shift_score"`
}

// MoodBucket is the aggregate shift for one before-brew mood category.
type MoodBucket struct {
	// Mood is the mood category name.
	Mood string `json:"mood"`

	// MeanShift is mean(score(after) - score(before)) for the bucket.
	MeanShift float64 `json:"mean_shift"`

	// Count is the number of entries in the bucket.
	Count int `json:"count"`

	// Effect is "positive" (> 0.1), "negative" (< -0.1), or "neutral".
	Effect string `json:"effect"`
}

// SkillProgression is the OLS slope of rating over time.
type SkillProgression struct {
	// Slope is rating change per minute since the first entry.
	Slope float64 `json:"slope"`

	// Trend labels the slope direction.
	Trend Trend `json:"trend"`

	// Samples is the number of entries the regression used.
	Samples int `json:"samples"`
}

// GenerateInsights computes the full analytics bundle. An empty entry list
// yields zero counts, averageRating 0, and bestMomentOfDay "unknown".
func GenerateInsights(entries []learning.BrewHistoryEntry) Insights {
	return Insights{
		BrewsCount:      len(entries),
		AverageRating:   AverageRating(entries),
		TopFlavorNotes:  TopFlavorNotes(entries, 3),
		BestMomentOfDay: BestMomentOfDay(entries),
		MoodImpact:      AnalyzeMoodImpact(entries),
		Skill:           SkillTrend(entries),
	}
}

// AverageRating returns the mean rating, 0 for an empty list.
func AverageRating(entries []learning.BrewHistoryEntry) float64 {
	if len(entries) == 0 {
		return 0
	}

	var sum float64
	for i := range entries {
		sum += entries[i].Rating
	}
	return sum / float64(len(entries))
}

// TopFlavorNotes returns the k most frequent flavor-note names. Ties are
// broken by the order the notes first appear in the entry list.
func TopFlavorNotes(entries []learning.BrewHistoryEntry, k int) []string {
	counts := make(map[string]int)
	var order []string

	for i := range entries {
		for _, note := range entries[i].FlavorNotes {
			if _, seen := counts[note]; !seen {
				order = append(order, note)
			}
			counts[note]++
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	if len(order) > k {
		order = order[:k]
	}
	return order
}

// BestMomentOfDay returns the time-of-day bucket (including "unknown")
// with the highest mean rating, or "unknown" for an empty list.
func BestMomentOfDay(entries []learning.BrewHistoryEntry) string {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string

	for i := range entries {
		bucket := entries[i].Context.TimeOfDay.Label()
		if _, seen := counts[bucket]; !seen {
			order = append(order, bucket)
		}
		sums[bucket] += entries[i].Rating
		counts[bucket]++
	}

	best := "unknown"
	bestMean := -1.0
	for _, bucket := range order {
		mean := sums[bucket] / float64(counts[bucket])
		if mean > bestMean {
			best = bucket
			bestMean = mean
		}
	}
	return best
}

// AnalyzeMoodImpact buckets entries by before-brew mood category and
// averages the mood-score shift within each bucket. Entries without a
// before-mood are skipped.
func AnalyzeMoodImpact(entries []learning.BrewHistoryEntry) MoodImpact {
	sums := make(map[taste.Mood]float64)
	counts := make(map[taste.Mood]int)
	var order []taste.Mood

	for i := range entries {
		before := taste.ParseMood(entries[i].Context.MoodBefore)
		if before == taste.MoodUnknown {
			continue
		}
		after := taste.ParseMood(entries[i].Context.MoodAfter)

		if _, seen := counts[before]; !seen {
			order = append(order, before)
		}
		sums[before] += after.Score() - before.Score()
		counts[before]++
	}

	var impact MoodImpact
	for _, mood := range order {
		mean := sums[mood] / float64(counts[mood])

		effect := "neutral"
		switch {
		case mean > 0.1:
			effect = "positive"
		case mean < -0.1:
			effect = "negative"
		}

		impact.Buckets = append(impact.Buckets, MoodBucket{
			Mood:      mood.String(),
			MeanShift: mean,
			Count:     counts[mood],
			Effect:    effect,
		})
		impact.MoodShiftScore += mean
	}

	return impact
}

// SkillTrend fits an ordinary-least-squares line through (minutes since
// first entry, rating) and labels the slope. Fewer than 3 entries, or a
// degenerate denominator, yield a stable trend with slope 0.
func SkillTrend(entries []learning.BrewHistoryEntry) SkillProgression {
	if len(entries) < 3 {
		return SkillProgression{Trend: TrendStable, Samples: len(entries)}
	}

	sorted := make([]learning.BrewHistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].CreatedAt.Before(sorted[b].CreatedAt)
	})

	first := sorted[0].CreatedAt
	n := float64(len(sorted))

	var sumX, sumY, sumXY, sumXX float64
	for i := range sorted {
		x := sorted[i].CreatedAt.Sub(first).Minutes()
		y := sorted[i].Rating
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	slope := 0.0
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}

	trend := TrendStable
	switch {
	case slope > 0.01:
		trend = TrendImproving
	case slope < -0.01:
		trend = TrendDeclining
	}

	return SkillProgression{Slope: slope, Trend: trend, Samples: len(sorted)}
}

// FilterWeek returns the entries inside the ISO week (Monday start)
// containing the reference time.
func FilterWeek(entries []learning.BrewHistoryEntry, now time.Time) []learning.BrewHistoryEntry {
	start := startOfISOWeek(now)
	end := start.AddDate(0, 0, 7)
	return filterRange(entries, start, end)
}

// FilterMonth returns the entries inside the calendar month containing
// the reference time.
func FilterMonth(entries []learning.BrewHistoryEntry, now time.Time) []learning.BrewHistoryEntry {
	y, m, _ := now.UTC().Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return filterRange(entries, start, end)
}

// startOfISOWeek returns midnight UTC of the Monday of now's ISO week.
func startOfISOWeek(now time.Time) time.Time {
	now = now.UTC()
	offset := (int(now.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	y, m, d := now.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// filterRange keeps entries with start <= CreatedAt < end.
func filterRange(entries []learning.BrewHistoryEntry, start, end time.Time) []learning.BrewHistoryEntry {
	var out []learning.BrewHistoryEntry
	for i := range entries {
		at := entries[i].CreatedAt.UTC()
		if !at.Before(start) && at.Before(end) {
			out = append(out, entries[i])
		}
	}
	return out
}
