// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package telemetry exposes Prometheus metrics behind fire-and-forget
// recording methods. Recording never blocks and never fails the caller.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the process-wide Prometheus collectors.
type Metrics struct {
	recommendationsGenerated prometheus.Counter
	recommendationCacheHits  prometheus.Counter
	travelModeServed         prometheus.Counter
	brewsIngested            prometheus.Counter
	usersDeleted             prometheus.Counter
	predictionDuration       prometheus.Histogram
}

// New registers the collectors with reg and returns the recording surface.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		recommendationsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "brewmind",
			Name:      "recommendations_generated_total",
			Help:      "Recommendations generated (cache misses).",
		}),
		recommendationCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "brewmind",
			Name:      "recommendation_cache_hits_total",
			Help:      "Recommendation sets served from the context cache.",
		}),
		travelModeServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "brewmind",
			Name:      "travel_mode_recommendations_total",
			Help:      "Recommendation sets generated with travel-mode simplification.",
		}),
		brewsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "brewmind",
			Name:      "brews_ingested_total",
			Help:      "Brew entries ingested into the learning engine.",
		}),
		usersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "brewmind",
			Name:      "users_deleted_total",
			Help:      "Privacy-delete flows completed.",
		}),
		predictionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "brewmind",
			Name:      "prediction_duration_seconds",
			Help:      "Latency of single-recipe rating predictions.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordGenerated counts a freshly generated recommendation set.
func (m *Metrics) RecordGenerated(int) {
	m.recommendationsGenerated.Inc()
}

// RecordCacheHit counts a recommendation set served from cache.
func (m *Metrics) RecordCacheHit() {
	m.recommendationCacheHits.Inc()
}

// RecordTravelMode counts a travel-mode simplified recommendation set.
func (m *Metrics) RecordTravelMode() {
	m.travelModeServed.Inc()
}

// RecordIngest counts an ingested brew entry.
func (m *Metrics) RecordIngest() {
	m.brewsIngested.Inc()
}

// RecordUserDeleted counts a completed privacy delete.
func (m *Metrics) RecordUserDeleted() {
	m.usersDeleted.Inc()
}

// ObservePrediction records the latency of one rating prediction.
func (m *Metrics) ObservePrediction(d time.Duration) {
	m.predictionDuration.Observe(d.Seconds())
}
