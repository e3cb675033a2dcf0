// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package weather provides the situational weather input for context-aware
// predictions. Free-text condition strings (and upstream numeric weather
// codes) are mapped to a closed Condition enum at this boundary; the rest
// of the system never sees raw condition text.
package weather

import (
	"context"
	"strings"
)

// Condition is a closed weather condition category.
type Condition string

// Weather condition categories.
const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionFog     Condition = "fog"
	ConditionWind    Condition = "wind"
)

// Report is a point-in-time weather observation.
type Report struct {
	// Condition is the categorized sky condition.
	Condition Condition `json:"condition"`

	// TemperatureC is the air temperature in degrees Celsius.
	TemperatureC float64 `json:"temperature_c"`

	// Humidity is the relative humidity in percent (0-100).
	Humidity float64 `json:"humidity"`
}

// Provider supplies weather for a location key. Implementations own their
// timeouts; callers treat a nil report or an error as "no weather" and
// degrade gracefully.
type Provider interface {
	// Current returns the current weather for the given location key,
	// or (nil, nil) when no observation is available.
	Current(ctx context.Context, location string) (*Report, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, location string) (*Report, error)

// Current implements Provider.
func (f ProviderFunc) Current(ctx context.Context, location string) (*Report, error) {
	return f(ctx, location)
}

// conditionKeywords maps categories to the substrings that select them.
var conditionKeywords = []struct {
	condition Condition
	keywords  []string
}{
	{ConditionRain, []string{"rain", "drizzle", "shower", "storm", "thunder"}},
	{ConditionSnow, []string{"snow", "sleet", "hail", "flurr"}},
	{ConditionFog, []string{"fog", "mist", "haze"}},
	{ConditionWind, []string{"wind", "gust", "breez"}},
	{ConditionCloudy, []string{"cloud", "overcast"}},
	{ConditionClear, []string{"clear", "sun", "fair"}},
}

// ParseCondition maps a free-text condition string to a Condition using
// case-insensitive keyword containment.
func ParseCondition(s string) Condition {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ConditionUnknown
	}

	for _, entry := range conditionKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(s, kw) {
				return entry.condition
			}
		}
	}

	return ConditionUnknown
}

// conditionFromWMOCode maps a WMO weather interpretation code (as served by
// Open-Meteo-compatible APIs) to a Condition.
func conditionFromWMOCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82) || code >= 95:
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	default:
		return ConditionUnknown
	}
}
