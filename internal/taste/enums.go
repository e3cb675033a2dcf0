// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package taste

// CaffeineSensitivity classifies how strongly a user reacts to caffeine.
type CaffeineSensitivity string

// Caffeine sensitivity levels.
const (
	CaffeineLow    CaffeineSensitivity = "low"
	CaffeineMedium CaffeineSensitivity = "medium"
	CaffeineHigh   CaffeineSensitivity = "high"
)

// Strength is a user's preferred brew strength.
type Strength string

// Brew strength preferences, ordered light < balanced < strong.
const (
	StrengthLight    Strength = "light"
	StrengthBalanced Strength = "balanced"
	StrengthStrong   Strength = "strong"
)

// Downgrade returns the next-weaker strength preference. Light stays light.
func (s Strength) Downgrade() Strength {
	switch s {
	case StrengthStrong:
		return StrengthBalanced
	case StrengthBalanced:
		return StrengthLight
	default:
		return StrengthLight
	}
}

// TimeOfDay buckets the clock into the coarse periods used for context
// bonuses and diary analytics. The empty value means unknown.
type TimeOfDay string

// Time-of-day buckets.
const (
	TimeUnknown   TimeOfDay = ""
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeNight     TimeOfDay = "night"
)

// TimeOfDayFromHour buckets an hour (0-23) into a TimeOfDay.
func TimeOfDayFromHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return TimeMorning
	case hour >= 12 && hour < 17:
		return TimeAfternoon
	case hour >= 17 && hour < 22:
		return TimeEvening
	default:
		return TimeNight
	}
}

// Label returns "unknown" for the empty bucket and the bucket name otherwise.
func (t TimeOfDay) Label() string {
	if t == TimeUnknown {
		return "unknown"
	}
	return string(t)
}
