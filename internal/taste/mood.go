// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package taste

import "strings"

// Mood is a closed mood category. Free-text mood strings entered by the
// user are mapped to a Mood exactly once, at the boundary where the text
// enters the system (ParseMood); everything downstream works on the enum.
type Mood int

const (
	// MoodUnknown means no mood information is available.
	MoodUnknown Mood = iota
	// MoodHappy covers upbeat, excited, joyful states.
	MoodHappy
	// MoodCalm covers relaxed, content, peaceful states.
	MoodCalm
	// MoodStressed covers anxious, overwhelmed, frustrated states.
	MoodStressed
	// MoodTired covers sleepy, exhausted, drained states.
	MoodTired
	// MoodNeutral is a recognized entry that matches no category.
	MoodNeutral
)

// String returns the canonical name for the mood category.
func (m Mood) String() string {
	switch m {
	case MoodHappy:
		return "happy"
	case MoodCalm:
		return "calm"
	case MoodStressed:
		return "stressed"
	case MoodTired:
		return "tired"
	case MoodNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// Score returns the well-being weight used by mood-impact analytics:
// +2 for happy-like moods, +1 for calm, -1 for stressed or tired,
// 0 otherwise.
func (m Mood) Score() float64 {
	switch m {
	case MoodHappy:
		return 2
	case MoodCalm:
		return 1
	case MoodStressed, MoodTired:
		return -1
	default:
		return 0
	}
}

// moodKeywords maps categories to the substrings that select them.
// Order matters: the first category with a matching keyword wins.
var moodKeywords = []struct {
	mood     Mood
	keywords []string
}{
	{MoodHappy, []string{"happy", "joy", "great", "excited", "amazing", "cheerful"}},
	{MoodCalm, []string{"calm", "relax", "peaceful", "content", "serene"}},
	{MoodStressed, []string{"stress", "anxious", "overwhelm", "frustrat", "tense"}},
	{MoodTired, []string{"tired", "sleepy", "exhaust", "drained", "fatigu", "groggy"}},
}

// ParseMood maps a free-text mood string to a closed Mood category using
// case-insensitive keyword containment. An empty string yields MoodUnknown;
// a non-empty string with no keyword match yields MoodNeutral.
func ParseMood(s string) Mood {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MoodUnknown
	}

	for _, entry := range moodKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(s, kw) {
				return entry.mood
			}
		}
	}

	return MoodNeutral
}
