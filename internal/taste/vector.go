// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package taste defines the taste-vector model shared by the learning,
// recommendation, and analytics subsystems.
//
// A taste vector is a 4-dimensional continuous representation of a person's
// or an item's flavor character: sweetness, acidity, bitterness, and body.
// Every dimension lives in [0, 10] with 5 as the neutral midpoint. The
// cosine-similarity operation is deliberately typed on Vector rather than
// exposed as a generic N-dimensional function so that taste affinity cannot
// be accidentally mixed with similarity over differently-shaped data.
package taste

import "math"

// Dimension bounds for every taste vector and flavor-note score.
const (
	// DimMin is the lower bound of a taste dimension.
	DimMin = 0.0

	// DimMax is the upper bound of a taste dimension.
	DimMax = 10.0

	// DimNeutral is the neutral midpoint that stale values decay toward.
	DimNeutral = 5.0
)

// Vector is a 4-dimensional taste profile. All dimensions are kept in
// [DimMin, DimMax]; use Clamp after any arithmetic.
type Vector struct {
	// Sweetness is the perceived sweetness (0-10).
	Sweetness float64 `json:"sweetness"`

	// Acidity is the perceived brightness/acidity (0-10).
	Acidity float64 `json:"acidity"`

	// Bitterness is the perceived bitterness (0-10).
	Bitterness float64 `json:"bitterness"`

	// Body is the perceived body/mouthfeel (0-10).
	Body float64 `json:"body"`
}

// FlavorNotes maps a flavor-note name (e.g. "chocolate", "citrus") to a
// preference score in [0, 10].
type FlavorNotes map[string]float64

// Clamp returns a copy with every dimension forced into [DimMin, DimMax].
func (v Vector) Clamp() Vector {
	return Vector{
		Sweetness:  ClampDim(v.Sweetness),
		Acidity:    ClampDim(v.Acidity),
		Bitterness: ClampDim(v.Bitterness),
		Body:       ClampDim(v.Body),
	}
}

// Cosine returns the cosine similarity between two taste vectors in [-1, 1].
// A zero vector on either side yields 0 rather than NaN.
func (v Vector) Cosine(o Vector) float64 {
	a := v.dims()
	b := o.dims()

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// IsZero reports whether all dimensions are zero.
func (v Vector) IsZero() bool {
	return v.Sweetness == 0 && v.Acidity == 0 && v.Bitterness == 0 && v.Body == 0
}

// dims returns the dimensions as a fixed-size array for iteration.
func (v Vector) dims() [4]float64 {
	return [4]float64{v.Sweetness, v.Acidity, v.Bitterness, v.Body}
}

// ClampDim forces a single dimension value into [DimMin, DimMax].
func ClampDim(x float64) float64 {
	if x < DimMin {
		return DimMin
	}
	if x > DimMax {
		return DimMax
	}
	return x
}

// Round3 rounds to three decimal places, the storage precision for
// preference dimensions and flavor-note scores.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
