// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package weather

import "context"

// Static is a Provider that always returns the same report. It serves as
// the offline default and as a test double; a nil report means "no weather".
type Static struct {
	report *Report
}

// NewStatic creates a static provider. Pass nil for a provider that
// reports no weather at all.
func NewStatic(report *Report) *Static {
	return &Static{report: report}
}

// Current implements Provider.
func (s *Static) Current(_ context.Context, _ string) (*Report, error) {
	return s.report, nil
}
