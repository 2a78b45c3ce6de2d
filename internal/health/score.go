package health

import (
	"math"

	"github.com/blackwell-systems/healthsync/internal/config"
)

// ComputeScore calculates a 0-100 health score from category totals. It is
// used only when the health artifact carries no explicit score.
//
// Scoring breakdown (default weights):
//   - lint error:        -2 each
//   - lint warning:      -0.5 each
//   - type error:        -3 each
//   - security high:     -10 each
//   - security medium:   -5 each
//   - failed test:       -5 each
//   - coverage below 70: -1 per missing point
//
// The result is rounded to the nearest integer and clamped to [0, 100].
func ComputeScore(s *Snapshot, w config.Weights) int {
	score := 100.0

	score -= float64(s.Lint.Errors) * w.LintError
	score -= float64(s.Lint.Warnings) * w.LintWarning
	score -= float64(s.Types.Errors) * w.TypeError
	score -= float64(s.Security.High) * w.SecurityHigh
	score -= float64(s.Security.Medium) * w.SecurityMedium
	score -= float64(s.Tests.Failed) * w.TestFailed

	// Coverage is penalised on its own so an unmeasured codebase can never
	// read as fully healthy.
	score -= math.Max(0, w.CoverageTarget-s.Tests.CoveragePercent) * w.CoveragePenalty

	return clampScore(score)
}

// clampScore rounds and clamps a raw score into [0, 100]. NaN maps to 0.
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

// clampPercent bounds a percentage to [0, 100].
func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
