package health

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blackwell-systems/healthsync/internal/config"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want int
	}{
		{
			name: "lint only with full coverage",
			snap: Snapshot{Lint: Lint{Errors: 5, Warnings: 10}, Tests: Tests{CoveragePercent: 100}},
			want: 85,
		},
		{
			name: "security only with full coverage",
			snap: Snapshot{Security: Security{High: 2, Medium: 1}, Tests: Tests{CoveragePercent: 100}},
			want: 75,
		},
		{
			name: "no data at all",
			snap: Snapshot{},
			want: 30,
		},
		{
			name: "coverage at target",
			snap: Snapshot{Tests: Tests{CoveragePercent: 70}},
			want: 100,
		},
		{
			name: "coverage partially below target",
			snap: Snapshot{Tests: Tests{CoveragePercent: 60}},
			want: 90,
		},
		{
			name: "type errors and failed tests",
			snap: Snapshot{Types: Types{Errors: 2}, Tests: Tests{Failed: 1, CoveragePercent: 90}},
			want: 89,
		},
		{
			name: "low security findings are free",
			snap: Snapshot{Security: Security{Low: 30}, Tests: Tests{CoveragePercent: 100}},
			want: 100,
		},
		{
			name: "half-point warnings round",
			snap: Snapshot{Lint: Lint{Warnings: 1}, Tests: Tests{CoveragePercent: 100}},
			want: 100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeScore(&tc.snap, config.DefaultWeights))
		})
	}
}

func TestComputeScore_ClampsPathologicalInputs(t *testing.T) {
	huge := Snapshot{
		Lint:     Lint{Errors: math.MaxInt32, Warnings: math.MaxInt32},
		Types:    Types{Errors: math.MaxInt32},
		Security: Security{High: math.MaxInt32, Medium: math.MaxInt32},
		Tests:    Tests{Failed: math.MaxInt32},
	}
	assert.Equal(t, 0, ComputeScore(&huge, config.DefaultWeights))

	// Negative weights cannot push the score past 100.
	generous := config.Weights{LintError: -100}
	assert.Equal(t, 100, ComputeScore(&Snapshot{Lint: Lint{Errors: 3}}, generous))
}

func TestComputeScore_AlwaysInRange(t *testing.T) {
	for errs := 0; errs < 60; errs += 7 {
		for cov := -20.0; cov <= 140; cov += 15 {
			s := Snapshot{
				Lint:     Lint{Errors: errs, Warnings: errs * 3},
				Security: Security{High: errs / 5, Medium: errs / 3},
				Tests:    Tests{Failed: errs / 4, CoveragePercent: cov},
			}
			got := ComputeScore(&s, config.DefaultWeights)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		}
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(math.NaN()))
	assert.Equal(t, 0, clampScore(-3))
	assert.Equal(t, 100, clampScore(250))
	assert.Equal(t, 43, clampScore(42.6))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, clampPercent(-1))
	assert.Equal(t, 100.0, clampPercent(101))
	assert.Equal(t, 55.5, clampPercent(55.5))
	assert.Equal(t, 0.0, clampPercent(math.NaN()))
}
