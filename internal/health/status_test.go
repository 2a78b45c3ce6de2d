package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityStatus(t *testing.T) {
	tests := []struct {
		sec  Security
		want Status
	}{
		{Security{}, StatusOK},
		{Security{Low: 9}, StatusOK},
		{Security{Medium: 1}, StatusWarning},
		{Security{High: 1, Medium: 3}, StatusError},
	}
	for _, tc := range tests {
		s := &Snapshot{Security: tc.sec}
		assert.Equal(t, tc.want, s.SecurityStatus(), "%+v", tc.sec)
	}
}

func TestScoreStatus(t *testing.T) {
	assert.Equal(t, StatusOK, (&Snapshot{Score: 80}).ScoreStatus())
	assert.Equal(t, StatusWarning, (&Snapshot{Score: 79}).ScoreStatus())
	assert.Equal(t, StatusWarning, (&Snapshot{Score: 50}).ScoreStatus())
	assert.Equal(t, StatusError, (&Snapshot{Score: 49}).ScoreStatus())
}

func TestTestsStatus(t *testing.T) {
	assert.Equal(t, StatusUnknown, (&Snapshot{}).TestsStatus())
	assert.Equal(t, StatusError, (&Snapshot{Tests: Tests{Failed: 1, Total: 3}}).TestsStatus())
	assert.Equal(t, StatusWarning, (&Snapshot{Tests: Tests{Total: 3, CoveragePercent: 40}}).TestsStatus())
	assert.Equal(t, StatusOK, (&Snapshot{Tests: Tests{Total: 3, CoveragePercent: 90}}).TestsStatus())
}

func TestLintAndTypesStatus(t *testing.T) {
	assert.Equal(t, StatusOK, (&Snapshot{}).LintStatus())
	assert.Equal(t, StatusWarning, (&Snapshot{Lint: Lint{Warnings: 2}}).LintStatus())
	assert.Equal(t, StatusError, (&Snapshot{Lint: Lint{Errors: 1}}).LintStatus())
	assert.Equal(t, StatusError, (&Snapshot{Types: Types{Errors: 1}}).TypesStatus())
	assert.Equal(t, StatusOK, (&Snapshot{}).TypesStatus())
}

func TestTechDebtStatus(t *testing.T) {
	assert.Equal(t, StatusOK, (&Snapshot{}).TechDebtStatus())
	assert.Equal(t, StatusInfo, (&Snapshot{TechDebt: TechDebt{Total: 3}}).TechDebtStatus())
	assert.Equal(t, StatusWarning, (&Snapshot{TechDebt: TechDebt{Total: 51}}).TechDebtStatus())
}

func TestStatusLine(t *testing.T) {
	var nilSnap *Snapshot
	assert.Equal(t, "setup needed", nilSnap.StatusLine())
	assert.Equal(t, "setup needed", (&Snapshot{}).StatusLine())

	s := &Snapshot{Patterns: Patterns{Count: 4, SavingsTotal: 12.5}}
	assert.Equal(t, "4 patterns | $12.50 saved", s.StatusLine())
	assert.Equal(t, StatusInfo, s.PatternsStatus())
}

func TestSummary(t *testing.T) {
	var nilSnap *Snapshot
	assert.Contains(t, nilSnap.Summary(), "No health data")

	s := &Snapshot{Score: 85, Patterns: Patterns{SavingsTotal: 3}}
	assert.Equal(t, "Health 85/100 (healthy) | $3.00 saved", s.Summary())

	s = &Snapshot{Score: 20}
	assert.Contains(t, s.Summary(), "needs attention")
}
