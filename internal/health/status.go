package health

import "fmt"

// Score thresholds for the overall status.
const (
	GoodScore = 80
	FairScore = 50
)

// CoverageTarget is the coverage below which tests are flagged.
const CoverageTarget = 70.0

// DebtWarningThreshold is the tech-debt total above which debt is flagged.
const DebtWarningThreshold = 50

// ScoreStatus classifies the composite score.
func (s *Snapshot) ScoreStatus() Status {
	switch {
	case s.Score >= GoodScore:
		return StatusOK
	case s.Score >= FairScore:
		return StatusWarning
	default:
		return StatusError
	}
}

// LintStatus classifies lint totals.
func (s *Snapshot) LintStatus() Status {
	switch {
	case s.Lint.Errors > 0:
		return StatusError
	case s.Lint.Warnings > 0:
		return StatusWarning
	default:
		return StatusOK
	}
}

// TypesStatus classifies type-checker totals.
func (s *Snapshot) TypesStatus() Status {
	if s.Types.Errors > 0 {
		return StatusError
	}
	return StatusOK
}

// SecurityStatus is error with any high finding, warning with medium
// findings only, else ok.
func (s *Snapshot) SecurityStatus() Status {
	switch {
	case s.Security.High > 0:
		return StatusError
	case s.Security.Medium > 0:
		return StatusWarning
	default:
		return StatusOK
	}
}

// TestsStatus classifies test results. No tests at all is unknown.
func (s *Snapshot) TestsStatus() Status {
	switch {
	case s.Tests.Failed > 0:
		return StatusError
	case s.Tests.Total == 0:
		return StatusUnknown
	case s.Tests.CoveragePercent < CoverageTarget:
		return StatusWarning
	default:
		return StatusOK
	}
}

// TechDebtStatus classifies tech-debt totals.
func (s *Snapshot) TechDebtStatus() Status {
	switch {
	case s.TechDebt.Total > DebtWarningThreshold:
		return StatusWarning
	case s.TechDebt.Total > 0:
		return StatusInfo
	default:
		return StatusOK
	}
}

// PatternsStatus is info once any pattern has been learned.
func (s *Snapshot) PatternsStatus() Status {
	if s.Patterns.Count > 0 {
		return StatusInfo
	}
	return StatusUnknown
}

// HealthLabel is the human word for the score status.
func (s *Snapshot) HealthLabel() string {
	switch s.ScoreStatus() {
	case StatusOK:
		return "healthy"
	case StatusWarning:
		return "fair"
	default:
		return "needs attention"
	}
}

// StatusLine is the persistent indicator text: pattern count and savings,
// or a setup prompt when nothing has been learned yet.
func (s *Snapshot) StatusLine() string {
	if s == nil || s.Patterns.Count == 0 {
		return "setup needed"
	}
	return fmt.Sprintf("%d patterns | $%.2f saved", s.Patterns.Count, s.Patterns.SavingsTotal)
}

// Summary is the one-line summary shown when the indicator is clicked.
func (s *Snapshot) Summary() string {
	if s == nil {
		return "No health data yet. Run a scan to get started."
	}
	return fmt.Sprintf("Health %d/100 (%s) | $%.2f saved", s.Score, s.HealthLabel(), s.Patterns.SavingsTotal)
}
