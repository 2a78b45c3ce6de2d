package health

import (
	"strings"
	"time"

	"github.com/blackwell-systems/healthsync/internal/artifact"
	"github.com/blackwell-systems/healthsync/internal/config"
)

// Aggregate builds a new snapshot from one read of the artifacts.
//
// Per category: a valid artifact supplies fresh values, an absent one
// yields zero, and an invalid one keeps the value from prev (zero when
// there is no previous snapshot). A parse failure therefore never turns a
// known-bad workspace into a clean one.
func Aggregate(prev *Snapshot, set artifact.Set, w config.Weights) *Snapshot {
	if prev == nil {
		prev = &Snapshot{}
	}
	s := &Snapshot{}

	h := set.Health
	switch h.State {
	case artifact.StateValid:
		applyHealth(s, h.Value)
	case artifact.StateInvalid:
		s.Lint = prev.Lint
		s.Types = prev.Types
		s.Security = prev.Security
		s.Tests = prev.Tests
		s.TechDebt = prev.TechDebt
	}

	// Security totals fall back to counting needs_review findings when the
	// health artifact does not report them.
	// A malformed findings file keeps the previous totals.
	if h.State != artifact.StateInvalid && h.Value.Security == nil {
		switch set.Findings.State {
		case artifact.StateValid:
			s.Security = countFindings(set.Findings.Value.NeedsReview)
		case artifact.StateInvalid:
			s.Security = prev.Security
		}
	}

	// tech_debt.json is more detailed than the health summary and wins
	// when it has at least one snapshot.
	switch set.TechDebt.State {
	case artifact.StateValid:
		if latest, ok := set.TechDebt.Value.Latest(); ok {
			s.TechDebt = TechDebt{
				Total:  nonNeg(latest.TotalItems),
				Todos:  nonNeg(latest.ByType.Todo),
				Fixmes: nonNeg(latest.ByType.Fixme),
				Hacks:  nonNeg(latest.ByType.Hack),
			}
		}
	case artifact.StateInvalid:
		if h.State != artifact.StateValid || h.Value.TechDebt == nil {
			s.TechDebt = prev.TechDebt
		}
	}

	switch set.Patterns.State {
	case artifact.StateValid:
		s.Patterns = Patterns{
			Count:        len(set.Patterns.Value.Patterns),
			SavingsTotal: max(set.Patterns.Value.SavingsTotal, 0),
		}
	case artifact.StateInvalid:
		s.Patterns = prev.Patterns
	}

	switch {
	case h.State == artifact.StateValid && h.Value.Score != nil:
		s.Score = clampScore(*h.Value.Score)
		s.ExplicitScore = true
	case h.State == artifact.StateInvalid && prev.ExplicitScore:
		s.Score = prev.Score
		s.ExplicitScore = true
	default:
		s.Score = ComputeScore(s, w)
	}

	s.LastUpdated = lastUpdated(set)

	return s
}

// applyHealth copies the categories present in health.json onto s.
func applyHealth(s *Snapshot, h artifact.Health) {
	if h.Lint != nil {
		s.Lint = Lint{Errors: nonNeg(h.Lint.Errors), Warnings: nonNeg(h.Lint.Warnings)}
	}
	if h.Types != nil {
		s.Types = Types{Errors: nonNeg(h.Types.Errors)}
	}
	if h.Security != nil {
		s.Security = Security{
			High:   nonNeg(h.Security.High),
			Medium: nonNeg(h.Security.Medium),
			Low:    nonNeg(h.Security.Low),
		}
	}
	if h.Tests != nil {
		s.Tests = Tests{
			Passed:          nonNeg(h.Tests.Passed),
			Failed:          nonNeg(h.Tests.Failed),
			Total:           nonNeg(h.Tests.Total),
			CoveragePercent: clampPercent(h.Tests.CoverageValue()),
		}
	}
	if h.TechDebt != nil {
		s.TechDebt = TechDebt{
			Total:  nonNeg(h.TechDebt.Total),
			Todos:  nonNeg(h.TechDebt.Todos),
			Fixmes: nonNeg(h.TechDebt.Fixmes),
			Hacks:  nonNeg(h.TechDebt.Hacks),
		}
	}
}

// countFindings tallies findings by normalised severity. Critical counts
// as high.
func countFindings(findings []artifact.SecurityFinding) Security {
	var sec Security
	for _, f := range findings {
		switch strings.ToLower(strings.TrimSpace(f.Severity)) {
		case "critical", "high", "error":
			sec.High++
		case "medium", "warning":
			sec.Medium++
		case "low", "info":
			sec.Low++
		}
	}
	return sec
}

// lastUpdated prefers the pipeline's own timestamp, then the newest
// artifact modification time. With nothing on disk the workspace has never
// been scanned.
func lastUpdated(set artifact.Set) *time.Time {
	if set.Health.Valid() && set.Health.Value.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, set.Health.Value.Timestamp); err == nil {
			return &t
		}
	}
	if newest := set.Newest(); !newest.IsZero() {
		return &newest
	}
	return nil
}

func nonNeg(n int) int {
	return max(n, 0)
}
