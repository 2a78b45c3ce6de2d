// Package artifact reads the JSON files written by the external analysis
// pipeline. Every artifact is decoded into a strict schema at the parse
// boundary and tagged as absent, valid or invalid so consumers never
// inspect raw JSON.
package artifact

import (
	"encoding/json"
	"time"
)

// Artifact file names inside the artifact directory.
const (
	HealthFile   = "health.json"
	IssuesFile   = "issues.json"
	FindingsFile = "security_findings.json"
	TechDebtFile = "tech_debt.json"
	PatternsFile = "patterns.json"
)

// Names lists every artifact the reader knows about.
var Names = []string{HealthFile, IssuesFile, FindingsFile, TechDebtFile, PatternsFile}

// State tags the outcome of reading one artifact.
type State int

const (
	// StateAbsent means the file does not exist.
	StateAbsent State = iota
	// StateValid means the file exists and decoded cleanly.
	StateValid
	// StateInvalid means the file exists but could not be read or decoded.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of reading an artifact of type T.
// Value is only meaningful when State is StateValid.
type Result[T any] struct {
	State   State
	Value   T
	Err     error
	Path    string
	ModTime time.Time
}

// Valid reports whether the artifact was present and decoded.
func (r Result[T]) Valid() bool { return r.State == StateValid }

// Set holds one read of every artifact.
type Set struct {
	Health   Result[Health]
	Issues   Result[Issues]
	Findings Result[Findings]
	TechDebt Result[TechDebt]
	Patterns Result[Patterns]
}

// Status returns the read state and error of the named artifact.
func (s Set) Status(name string) (State, error) {
	switch name {
	case HealthFile:
		return s.Health.State, s.Health.Err
	case IssuesFile:
		return s.Issues.State, s.Issues.Err
	case FindingsFile:
		return s.Findings.State, s.Findings.Err
	case TechDebtFile:
		return s.TechDebt.State, s.TechDebt.Err
	case PatternsFile:
		return s.Patterns.State, s.Patterns.Err
	default:
		return StateAbsent, nil
	}
}

// Newest returns the most recent modification time among present
// artifacts, or the zero time when none are present.
func (s Set) Newest() time.Time {
	var newest time.Time
	for _, t := range []time.Time{
		s.Health.ModTime, s.Issues.ModTime, s.Findings.ModTime,
		s.TechDebt.ModTime, s.Patterns.ModTime,
	} {
		if t.After(newest) {
			newest = t
		}
	}
	return newest
}

// Health is the schema of health.json. Every field is optional; nil means
// the pipeline did not report that category.
type Health struct {
	Score     *float64        `json:"score,omitempty"`
	Lint      *LintCounts     `json:"lint,omitempty"`
	Types     *TypeCounts     `json:"types,omitempty"`
	Security  *SecurityCounts `json:"security,omitempty"`
	Tests     *TestCounts     `json:"tests,omitempty"`
	TechDebt  *DebtCounts     `json:"tech_debt,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// LintCounts are lint totals.
type LintCounts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// TypeCounts are type-checker totals.
type TypeCounts struct {
	Errors int `json:"errors"`
}

// SecurityCounts are security finding totals by severity.
type SecurityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// TestCounts are test run totals.
type TestCounts struct {
	Passed          int      `json:"passed"`
	Failed          int      `json:"failed"`
	Total           int      `json:"total"`
	CoveragePercent *float64 `json:"coverage_percent,omitempty"`
	Coverage        *float64 `json:"coverage,omitempty"`
}

// CoverageValue returns coverage_percent, falling back to coverage.
func (t TestCounts) CoverageValue() float64 {
	switch {
	case t.CoveragePercent != nil:
		return *t.CoveragePercent
	case t.Coverage != nil:
		return *t.Coverage
	default:
		return 0
	}
}

// DebtCounts are tech-debt marker totals as reported in health.json.
type DebtCounts struct {
	Total  int `json:"total"`
	Todos  int `json:"todos"`
	Fixmes int `json:"fixmes"`
	Hacks  int `json:"hacks"`
}

// Issues is the schema of issues.json.
type Issues struct {
	Issues []Issue `json:"issues"`
}

// Issue is a single general-quality finding.
type Issue struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
}

// UnmarshalJSON accepts either "rule" or "type" as the rule code.
func (i *Issue) UnmarshalJSON(data []byte) error {
	var raw struct {
		File     string `json:"file"`
		Line     int    `json:"line"`
		Message  string `json:"message"`
		Severity string `json:"severity"`
		Rule     string `json:"rule"`
		Type     string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Issue{
		File:     raw.File,
		Line:     raw.Line,
		Message:  raw.Message,
		Severity: raw.Severity,
		Rule:     raw.Rule,
	}
	if i.Rule == "" {
		i.Rule = raw.Type
	}
	return nil
}

// Disposition classifies a security finding after triage.
type Disposition string

const (
	NeedsReview   Disposition = "needs_review"
	FalsePositive Disposition = "false_positive"
	AcceptedRisk  Disposition = "accepted_risk"
)

// Findings is the schema of security_findings.json.
type Findings struct {
	NeedsReview   []SecurityFinding `json:"needs_review"`
	FalsePositive []SecurityFinding `json:"false_positive"`
	AcceptedRisk  []SecurityFinding `json:"accepted_risk"`
}

// All returns every finding with its Disposition set from the list it came
// from.
func (f Findings) All() []SecurityFinding {
	all := make([]SecurityFinding, 0, len(f.NeedsReview)+len(f.FalsePositive)+len(f.AcceptedRisk))
	for _, group := range []struct {
		d    Disposition
		list []SecurityFinding
	}{
		{NeedsReview, f.NeedsReview},
		{FalsePositive, f.FalsePositive},
		{AcceptedRisk, f.AcceptedRisk},
	} {
		for _, sf := range group.list {
			sf.Disposition = group.d
			all = append(all, sf)
		}
	}
	return all
}

// SecurityFinding is a single security finding.
type SecurityFinding struct {
	File           string      `json:"file"`
	Line           int         `json:"line"`
	Severity       string      `json:"severity"`
	OWASPCategory  string      `json:"owasp_category"`
	FindingType    string      `json:"finding_type"`
	Analysis       string      `json:"analysis"`
	MatchedExcerpt string      `json:"matched_excerpt,omitempty"`
	Disposition    Disposition `json:"disposition,omitempty"`
}

// UnmarshalJSON accepts "type" for finding_type and "matched_text" for the
// excerpt, which older pipeline versions emit.
func (sf *SecurityFinding) UnmarshalJSON(data []byte) error {
	var raw struct {
		File           string      `json:"file"`
		Line           int         `json:"line"`
		Severity       string      `json:"severity"`
		OWASPCategory  string      `json:"owasp_category"`
		FindingType    string      `json:"finding_type"`
		Type           string      `json:"type"`
		Analysis       string      `json:"analysis"`
		MatchedExcerpt string      `json:"matched_excerpt"`
		MatchedText    string      `json:"matched_text"`
		Disposition    Disposition `json:"disposition"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*sf = SecurityFinding{
		File:           raw.File,
		Line:           raw.Line,
		Severity:       raw.Severity,
		OWASPCategory:  raw.OWASPCategory,
		FindingType:    raw.FindingType,
		Analysis:       raw.Analysis,
		MatchedExcerpt: raw.MatchedExcerpt,
		Disposition:    raw.Disposition,
	}
	if sf.FindingType == "" {
		sf.FindingType = raw.Type
	}
	if sf.MatchedExcerpt == "" {
		sf.MatchedExcerpt = raw.MatchedText
	}
	return nil
}

// TechDebt is the schema of tech_debt.json.
type TechDebt struct {
	Snapshots []DebtSnapshot `json:"snapshots"`
}

// Latest returns the most recent snapshot, which is the last entry.
func (t TechDebt) Latest() (DebtSnapshot, bool) {
	if len(t.Snapshots) == 0 {
		return DebtSnapshot{}, false
	}
	return t.Snapshots[len(t.Snapshots)-1], true
}

// DebtSnapshot is one tech-debt scan.
type DebtSnapshot struct {
	TotalItems int        `json:"total_items"`
	ByType     DebtByType `json:"by_type"`
	Timestamp  string     `json:"timestamp,omitempty"`
}

// DebtByType breaks tech debt down by marker.
type DebtByType struct {
	Todo  int `json:"todo"`
	Fixme int `json:"fixme"`
	Hack  int `json:"hack"`
}

// Patterns is the schema of patterns.json, the learned-pattern ledger
// behind the status line.
type Patterns struct {
	Patterns     []Pattern `json:"patterns"`
	SavingsTotal float64   `json:"savings_total"`
}

// Pattern is one learned fix pattern.
type Pattern struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Occurrences int     `json:"occurrences"`
	Savings     float64 `json:"savings,omitempty"`
}
