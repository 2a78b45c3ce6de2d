// Package store provides SQLite persistence for health history,
// suppressions and scan runs.
package store

import "time"

// SnapshotRow is one recorded health snapshot.
type SnapshotRow struct {
	ID            int64     `json:"id"`
	Workspace     string    `json:"workspace"`
	TakenAt       time.Time `json:"taken_at"`
	Trigger       string    `json:"trigger"`
	Score         int       `json:"score"`
	ExplicitScore bool      `json:"explicit_score"`
	LintErrors    int       `json:"lint_errors"`
	LintWarnings  int       `json:"lint_warnings"`
	TypeErrors    int       `json:"type_errors"`
	SecHigh       int       `json:"sec_high"`
	SecMedium     int       `json:"sec_medium"`
	SecLow        int       `json:"sec_low"`
	TestsPassed   int       `json:"tests_passed"`
	TestsFailed   int       `json:"tests_failed"`
	TestsTotal    int       `json:"tests_total"`
	Coverage      float64   `json:"coverage"`
	DebtTotal     int       `json:"debt_total"`
	Patterns      int       `json:"patterns"`
	SavingsTotal  float64   `json:"savings_total"`
}

// Suppression is a persisted "ignore issue" decision.
type Suppression struct {
	ID        int64     `json:"id"`
	Workspace string    `json:"workspace"`
	File      string    `json:"file"`
	Line      int       `json:"line"`
	Rule      string    `json:"rule,omitempty"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Scan run statuses.
const (
	ScanStatusOK      = "ok"
	ScanStatusFailed  = "failed"
	ScanStatusTimeout = "timeout"
)

// ScanRun is one recorded pipeline invocation.
type ScanRun struct {
	ID        string        `json:"id"`
	Workspace string        `json:"workspace"`
	Kind      string        `json:"kind"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	ExitCode  int           `json:"exit_code"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
}
