// Package health aggregates analysis artifacts into immutable health
// snapshots and memoizes the latest one.
package health

import "time"

// Snapshot is the aggregate health of a workspace at a point in time.
// Snapshots are never mutated after construction; a recomputation
// replaces the whole value.
type Snapshot struct {
	// Score is the composite health score, always within [0, 100].
	Score int `json:"score"`

	// ExplicitScore is true when Score came from the health artifact rather
	// than from ComputeScore.
	ExplicitScore bool `json:"explicit_score"`

	Lint     Lint     `json:"lint"`
	Types    Types    `json:"types"`
	Security Security `json:"security"`
	Tests    Tests    `json:"tests"`
	TechDebt TechDebt `json:"tech_debt"`
	Patterns Patterns `json:"patterns"`

	// LastUpdated is nil when the workspace has never been scanned.
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Lint holds lint totals.
type Lint struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Types holds type-checker totals.
type Types struct {
	Errors int `json:"errors"`
}

// Security holds security finding totals by severity.
type Security struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Tests holds test run totals.
type Tests struct {
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	Total           int     `json:"total"`
	CoveragePercent float64 `json:"coverage_percent"`
}

// TechDebt holds tech-debt marker totals.
type TechDebt struct {
	Total  int `json:"total"`
	Todos  int `json:"todos"`
	Fixmes int `json:"fixmes"`
	Hacks  int `json:"hacks"`
}

// Patterns summarises the learned-pattern ledger.
type Patterns struct {
	Count        int     `json:"count"`
	SavingsTotal float64 `json:"savings_total"`
}

// Status is the coarse health tag shown next to a category.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusInfo    Status = "info"
	StatusUnknown Status = "unknown"
)
