// Package tree builds the drill-down summary view of a health snapshot.
package tree

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/healthsync/internal/health"
)

// Action is a follow-up bound to a node.
type Action string

// Primary actions.
const (
	ActionRefresh      Action = "refresh"
	ActionViewPatterns Action = "view-patterns"
	ActionAutoFix      Action = "auto-fix"
	ActionTypeCheck    Action = "type-check"
	ActionSecurityScan Action = "security-scan"
	ActionRunTests     Action = "run-tests"
	ActionDebtScan     Action = "debt-scan"
	ActionFullScan     Action = "full-scan"
)

// Secondary actions offered when a node with children is selected.
const (
	ActionViewReport    Action = "view-report"
	ActionOpenTerminal  Action = "open-terminal"
	ActionSearchMarkers Action = "search-markers"
)

// Top-level node IDs, in display order.
const (
	NodeScore    = "score"
	NodePatterns = "patterns"
	NodeLint     = "lint"
	NodeTypes    = "types"
	NodeSecurity = "security"
	NodeTests    = "tests"
	NodeTechDebt = "tech-debt"
	NodeLastScan = "last-scan"
)

// Node is one entry in the summary tree.
type Node struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Status      health.Status `json:"status"`
	Action      Action        `json:"action"`
	Children    []Node        `json:"children,omitempty"`
}

// Build derives the fixed, ordered node list from snap. A nil snapshot
// yields the same nodes with zero values and an unknown score.
func Build(snap *health.Snapshot) []Node {
	s := snap
	if s == nil {
		s = &health.Snapshot{}
	}

	return []Node{
		scoreNode(snap),
		{
			ID:          NodePatterns,
			Label:       "Patterns Learned",
			Description: patternsDescription(s.Patterns),
			Status:      s.PatternsStatus(),
			Action:      ActionViewPatterns,
		},
		{
			ID:          NodeLint,
			Label:       "Lint",
			Description: fmt.Sprintf("%d errors, %d warnings", s.Lint.Errors, s.Lint.Warnings),
			Status:      s.LintStatus(),
			Action:      ActionAutoFix,
			Children: []Node{
				countNode(NodeLint, "errors", "Errors", s.Lint.Errors, health.StatusError),
				countNode(NodeLint, "warnings", "Warnings", s.Lint.Warnings, health.StatusWarning),
			},
		},
		{
			ID:          NodeTypes,
			Label:       "Types",
			Description: fmt.Sprintf("%d errors", s.Types.Errors),
			Status:      s.TypesStatus(),
			Action:      ActionTypeCheck,
		},
		{
			ID:          NodeSecurity,
			Label:       "Security",
			Description: fmt.Sprintf("%d high, %d medium, %d low", s.Security.High, s.Security.Medium, s.Security.Low),
			Status:      s.SecurityStatus(),
			Action:      ActionSecurityScan,
			Children: []Node{
				countNode(NodeSecurity, "high", "High", s.Security.High, health.StatusError),
				countNode(NodeSecurity, "medium", "Medium", s.Security.Medium, health.StatusWarning),
				countNode(NodeSecurity, "low", "Low", s.Security.Low, health.StatusInfo),
			},
		},
		testsNode(s),
		{
			ID:          NodeTechDebt,
			Label:       "Tech Debt",
			Description: fmt.Sprintf("%d markers", s.TechDebt.Total),
			Status:      s.TechDebtStatus(),
			Action:      ActionDebtScan,
			Children: []Node{
				countNode(NodeTechDebt, "todo", "TODO", s.TechDebt.Todos, health.StatusInfo),
				countNode(NodeTechDebt, "fixme", "FIXME", s.TechDebt.Fixmes, health.StatusInfo),
				countNode(NodeTechDebt, "hack", "HACK", s.TechDebt.Hacks, health.StatusWarning),
				leaf(NodeTechDebt, "total", "Total", fmt.Sprintf("%d", s.TechDebt.Total), s.TechDebtStatus()),
			},
		},
		lastScanNode(s.LastUpdated),
	}
}

func scoreNode(snap *health.Snapshot) Node {
	n := Node{ID: NodeScore, Label: "Health Score", Action: ActionRefresh}
	if snap == nil {
		n.Description = "no data"
		n.Status = health.StatusUnknown
		return n
	}
	n.Description = fmt.Sprintf("%d/100 (%s)", snap.Score, snap.HealthLabel())
	n.Status = snap.ScoreStatus()
	return n
}

func testsNode(s *health.Snapshot) Node {
	t := s.Tests
	desc := "no tests run"
	if t.Total > 0 {
		desc = fmt.Sprintf("%d/%d passed, %.1f%% coverage", t.Passed, t.Total, t.CoveragePercent)
	}

	coverage := health.StatusOK
	if t.CoveragePercent < health.CoverageTarget {
		coverage = health.StatusWarning
	}

	return Node{
		ID:          NodeTests,
		Label:       "Tests",
		Description: desc,
		Status:      s.TestsStatus(),
		Action:      ActionRunTests,
		Children: []Node{
			leaf(NodeTests, "passed", "Passed", fmt.Sprintf("%d", t.Passed), health.StatusOK),
			countNode(NodeTests, "failed", "Failed", t.Failed, health.StatusError),
			leaf(NodeTests, "total", "Total", fmt.Sprintf("%d", t.Total), health.StatusInfo),
			leaf(NodeTests, "coverage", "Coverage", fmt.Sprintf("%.1f%%", t.CoveragePercent), coverage),
		},
	}
}

func lastScanNode(at *time.Time) Node {
	n := Node{ID: NodeLastScan, Label: "Last Scan", Action: ActionFullScan}
	if at == nil {
		n.Description = "never"
		n.Status = health.StatusUnknown
		return n
	}
	n.Description = at.Local().Format("2006-01-02 15:04")
	n.Status = health.StatusInfo
	return n
}

func patternsDescription(p health.Patterns) string {
	if p.Count == 0 {
		return "none yet"
	}
	return fmt.Sprintf("%d learned, $%.2f saved", p.Count, p.SavingsTotal)
}

// countNode is a child whose status is whenNonZero for a positive count
// and ok otherwise.
func countNode(parent, id, label string, n int, whenNonZero health.Status) Node {
	status := health.StatusOK
	if n > 0 {
		status = whenNonZero
	}
	return leaf(parent, id, label, fmt.Sprintf("%d", n), status)
}

func leaf(parent, id, label, desc string, status health.Status) Node {
	return Node{
		ID:          parent + "." + id,
		Label:       label,
		Description: desc,
		Status:      status,
		Action:      ActionViewReport,
	}
}

// Find returns the node with id anywhere in nodes.
func Find(nodes []Node, id string) (Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
		if child, ok := Find(n.Children, id); ok {
			return child, true
		}
	}
	return Node{}, false
}
