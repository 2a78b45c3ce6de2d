package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/healthsync/internal/diagnostics"
	"github.com/blackwell-systems/healthsync/internal/health"
	"github.com/blackwell-systems/healthsync/internal/scan"
	"github.com/blackwell-systems/healthsync/internal/tree"
)

// HealthResult is the current snapshot plus its derived labels.
type HealthResult struct {
	Snapshot *health.Snapshot `json:"snapshot"`
	Status   health.Status    `json:"status"`
	Label    string           `json:"label"`
}

// TreeResult holds the summary tree nodes in display order.
type TreeResult struct {
	Nodes []tree.Node `json:"nodes"`
}

// DiagnosticsResult holds flattened annotations from one or both channels.
type DiagnosticsResult struct {
	General  []diagnostics.Annotation `json:"general,omitempty"`
	Security []diagnostics.Annotation `json:"security,omitempty"`
	Total    int                      `json:"total"`
}

// ScanResult summarises one pipeline run.
type ScanResult struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	OK         bool   `json:"ok"`
	TimedOut   bool   `json:"timed_out"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// IgnoreResult echoes a stored suppression.
type IgnoreResult struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Rule   string `json:"rule,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// StatusResult is the persistent indicator text and its expanded summary.
type StatusResult struct {
	StatusLine string `json:"status_line"`
	Summary    string `json:"summary"`
}

// SelectResult is what choosing a tree node does.
type SelectResult struct {
	Node     string        `json:"node"`
	Action   tree.Action   `json:"action,omitempty"`
	Menu     []tree.Action `json:"menu,omitempty"`
	ScanKind string        `json:"scan_kind,omitempty"`
	Scan     *ScanResult   `json:"scan,omitempty"`
}

var (
	noArgsSchema      = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	diagnosticsSchema = json.RawMessage(`{"type":"object","properties":{"channel":{"type":"string","enum":["general","security","all"],"description":"Which channel to return (default all)"},"file":{"type":"string","description":"Only annotations whose path ends with this value"}},"additionalProperties":false}`)
	runScanSchema     = json.RawMessage(`{"type":"object","properties":{"kind":{"type":"string","enum":["general","security"],"description":"Scan kind (default general)"}},"additionalProperties":false}`)
	ignoreIssueSchema = json.RawMessage(`{"type":"object","properties":{"file":{"type":"string"},"line":{"type":"integer","minimum":1},"rule":{"type":"string","description":"Rule to ignore; empty ignores every rule on the line"},"reason":{"type":"string"}},"required":["file","line"],"additionalProperties":false}`)
	selectNodeSchema  = json.RawMessage(`{"type":"object","properties":{"id":{"type":"string","description":"Node ID such as security or lint.errors"}},"required":["id"],"additionalProperties":false}`)
)

// addTools registers every MCP tool handler on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "get_health",
		Description: "Current workspace health snapshot: score, lint, types, security, tests, tech debt and patterns.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetHealth,
	})
	s.registerTool(toolDef{
		Name:        "get_tree",
		Description: "Summary tree nodes with status tags and bound actions.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetTree,
	})
	s.registerTool(toolDef{
		Name:        "get_diagnostics",
		Description: "Line annotations from the general and security channels.",
		InputSchema: diagnosticsSchema,
		Handler:     s.handleGetDiagnostics,
	})
	s.registerTool(toolDef{
		Name:        "refresh",
		Description: "Re-read all artifacts and return the recomputed snapshot.",
		InputSchema: noArgsSchema,
		Handler:     s.handleRefresh,
	})
	s.registerTool(toolDef{
		Name:        "run_scan",
		Description: "Run the analysis pipeline. Blocks until it finishes or times out.",
		InputSchema: runScanSchema,
		Handler:     s.handleRunScan,
	})
	s.registerTool(toolDef{
		Name:        "ignore_issue",
		Description: "Suppress an issue at a file and line so it no longer produces an annotation.",
		InputSchema: ignoreIssueSchema,
		Handler:     s.handleIgnoreIssue,
	})
	s.registerTool(toolDef{
		Name:        "get_status",
		Description: "Status line text and one-line health summary.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetStatus,
	})
	s.registerTool(toolDef{
		Name:        "select_node",
		Description: "Select a summary tree node: runs its scan action, or returns its action or menu.",
		InputSchema: selectNodeSchema,
		Handler:     s.handleSelectNode,
	})
}

// decodeArgs unmarshals optional tool arguments into v.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) handleGetHealth(ctx context.Context, _ json.RawMessage) (any, error) {
	snap, err := s.eng.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return HealthResult{Snapshot: snap, Status: snap.ScoreStatus(), Label: snap.HealthLabel()}, nil
}

func (s *Server) handleGetTree(ctx context.Context, _ json.RawMessage) (any, error) {
	nodes, err := s.eng.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return TreeResult{Nodes: nodes}, nil
}

func (s *Server) handleGetDiagnostics(_ context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Channel string `json:"channel"`
		File    string `json:"file"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}

	general, security := s.eng.Diagnostics()
	var res DiagnosticsResult
	switch params.Channel {
	case "", "all":
		res.General = filterFile(general.Flatten(), params.File)
		res.Security = filterFile(security.Flatten(), params.File)
	case "general":
		res.General = filterFile(general.Flatten(), params.File)
	case "security":
		res.Security = filterFile(security.Flatten(), params.File)
	default:
		return nil, fmt.Errorf("unknown channel %q", params.Channel)
	}
	res.Total = len(res.General) + len(res.Security)
	return res, nil
}

func filterFile(list []diagnostics.Annotation, suffix string) []diagnostics.Annotation {
	if suffix == "" {
		return list
	}
	kept := list[:0]
	for _, a := range list {
		if strings.HasSuffix(a.File, suffix) {
			kept = append(kept, a)
		}
	}
	return kept
}

func (s *Server) handleRefresh(ctx context.Context, _ json.RawMessage) (any, error) {
	snap, err := s.eng.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return HealthResult{Snapshot: snap, Status: snap.ScoreStatus(), Label: snap.HealthLabel()}, nil
}

func (s *Server) handleRunScan(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Kind string `json:"kind"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	kind, err := scan.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}

	return newScanResult(s.eng.Scan(ctx, kind)), nil
}

func newScanResult(res scan.Result) ScanResult {
	out := ScanResult{
		ID:         res.ID,
		Kind:       string(res.Kind),
		OK:         res.OK(),
		TimedOut:   res.TimedOut(),
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func (s *Server) handleIgnoreIssue(_ context.Context, args json.RawMessage) (any, error) {
	var params struct {
		File   string `json:"file"`
		Line   int    `json:"line"`
		Rule   string `json:"rule"`
		Reason string `json:"reason"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	if params.File == "" {
		return nil, errors.New("file is required")
	}
	if params.Line < 1 {
		return nil, errors.New("line must be at least 1")
	}

	sup, err := s.eng.Ignore(params.File, params.Line, params.Rule, params.Reason)
	if err != nil {
		return nil, err
	}
	return IgnoreResult{File: sup.File, Line: sup.Line, Rule: sup.Rule, Reason: sup.Reason}, nil
}

func (s *Server) handleGetStatus(ctx context.Context, _ json.RawMessage) (any, error) {
	return StatusResult{
		StatusLine: s.eng.StatusLine(ctx),
		Summary:    s.eng.StatusSummary(ctx),
	}, nil
}

func (s *Server) handleSelectNode(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	nodes, err := s.eng.Tree(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := tree.Find(nodes, params.ID)
	if !ok {
		return nil, fmt.Errorf("unknown node %q", params.ID)
	}

	sel := tree.Select(node)
	res := SelectResult{Node: node.ID, Action: sel.Action, Menu: sel.Menu}
	kind, ok := tree.ScanKind(sel.Action)
	if !ok {
		return res, nil
	}
	k, err := scan.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	ran := newScanResult(s.eng.Scan(ctx, k))
	res.ScanKind = kind
	res.Scan = &ran
	return res, nil
}
