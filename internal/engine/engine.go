// Package engine wires the artifact reader, snapshot cache, diagnostic
// projector and scan invoker together, and publishes every state change
// on a single bus so manual and file-triggered refreshes share one path.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/blackwell-systems/healthsync/internal/artifact"
	"github.com/blackwell-systems/healthsync/internal/config"
	"github.com/blackwell-systems/healthsync/internal/diagnostics"
	"github.com/blackwell-systems/healthsync/internal/health"
	"github.com/blackwell-systems/healthsync/internal/logging"
	"github.com/blackwell-systems/healthsync/internal/scan"
	"github.com/blackwell-systems/healthsync/internal/store"
	"github.com/blackwell-systems/healthsync/internal/tree"
	"github.com/blackwell-systems/healthsync/internal/watcher"
)

// Scanner runs the external pipeline.
type Scanner interface {
	Run(ctx context.Context, k scan.Kind) scan.Result
}

// History persists snapshots, scan runs and suppressions. *store.DB
// satisfies it.
type History interface {
	RecordSnapshot(workspace, trigger string, s *health.Snapshot) (int64, error)
	RecordScanRun(r *store.ScanRun) error
	AddSuppression(s *store.Suppression) (int64, error)
	ListSuppressions(workspace string) ([]store.Suppression, error)
}

// Options configures an Engine.
type Options struct {
	Root        string
	ArtifactDir string
	Weights     config.Weights
	Debounce    time.Duration

	// Scanner is required for Scan and for source-save triggered scans.
	Scanner Scanner

	// History is optional; without it nothing is persisted and Ignore
	// fails.
	History History

	// Notify receives warnings in addition to the bus. A warning identical
	// to the previous one is not repeated until a scan succeeds.
	Notify func(watcher.Alert)
}

// Engine is the health and diagnostics orchestrator for one workspace.
type Engine struct {
	root      string
	weights   config.Weights
	reader    *artifact.Reader
	cache     *health.Cache
	projector *diagnostics.Projector
	scanner   Scanner
	history   History
	alerts    *watcher.Deduper
	bus       *Bus
	debouncer *watcher.Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	recordMu     sync.Mutex
	lastRecorded *health.Snapshot
}

// New builds an engine. It fails with artifact.ErrWorkspaceUnavailable
// when the workspace root does not exist.
func New(opts Options) (*Engine, error) {
	reader, err := artifact.NewReader(opts.Root, opts.ArtifactDir)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		root:      reader.Root(),
		weights:   opts.Weights,
		reader:    reader,
		projector: diagnostics.NewProjector(reader),
		scanner:   opts.Scanner,
		history:   opts.History,
		alerts:    watcher.NewDeduper(opts.Notify),
		bus:       NewBus(),
		ctx:       ctx,
		cancel:    cancel,
	}
	e.cache = health.NewCache(e.load)
	e.debouncer = watcher.NewDebouncer(opts.Debounce, func() {
		e.Scan(e.ctx, scan.KindGeneral)
	})
	return e, nil
}

// Close stops any pending debounced scan.
func (e *Engine) Close() {
	e.debouncer.Stop()
	e.cancel()
}

// Root returns the workspace root.
func (e *Engine) Root() string { return e.root }

// ArtifactDir returns the absolute artifact directory.
func (e *Engine) ArtifactDir() string { return e.reader.Dir() }

// Bus returns the engine's event bus.
func (e *Engine) Bus() *Bus { return e.bus }

// Snapshot returns the cached snapshot, computing it on first use.
func (e *Engine) Snapshot(ctx context.Context) (*health.Snapshot, error) {
	return e.cache.Get(ctx)
}

// Tree returns the summary tree for the current snapshot.
func (e *Engine) Tree(ctx context.Context) ([]tree.Node, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Build(snap), nil
}

// Diagnostics returns copies of the general and security channels.
func (e *Engine) Diagnostics() (general, security diagnostics.Channel) {
	return e.projector.General(), e.projector.Security()
}

// StatusLine returns the persistent indicator text.
func (e *Engine) StatusLine(ctx context.Context) string {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		logging.Warn("status line", "error", err)
		return (*health.Snapshot)(nil).StatusLine()
	}
	return snap.StatusLine()
}

// StatusSummary returns the one-line summary shown when the indicator is
// selected.
func (e *Engine) StatusSummary(ctx context.Context) string {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		logging.Warn("status summary", "error", err)
		return (*health.Snapshot)(nil).Summary()
	}
	return snap.Summary()
}

// Refresh re-projects both diagnostic channels, then invalidates the cache
// and recomputes the snapshot.
func (e *Engine) Refresh(ctx context.Context) (*health.Snapshot, error) {
	return e.refresh(ctx, "refresh")
}

func (e *Engine) refresh(ctx context.Context, trigger string) (*health.Snapshot, error) {
	e.loadSuppressions()
	e.projectGeneral()
	e.projectSecurity()
	e.bus.Publish(Event{Type: EventDiagnosticsUpdated})

	e.cache.Invalidate()
	return e.recompute(ctx, trigger)
}

// Scan runs the pipeline. On success the engine refreshes from the new
// artifacts. On failure the cache and both channels are left as they were
// and a warning is published.
func (e *Engine) Scan(ctx context.Context, k scan.Kind) scan.Result {
	if e.scanner == nil {
		res := scan.Result{Kind: k, ExitCode: -1, Err: fmt.Errorf("%w: no scanner configured", fault.ErrMissingRequirements)}
		e.warn("Scan unavailable", res.Err.Error())
		return res
	}

	e.bus.Publish(Event{Type: EventScanStarted, Kind: k})
	res := e.scanner.Run(ctx, k)
	e.recordScan(res)

	if !res.OK() {
		title := fmt.Sprintf("%s scan failed", k)
		if res.TimedOut() {
			title = fmt.Sprintf("%s scan timed out", k)
		}
		e.warn(title, res.Err.Error())
		return res
	}
	e.alerts.Reset()

	if _, err := e.refresh(ctx, "scan:"+string(k)); err != nil {
		logging.Error("refresh after scan", "error", err)
	}
	e.bus.Publish(Event{Type: EventScanFinished, Kind: k, Scan: &res})
	return res
}

// OnSourceSaved feeds the debouncer; a burst of saves yields one general
// scan once the workspace has been quiet for the debounce period.
func (e *Engine) OnSourceSaved(path string) {
	logging.Debug("source save queued", "path", path)
	e.debouncer.Trigger()
}

// OnArtifactChanged reacts to an artifact change immediately: the affected
// channel is re-projected (or cleared, when the security findings file is
// removed) and the snapshot recomputed.
func (e *Engine) OnArtifactChanged(name string, removed bool) {
	switch name {
	case artifact.FindingsFile:
		if removed {
			e.projector.ClearSecurity()
		} else {
			e.projectSecurity()
		}
		e.bus.Publish(Event{Type: EventDiagnosticsUpdated})
	case artifact.IssuesFile:
		e.projectGeneral()
		e.bus.Publish(Event{Type: EventDiagnosticsUpdated})
	}

	e.cache.Invalidate()
	if _, err := e.recompute(e.ctx, "artifact:"+name); err != nil {
		logging.Error("recompute after artifact change", "artifact", name, "error", err)
	}
}

// Ignore persists a suppression for an issue and re-projects the general
// channel without it.
func (e *Engine) Ignore(file string, line int, rule, reason string) (*store.Suppression, error) {
	if e.history == nil {
		return nil, fmt.Errorf("ignoring issues requires a history database")
	}
	sup := &store.Suppression{
		Workspace: e.root,
		File:      e.reader.Resolve(file),
		Line:      line,
		Rule:      rule,
		Reason:    reason,
	}
	if _, err := e.history.AddSuppression(sup); err != nil {
		return nil, fmt.Errorf("saving suppression: %w", err)
	}
	logging.Info("issue ignored", "file", sup.File, "line", line, "rule", rule, "reason", reason)

	e.loadSuppressions()
	e.projectGeneral()
	e.bus.Publish(Event{Type: EventDiagnosticsUpdated})
	return sup, nil
}

// load is the cache loader.
func (e *Engine) load(ctx context.Context, prev *health.Snapshot) (*health.Snapshot, error) {
	set, err := e.reader.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return health.Aggregate(prev, set, e.weights), nil
}

// recompute builds a snapshot from disk and stores it. Concurrent
// recomputations resolve by completion order.
func (e *Engine) recompute(ctx context.Context, trigger string) (*health.Snapshot, error) {
	snap, err := e.load(ctx, e.cache.LastGood())
	if err != nil {
		return nil, err
	}
	e.cache.Store(snap)
	e.recordSnapshot(trigger, snap)
	e.bus.Publish(Event{Type: EventSnapshotUpdated, Snapshot: snap})
	return snap, nil
}

func (e *Engine) projectGeneral() {
	if _, err := e.projector.UpdateDiagnostics(); err != nil {
		logging.Warn("general diagnostics not updated", "error", err)
	}
}

func (e *Engine) projectSecurity() {
	if _, err := e.projector.UpdateSecurityDiagnostics(); err != nil {
		logging.Warn("security diagnostics not updated", "error", err)
	}
}

func (e *Engine) loadSuppressions() {
	if e.history == nil {
		return
	}
	rows, err := e.history.ListSuppressions(e.root)
	if err != nil {
		logging.Warn("loading suppressions", "error", err)
		return
	}
	list := make([]diagnostics.Suppression, len(rows))
	for i, r := range rows {
		list[i] = diagnostics.Suppression{File: r.File, Line: r.Line, Rule: r.Rule}
	}
	e.projector.SetSuppressions(list)
}

// recordSnapshot persists snap unless it matches the last recorded one.
func (e *Engine) recordSnapshot(trigger string, snap *health.Snapshot) {
	if e.history == nil {
		return
	}
	e.recordMu.Lock()
	defer e.recordMu.Unlock()
	if e.lastRecorded != nil && sameMeasurements(e.lastRecorded, snap) {
		return
	}
	if _, err := e.history.RecordSnapshot(e.root, trigger, snap); err != nil {
		logging.Warn("recording snapshot", "error", err)
		return
	}
	e.lastRecorded = snap
}

func (e *Engine) recordScan(res scan.Result) {
	if e.history == nil {
		return
	}
	run := &store.ScanRun{
		ID:        res.ID,
		Workspace: e.root,
		Kind:      string(res.Kind),
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		ExitCode:  res.ExitCode,
		Status:    store.ScanStatusOK,
	}
	switch {
	case res.TimedOut():
		run.Status = store.ScanStatusTimeout
	case !res.OK():
		run.Status = store.ScanStatusFailed
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	if err := e.history.RecordScanRun(run); err != nil {
		logging.Warn("recording scan run", "error", err)
	}
}

func (e *Engine) warn(title, message string) {
	alert := watcher.Alert{
		Level:   watcher.LevelWarning,
		Title:   title,
		Message: message,
		Time:    time.Now(),
	}
	logging.Warn(title, "detail", message)
	e.bus.Publish(Event{Type: EventWarning, Alert: &alert})
	e.alerts.Send(alert)
}

// sameMeasurements compares everything but the timestamp.
func sameMeasurements(a, b *health.Snapshot) bool {
	x, y := *a, *b
	x.LastUpdated, y.LastUpdated = nil, nil
	return x == y
}
