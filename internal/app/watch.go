package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/config"
	"github.com/blackwell-systems/healthsync/internal/engine"
	"github.com/blackwell-systems/healthsync/internal/logging"
	"github.com/blackwell-systems/healthsync/internal/output"
	"github.com/blackwell-systems/healthsync/internal/watcher"
)

var (
	watchDaemon   bool
	watchStop     bool
	watchQuiet    bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-scan on save and react to artifact changes",
	Long: `Watch the workspace. Every source save re-arms a debounce timer; once
the workspace has been quiet for the debounce period a general scan runs.
Changes to artifact files refresh health and diagnostics immediately.

A failed or timed-out scan produces a desktop notification (or a line on
stderr when no notifier is available) and leaves the previous results in
place.

Examples:
  healthsync watch                     # run in foreground (ctrl-c to stop)
  healthsync watch --debounce 5s       # wait 5s after the last save
  healthsync watch --daemon            # run in background, write PID file
  healthsync watch --stop              # stop the background daemon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period after the last save before scanning (default from config, 2s)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon()
	}

	if watchDebounce != 0 && watchDebounce < 100*time.Millisecond {
		return fmt.Errorf("debounce must be at least 100ms, got %s", watchDebounce)
	}

	if watchDaemon {
		return runDaemon()
	}
	return runForeground()
}

// watchContext returns a context cancelled on SIGINT/SIGTERM.
func watchContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// startWatching refreshes once, then runs the filesystem watcher until ctx
// is done. Engine events are passed to report.
func startWatching(ctx context.Context, rt *session, report func(engine.Event)) error {
	unsubscribe := rt.eng.Bus().Subscribe(report)
	defer unsubscribe()

	if _, err := rt.eng.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh failed: %w", err)
	}

	w, err := watcher.New(rt.root, rt.eng.ArtifactDir(), rt.eng)
	if err != nil {
		return err
	}

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runForeground runs the watcher in the foreground with live terminal output.
func runForeground() error {
	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := watchContext()
	defer cancel()

	if !watchQuiet {
		fmt.Printf("healthsync watching %s (debounce %s)\n", rt.root, rt.cfg.Debounce)
	}

	report := func(ev engine.Event) {
		if !watchQuiet {
			printEvent(os.Stdout, ev)
		}
	}
	if err := startWatching(ctx, rt, report); err != nil {
		return err
	}
	if !watchQuiet {
		fmt.Println("\nStopped.")
	}
	return nil
}

// runDaemon sets up PID and log files, then runs the watcher. The actual
// backgrounding should be done by the caller (nohup, &, etc.) since Go
// cannot reliably fork.
func runDaemon() error {
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		// Stale PID file, remove it.
		_ = os.Remove(pidFilePath())
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logging.SetOutput(logFile)

	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := watchContext()
	defer cancel()

	logging.Info("daemon started", "pid", pid, "workspace", rt.root, "debounce", rt.cfg.Debounce)
	report := func(ev engine.Event) {
		printEvent(logFile, ev)
	}
	if err := startWatching(ctx, rt, report); err != nil {
		logging.Error("daemon stopped", "error", err)
		return err
	}
	logging.Info("daemon stopped")
	return nil
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// stopDaemon signals the daemon named in the PID file and waits briefly
// for it to exit.
func stopDaemon() error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no daemon running (could not read PID file: %w)", err)
	}
	if !processExists(pid) {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("no daemon running (PID %d is gone, removed stale PID file)", pid)
	}
	if err := terminateProcess(pid); err != nil {
		return fmt.Errorf("stopping daemon (PID %d): %w", pid, err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for processExists(pid) && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	_ = os.Remove(pidFilePath())
	fmt.Printf(" %s Stopped daemon (PID %d)\n", checkMark(), pid)
	return nil
}

// printEvent writes one timestamped line per engine event. Diagnostics
// updates are folded into the snapshot line that follows them.
func printEvent(w io.Writer, ev engine.Event) {
	ts := ev.Time.Format("15:04:05")
	switch ev.Type {
	case engine.EventScanStarted:
		fmt.Fprintf(w, "[%s] %s %s scan started\n", ts, output.StyleMuted.Render("…"), ev.Kind)
	case engine.EventScanFinished:
		fmt.Fprintf(w, "[%s] %s %s scan finished in %s\n",
			ts, checkMark(), ev.Kind, ev.Scan.Duration.Round(100*time.Millisecond))
	case engine.EventSnapshotUpdated:
		s := ev.Snapshot
		fmt.Fprintf(w, "[%s] %s %d/100 (%s)  lint %d/%d  types %d  security %d/%d/%d  tests %d failed\n",
			ts, output.StatusIcon(string(s.ScoreStatus())), s.Score, s.HealthLabel(),
			s.Lint.Errors, s.Lint.Warnings, s.Types.Errors,
			s.Security.High, s.Security.Medium, s.Security.Low, s.Tests.Failed)
	case engine.EventWarning:
		printAlert(w, *ev.Alert)
	}
}

// printAlert formats and prints an alert.
func printAlert(w io.Writer, a watcher.Alert) {
	timestamp := a.Time.Format("15:04:05")
	icon := alertIcon(a.Level)
	fmt.Fprintf(w, "[%s] %s %s\n", timestamp, icon, a.Title)
	if a.Message != "" {
		fmt.Fprintf(w, "           %s\n", a.Message)
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case watcher.LevelCritical:
		return output.StyleError.Render("✗")
	case watcher.LevelWarning:
		return output.StyleWarning.Render("!")
	case watcher.LevelInfo:
		return checkMark()
	default:
		return " "
	}
}

// checkMark returns a terminal check mark indicator.
func checkMark() string {
	return output.StyleSuccess.Render("✓")
}
