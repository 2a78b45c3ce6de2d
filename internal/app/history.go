package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/health"
	"github.com/blackwell-systems/healthsync/internal/output"
	"github.com/blackwell-systems/healthsync/internal/store"
)

var (
	historyLimit int
	historyScans bool
	historyPrune int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the score trend and recent scan runs",
	Long: `Show recorded health snapshots for the workspace, newest first, with
the score change from the snapshot before each one. Snapshots are recorded
whenever a refresh, scan or artifact change produces different numbers.

Examples:
  healthsync history
  healthsync history --limit 50
  healthsync history --scans
  healthsync history --prune 100     # keep only the newest 100 snapshots`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&historyScans, "scans", false, "Show scan runs instead of snapshots")
	historyCmd.Flags().IntVar(&historyPrune, "prune", 0, "Delete all but the newest N snapshots")
	rootCmd.AddCommand(historyCmd)
}

// historyEntry is one snapshot with its change from the previous one.
type historyEntry struct {
	store.SnapshotRow
	Delta    int  `json:"delta"`
	HasDelta bool `json:"has_delta"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", historyLimit)
	}

	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if historyPrune > 0 {
		n, err := rt.db.PruneSnapshots(rt.root, historyPrune)
		if err != nil {
			return fmt.Errorf("pruning snapshots: %w", err)
		}
		fmt.Printf(" %s Pruned %d snapshots\n", checkMark(), n)
		return nil
	}

	if historyScans {
		runs, err := rt.db.ListScanRuns(rt.root, historyLimit)
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(os.Stdout, runs)
		}
		renderScanRuns(os.Stdout, runs)
		return nil
	}

	// One extra row gives the oldest shown entry its delta.
	rows, err := rt.db.ListSnapshots(rt.root, historyLimit+1)
	if err != nil {
		return err
	}
	entries := historyEntries(rows)
	if len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	if flagJSON {
		return writeJSON(os.Stdout, entries)
	}
	renderHistory(os.Stdout, entries)
	return nil
}

// historyEntries pairs each snapshot (newest first) with its score change
// from the next older one.
func historyEntries(rows []store.SnapshotRow) []historyEntry {
	out := make([]historyEntry, len(rows))
	for i, r := range rows {
		out[i] = historyEntry{SnapshotRow: r}
		if i+1 < len(rows) {
			out[i].Delta = r.Score - rows[i+1].Score
			out[i].HasDelta = true
		}
	}
	return out
}

func renderHistory(w io.Writer, entries []historyEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" No snapshots recorded yet. Run 'healthsync status' or 'healthsync scan'."))
		return
	}

	fmt.Fprintln(w, output.Section("Health History"))
	fmt.Fprintln(w)
	tbl := output.NewTable("When", "Score", "Change", "Lint", "Types", "Security", "Tests", "Trigger")
	for _, e := range entries {
		change := output.StyleMuted.Render("─")
		if e.HasDelta {
			change = output.TrendArrow(float64(e.Delta), true)
		}
		tbl.AddRow(
			e.TakenAt.Local().Format("2006-01-02 15:04"),
			output.StatusStyle(string((&health.Snapshot{Score: e.Score}).ScoreStatus())).Render(strconv.Itoa(e.Score)),
			change,
			fmt.Sprintf("%d/%d", e.LintErrors, e.LintWarnings),
			strconv.Itoa(e.TypeErrors),
			fmt.Sprintf("%d/%d/%d", e.SecHigh, e.SecMedium, e.SecLow),
			fmt.Sprintf("%d/%d", e.TestsPassed, e.TestsTotal),
			output.StyleMuted.Render(e.Trigger),
		)
	}
	_ = tbl.Fprint(w)
	fmt.Fprintln(w)
}

func renderScanRuns(w io.Writer, runs []store.ScanRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" No scans recorded yet."))
		return
	}

	fmt.Fprintln(w, output.Section("Scan Runs"))
	fmt.Fprintln(w)
	tbl := output.NewTable("Started", "Kind", "Status", "Exit", "Duration", "Error")
	for _, r := range runs {
		status := output.StyleSuccess.Render(r.Status)
		if r.Status != store.ScanStatusOK {
			status = output.StyleError.Render(r.Status)
		}
		tbl.AddRow(
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind,
			status,
			strconv.Itoa(r.ExitCode),
			r.Duration.Round(100*time.Millisecond).String(),
			r.Error,
		)
	}
	_ = tbl.Fprint(w)
	fmt.Fprintln(w)
}
