package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/health"
	"github.com/blackwell-systems/healthsync/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health score and category breakdown",
	Long: `Read the workspace artifacts and print the composite health score,
the status line and one row per category with its status.

Examples:
  healthsync status
  healthsync status --json
  healthsync status -w ~/code/api`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusOutput is the JSON-serializable result of the status command.
type statusOutput struct {
	Workspace  string           `json:"workspace"`
	StatusLine string           `json:"status_line"`
	Summary    string           `json:"summary"`
	Status     health.Status    `json:"status"`
	Snapshot   *health.Snapshot `json:"snapshot"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	snap, err := rt.eng.Refresh(ctx)
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(os.Stdout, statusOutput{
			Workspace:  rt.root,
			StatusLine: rt.eng.StatusLine(ctx),
			Summary:    rt.eng.StatusSummary(ctx),
			Status:     snap.ScoreStatus(),
			Snapshot:   snap,
		})
	}

	renderStatus(os.Stdout, rt.root, snap, rt.eng.StatusLine(ctx))
	return nil
}

func renderStatus(w io.Writer, root string, snap *health.Snapshot, statusLine string) {
	fmt.Fprintln(w, output.Section("Workspace Health"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Workspace"), root)
	source := "computed"
	if snap.ExplicitScore {
		source = "reported"
	}
	fmt.Fprintf(w, " %s %s %s\n",
		output.StyleLabel.Render("Score"),
		output.ScoreBar(snap.Score, 20),
		output.StyleMuted.Render("("+source+", "+snap.HealthLabel()+")"))
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Status line"), statusLine)
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Last scan"), formatLastScan(snap.LastUpdated))
	fmt.Fprintln(w)

	tbl := output.NewTable("", "Category", "Value")
	row := func(s health.Status, name, value string) {
		tbl.AddRow(output.StatusIcon(string(s)), name, value)
	}
	row(snap.LintStatus(), "Lint", fmt.Sprintf("%d errors, %d warnings", snap.Lint.Errors, snap.Lint.Warnings))
	row(snap.TypesStatus(), "Types", fmt.Sprintf("%d errors", snap.Types.Errors))
	row(snap.SecurityStatus(), "Security", fmt.Sprintf("%d high, %d medium, %d low",
		snap.Security.High, snap.Security.Medium, snap.Security.Low))
	row(snap.TestsStatus(), "Tests", fmt.Sprintf("%d/%d passed, %.0f%% coverage",
		snap.Tests.Passed, snap.Tests.Total, snap.Tests.CoveragePercent))
	row(snap.TechDebtStatus(), "Tech debt", fmt.Sprintf("%d markers (%d TODO, %d FIXME, %d HACK)",
		snap.TechDebt.Total, snap.TechDebt.Todos, snap.TechDebt.Fixmes, snap.TechDebt.Hacks))
	row(snap.PatternsStatus(), "Patterns", fmt.Sprintf("%d learned, $%.2f saved",
		snap.Patterns.Count, snap.Patterns.SavingsTotal))
	_ = tbl.Fprint(w)
	fmt.Fprintln(w)
}

// formatLastScan renders a scan time as a relative age, or "never".
func formatLastScan(t *time.Time) string {
	if t == nil {
		return output.StyleMuted.Render("never")
	}
	return formatAge(time.Since(*t))
}

// formatAge converts a duration to a short age like "just now" or "3h ago".
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
