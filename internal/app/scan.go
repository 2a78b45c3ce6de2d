package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/output"
	"github.com/blackwell-systems/healthsync/internal/scan"
)

var scanFlagOutput bool

var scanCmd = &cobra.Command{
	Use:   "scan [general|security]",
	Short: "Run the analysis pipeline",
	Long: `Run the configured analysis pipeline against the workspace and
refresh health and diagnostics from the artifacts it writes. A general
scan is bounded by timeouts.general (60s by default), a security scan by
timeouts.security (120s).

A scan that times out or exits non-zero is reported as failed; the
previous health snapshot and diagnostics are kept.

Examples:
  healthsync scan
  healthsync scan security
  healthsync scan --output`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(scan.KindGeneral), string(scan.KindSecurity)},
	RunE:      runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanFlagOutput, "output", false, "Print the pipeline's combined output")
	rootCmd.AddCommand(scanCmd)
}

// scanOutput is the JSON-serializable result of the scan command.
type scanOutput struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	OK         bool   `json:"ok"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	Summary    string `json:"summary"`
}

func runScan(cmd *cobra.Command, args []string) error {
	var kindArg string
	if len(args) > 0 {
		kindArg = args[0]
	}
	kind, err := scan.ParseKind(kindArg)
	if err != nil {
		return err
	}

	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	res := rt.eng.Scan(ctx, kind)

	if flagJSON {
		out := scanOutput{
			ID:         res.ID,
			Kind:       string(res.Kind),
			OK:         res.OK(),
			ExitCode:   res.ExitCode,
			DurationMS: res.Duration.Milliseconds(),
			Summary:    rt.eng.StatusSummary(ctx),
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		if err := writeJSON(os.Stdout, out); err != nil {
			return err
		}
		return res.Err
	}

	renderScanResult(os.Stdout, res)
	if scanFlagOutput && res.Output != "" {
		fmt.Println(output.Section("Pipeline Output"))
		fmt.Println(strings.TrimRight(res.Output, "\n"))
	}
	if res.OK() {
		fmt.Println()
		fmt.Println(" " + rt.eng.StatusSummary(ctx))
	}
	return res.Err
}

func renderScanResult(w io.Writer, res scan.Result) {
	status := output.StyleSuccess.Render("completed")
	switch {
	case res.TimedOut():
		status = output.StyleError.Render("timed out")
	case !res.OK():
		status = output.StyleError.Render(fmt.Sprintf("failed (exit %d)", res.ExitCode))
	}
	fmt.Fprintf(w, " %s scan %s in %s %s\n",
		res.Kind, status, res.Duration.Round(100*time.Millisecond), output.StyleMuted.Render(res.ID))
}
