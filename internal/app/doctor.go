package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/artifact"
	"github.com/blackwell-systems/healthsync/internal/config"
	"github.com/blackwell-systems/healthsync/internal/output"
	"github.com/blackwell-systems/healthsync/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the healthsync setup is healthy",
	Long: `Run a series of checks against the workspace, its artifacts, the
configured pipeline and the history database. Prints a pass/fail line for
each check and a summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagWorkspace != "" {
		cfg.Workspace = flagWorkspace
	}
	root, err := cfg.WorkspaceRoot()
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}

	var checks []doctorCheck
	checks = append(checks, checkWorkspace(root))
	checks = append(checks, checkArtifacts(cmd.Context(), root, cfg.ArtifactDir)...)
	checks = append(checks, checkPipeline(cfg.Pipeline))
	checks = append(checks, checkDatabase(config.DBPath()))
	checks = append(checks, checkWatchDaemon())
	checks = append(checks, checkNotifier())

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		return writeJSON(os.Stdout, doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		})
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()
	for _, c := range checks {
		renderDoctorCheck(os.Stdout, c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(w io.Writer, c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Fprintf(w, "  %s  %-30s %s\n", indicator, label, detail)
}

// checkWorkspace verifies that the workspace root exists and is a directory.
func checkWorkspace(root string) doctorCheck {
	info, err := os.Stat(root)
	if err != nil {
		return doctorCheck{Name: "Workspace", Message: fmt.Sprintf("not found: %s", root)}
	}
	if !info.IsDir() {
		return doctorCheck{Name: "Workspace", Message: fmt.Sprintf("not a directory: %s", root)}
	}
	return doctorCheck{Name: "Workspace", Passed: true, Message: root}
}

// checkArtifacts reports one line per artifact file. Absent files pass; a
// malformed file fails.
func checkArtifacts(ctx context.Context, root, dir string) []doctorCheck {
	r, err := artifact.NewReader(root, dir)
	if err != nil {
		return []doctorCheck{{Name: "Artifacts", Message: err.Error()}}
	}
	if _, err := os.Stat(r.Dir()); err != nil {
		return []doctorCheck{{
			Name:    "Artifact directory",
			Message: fmt.Sprintf("not found: %s (run 'healthsync scan')", r.Dir()),
		}}
	}

	set, err := r.ReadAll(ctx)
	if err != nil {
		return []doctorCheck{{Name: "Artifacts", Message: err.Error()}}
	}

	checks := []doctorCheck{{Name: "Artifact directory", Passed: true, Message: r.Dir()}}
	for _, name := range artifact.Names {
		st, readErr := set.Status(name)
		c := doctorCheck{Name: "Artifact: " + name, Passed: st != artifact.StateInvalid, Message: st.String()}
		if readErr != nil {
			c.Message = fmt.Sprintf("%s: %v", st, readErr)
		}
		checks = append(checks, c)
	}
	return checks
}

// checkPipeline verifies that the pipeline command resolves on PATH.
func checkPipeline(p config.Pipeline) doctorCheck {
	bin, err := exec.LookPath(p.Command)
	if err != nil {
		return doctorCheck{
			Name:    "Pipeline command",
			Message: fmt.Sprintf("%q not found on PATH (set pipeline.command)", p.Command),
		}
	}
	return doctorCheck{Name: "Pipeline command", Passed: true, Message: bin}
}

// checkDatabase opens the history database and reports its schema version.
func checkDatabase(dbPath string) doctorCheck {
	db, err := store.Open(dbPath)
	if err != nil {
		return doctorCheck{Name: "History database", Message: err.Error()}
	}
	defer func() { _ = db.Close() }()

	v, err := db.SchemaVersion()
	if err != nil {
		return doctorCheck{Name: "History database", Message: err.Error()}
	}
	return doctorCheck{
		Name:    "History database",
		Passed:  true,
		Message: fmt.Sprintf("%s (schema v%d)", dbPath, v),
	}
}

// checkWatchDaemon checks whether the watch daemon PID file exists and the process is running.
func checkWatchDaemon() doctorCheck {
	pid, err := readPID()
	if err != nil {
		return doctorCheck{Name: "Watch daemon", Message: "not running (no PID file)"}
	}
	if !processExists(pid) {
		return doctorCheck{
			Name:    "Watch daemon",
			Message: fmt.Sprintf("PID %d is not running (stale PID file)", pid),
		}
	}
	return doctorCheck{Name: "Watch daemon", Passed: true, Message: fmt.Sprintf("running (PID %d)", pid)}
}

// checkNotifier reports whether desktop notifications can be shown.
func checkNotifier() doctorCheck {
	var tool string
	switch runtime.GOOS {
	case "darwin":
		tool = "osascript"
	case "linux":
		tool = "notify-send"
	default:
		return doctorCheck{Name: "Desktop notifications", Message: "unsupported platform, alerts go to stderr"}
	}
	if _, err := exec.LookPath(tool); err != nil {
		return doctorCheck{
			Name:    "Desktop notifications",
			Message: fmt.Sprintf("%s not found, alerts go to stderr", tool),
		}
	}
	return doctorCheck{Name: "Desktop notifications", Passed: true, Message: tool}
}
