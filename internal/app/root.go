// Package app contains the Cobra command tree for healthsync.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/config"
	"github.com/blackwell-systems/healthsync/internal/engine"
	"github.com/blackwell-systems/healthsync/internal/logging"
	"github.com/blackwell-systems/healthsync/internal/output"
	"github.com/blackwell-systems/healthsync/internal/scan"
	"github.com/blackwell-systems/healthsync/internal/store"
	"github.com/blackwell-systems/healthsync/internal/watcher"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor   bool
	flagJSON      bool
	flagVerbose   bool
	flagConfig    string
	flagWorkspace string
)

var rootCmd = &cobra.Command{
	Use:   "healthsync",
	Short: "Workspace health, line diagnostics and scans from analysis artifacts",
	Long: `healthsync turns the JSON artifacts written by an external analysis
pipeline into a workspace health score, a drill-down summary tree and
line-level diagnostics. It can run the pipeline on demand, re-scan on
every save, and serve the results to editors over MCP.

Run 'healthsync' with no arguments to see a quick health summary.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			logging.SetLevel(slog.LevelDebug)
		}
		if flagNoColor || !output.ColorSupported(os.Stdout) {
			output.SetNoColor(true)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		if _, err := rt.eng.Refresh(ctx); err != nil {
			return err
		}
		fmt.Println("healthsync", appVersion)
		fmt.Println()
		fmt.Println(" " + rt.eng.StatusSummary(ctx))
		fmt.Println(" " + output.StyleMuted.Render(rt.eng.StatusLine(ctx)))
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  status       Health score and category breakdown")
		fmt.Println("  tree         Drill-down summary tree")
		fmt.Println("  diagnostics  Line annotations from issues and security findings")
		fmt.Println("  scan         Run the analysis pipeline")
		fmt.Println("  watch        Re-scan on save and react to artifact changes")
		fmt.Println("  ignore       Suppress an issue at a file and line")
		fmt.Println("  history      Score trend and recent scan runs")
		fmt.Println("  mcp          Serve health data to editors over stdio")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/healthsync/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "Workspace root (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}

// session bundles what a command needs to talk to one workspace.
type session struct {
	cfg  *config.Config
	root string
	db   *store.DB
	eng  *engine.Engine
}

// openRuntime loads config, opens the history database and builds the
// engine. When notify is true, scan failures raise desktop notifications
// if the config allows it.
func openRuntime(notify bool) (*session, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagWorkspace != "" {
		cfg.Workspace = flagWorkspace
	}
	if watchDebounce > 0 {
		cfg.Debounce = watchDebounce
	}
	root, err := cfg.WorkspaceRoot()
	if err != nil {
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	opts := engine.Options{
		Root:        root,
		ArtifactDir: cfg.ArtifactDir,
		Weights:     cfg.Weights,
		Debounce:    cfg.Debounce,
		Scanner:     scan.NewInvoker(root, cfg.ArtifactPath(root), cfg.Pipeline, cfg.Timeouts),
		History:     db,
	}
	if notify && cfg.Notify.Desktop {
		opts.Notify = func(a watcher.Alert) { _ = watcher.Notify(a) }
	}

	eng, err := engine.New(opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &session{cfg: cfg, root: eng.Root(), db: db, eng: eng}, nil
}

// Close releases the engine and database.
func (r *session) Close() {
	r.eng.Close()
	_ = r.db.Close()
}
