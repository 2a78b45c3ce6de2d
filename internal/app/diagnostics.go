package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/diagnostics"
	"github.com/blackwell-systems/healthsync/internal/output"
)

var (
	diagChannel string
	diagFile    string
)

var diagnosticsCmd = &cobra.Command{
	Use:     "diagnostics",
	Aliases: []string{"diag"},
	Short:   "List line annotations from issues and security findings",
	Long: `Project issues.json and the needs-review security findings into
line annotations and print them grouped by file. Suppressed issues are
omitted.

Examples:
  healthsync diagnostics
  healthsync diagnostics --channel security
  healthsync diagnostics --file internal/api/handler.go --json`,
	RunE: runDiagnostics,
}

func init() {
	diagnosticsCmd.Flags().StringVar(&diagChannel, "channel", "all", "Channel to show: general, security, all")
	diagnosticsCmd.Flags().StringVar(&diagFile, "file", "", "Only show annotations whose path ends with this value")
	rootCmd.AddCommand(diagnosticsCmd)
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.eng.Refresh(cmd.Context()); err != nil {
		return err
	}
	general, security := rt.eng.Diagnostics()

	var list []diagnostics.Annotation
	switch diagChannel {
	case "all", "":
		list = append(general.Flatten(), security.Flatten()...)
	case "general":
		list = general.Flatten()
	case "security":
		list = security.Flatten()
	default:
		return fmt.Errorf("unknown channel %q (want general, security or all)", diagChannel)
	}
	list = filterAnnotations(list, diagFile)

	if flagJSON {
		return writeJSON(os.Stdout, list)
	}
	renderAnnotations(os.Stdout, rt.root, list)
	return nil
}

func filterAnnotations(list []diagnostics.Annotation, suffix string) []diagnostics.Annotation {
	if suffix == "" {
		return list
	}
	suffix = filepath.Clean(suffix)
	var kept []diagnostics.Annotation
	for _, a := range list {
		if strings.HasSuffix(a.File, suffix) {
			kept = append(kept, a)
		}
	}
	return kept
}

func renderAnnotations(w io.Writer, root string, list []diagnostics.Annotation) {
	if len(list) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" No diagnostics."))
		return
	}

	tbl := output.NewTable("Location", "Level", "Code", "Message")
	for _, a := range list {
		loc := a.File
		if rel, err := filepath.Rel(root, a.File); err == nil && !strings.HasPrefix(rel, "..") {
			loc = rel
		}
		loc = fmt.Sprintf("%s:%d", loc, a.Range.Start.Line+1)

		msg := a.Message
		for _, r := range a.Related {
			msg += " " + output.StyleMuted.Render("("+r.Message+")")
		}
		tbl.AddRow(loc, levelStyle(a.Level), a.Code, msg)
	}
	_ = tbl.Fprint(w)
	fmt.Fprintf(w, "\n %d annotations\n", len(list))
}

func levelStyle(l diagnostics.Level) string {
	switch l {
	case diagnostics.LevelError:
		return output.StyleError.Render(l.String())
	case diagnostics.LevelWarning:
		return output.StyleWarning.Render(l.String())
	case diagnostics.LevelInformation:
		return output.StyleInfo.Render(l.String())
	default:
		return output.StyleMuted.Render(l.String())
	}
}
