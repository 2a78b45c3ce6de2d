package app

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/output"
)

var ignoreReason string

var ignoreCmd = &cobra.Command{
	Use:   "ignore <file> <line> [rule]",
	Short: "Suppress an issue at a file and line",
	Long: `Record that an issue should no longer produce an annotation. The
suppression is stored in the history database and applied every time the
issues artifact is projected. Without a rule, every issue on that line is
suppressed.

Examples:
  healthsync ignore internal/api/handler.go 42 errcheck --reason "checked upstream"
  healthsync ignore list
  healthsync ignore remove 3`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runIgnore,
}

var ignoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List suppressions for the workspace",
	Args:  cobra.NoArgs,
	RunE:  runIgnoreList,
}

var ignoreRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a suppression by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runIgnoreRemove,
}

func init() {
	ignoreCmd.Flags().StringVar(&ignoreReason, "reason", "", "Why the issue is being ignored")
	ignoreCmd.AddCommand(ignoreListCmd, ignoreRemoveCmd)
	rootCmd.AddCommand(ignoreCmd)
}

func runIgnore(cmd *cobra.Command, args []string) error {
	line, err := strconv.Atoi(args[1])
	if err != nil || line < 1 {
		return fmt.Errorf("invalid line %q: must be a positive integer", args[1])
	}
	var rule string
	if len(args) == 3 {
		rule = args[2]
	}

	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	sup, err := rt.eng.Ignore(args[0], line, rule, ignoreReason)
	if err != nil {
		return err
	}
	if flagJSON {
		return writeJSON(os.Stdout, sup)
	}

	target := "all rules"
	if rule != "" {
		target = rule
	}
	fmt.Printf(" %s Ignoring %s at %s:%d\n", checkMark(), target, relPath(rt.root, sup.File), line)
	return nil
}

func runIgnoreList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	sups, err := rt.db.ListSuppressions(rt.root)
	if err != nil {
		return err
	}
	if flagJSON {
		return writeJSON(os.Stdout, sups)
	}
	if len(sups) == 0 {
		fmt.Println(output.StyleMuted.Render(" No suppressions."))
		return nil
	}

	tbl := output.NewTable("ID", "Location", "Rule", "Reason", "Added")
	for _, s := range sups {
		rule := s.Rule
		if rule == "" {
			rule = output.StyleMuted.Render("*")
		}
		tbl.AddRow(
			strconv.FormatInt(s.ID, 10),
			fmt.Sprintf("%s:%d", relPath(rt.root, s.File), s.Line),
			rule,
			s.Reason,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return tbl.Fprint(os.Stdout)
}

func runIgnoreRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.db.RemoveSuppression(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no suppression with id %d", id)
		}
		return err
	}
	fmt.Printf(" %s Removed suppression %d\n", checkMark(), id)
	return nil
}

// relPath shows path relative to root when it lies inside it.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
