package app

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/healthsync/internal/output"
	"github.com/blackwell-systems/healthsync/internal/scan"
	"github.com/blackwell-systems/healthsync/internal/tree"
)

var (
	treeSelect string
	treeRun    bool
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the drill-down summary tree",
	Long: `Print the summary tree: Health Score, Patterns Learned, Lint, Types,
Security, Tests, Tech Debt and Last Scan, each with its status and bound
action. Nodes with detail list their children.

--select resolves what choosing a node does. A node without children
reports its primary action; with --run, scan actions are executed. A node
with children reports its menu of secondary actions instead.

Examples:
  healthsync tree
  healthsync tree --select security
  healthsync tree --select types --run`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&treeSelect, "select", "", "Node ID to select (e.g. lint, security.high)")
	treeCmd.Flags().BoolVar(&treeRun, "run", false, "Run the selected node's scan action")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if _, err := rt.eng.Refresh(ctx); err != nil {
		return err
	}
	nodes, err := rt.eng.Tree(ctx)
	if err != nil {
		return err
	}

	if treeSelect == "" {
		if flagJSON {
			return writeJSON(os.Stdout, nodes)
		}
		renderTree(os.Stdout, nodes)
		return nil
	}

	node, ok := tree.Find(nodes, treeSelect)
	if !ok {
		return fmt.Errorf("unknown node %q", treeSelect)
	}
	sel := tree.Select(node)
	if flagJSON {
		return writeJSON(os.Stdout, sel)
	}

	if sel.IsMenu() {
		fmt.Printf("%s\n", output.StyleHeader.Render(node.Label))
		for _, a := range sel.Menu {
			fmt.Printf("  %s\n", a)
		}
		return nil
	}

	kind, isScan := tree.ScanKind(sel.Action)
	if !treeRun || !isScan {
		fmt.Printf("%s → %s\n", node.Label, sel.Action)
		return nil
	}
	k, err := scan.ParseKind(kind)
	if err != nil {
		return err
	}
	res := rt.eng.Scan(ctx, k)
	renderScanResult(os.Stdout, res)
	return res.Err
}

func renderTree(w io.Writer, nodes []tree.Node) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s %s  %s  %s\n",
			output.StatusIcon(string(n.Status)),
			output.StyleBold.Render(n.Label),
			n.Description,
			output.StyleMuted.Render("["+string(n.Action)+"]"))
		for i, c := range n.Children {
			branch := "├─"
			if i == len(n.Children)-1 {
				branch = "└─"
			}
			fmt.Fprintf(w, "  %s %s %s  %s\n",
				output.StyleMuted.Render(branch),
				output.StatusIcon(string(c.Status)),
				c.Label,
				c.Description)
		}
	}
}
