package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/healthsync/internal/mcp"
	"github.com/blackwell-systems/healthsync/internal/watcher"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server for editor clients",
	Long: `Start a Model Context Protocol stdio server so an editor can show the
summary tree, the status line and line annotations, and trigger scans.
Health and both annotation channels are loaded before the first request,
and the workspace is watched for the life of the session: saves trigger a
debounced scan and artifact changes are picked up immediately.

The server exposes these tools:

  get_health       Current health snapshot
  get_tree         Summary tree nodes with status and actions
  get_diagnostics  General and security line annotations
  refresh          Re-read artifacts and recompute
  run_scan         Run the analysis pipeline (general or security)
  ignore_issue     Suppress an issue at a file and line
  get_status       Status line text and summary
  select_node      Run a node's scan action, or return its action or menu

Logs go to stderr; stdout carries only protocol messages.

Example client configuration:
  {"mcpServers":{"healthsync":{"command":"healthsync","args":["mcp","-w","/path/to/repo"]}}}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	return serveMCP(cmd.Context(), rt, os.Stdin, os.Stdout)
}

// serveMCP loads health and diagnostics, then runs the protocol server and
// the workspace watcher together. The session ends when the client closes
// its input or ctx is cancelled.
func serveMCP(ctx context.Context, rt *session, in io.Reader, out io.Writer) error {
	if _, err := rt.eng.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh failed: %w", err)
	}

	w, err := watcher.New(rt.root, rt.eng.ArtifactDir(), rt.eng)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Client EOF ends the watcher too.
		defer cancel()
		return mcp.NewServer(rt.eng, appVersion).Run(gctx, in, out)
	})
	g.Go(func() error {
		err := w.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
