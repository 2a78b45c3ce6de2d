// Package scan runs the external analysis pipeline as a bounded
// subprocess and reports the outcome as a value.
package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/farcloser/primordium/fault"
	"github.com/google/uuid"

	"github.com/blackwell-systems/healthsync/internal/config"
	"github.com/blackwell-systems/healthsync/internal/logging"
)

// Kind selects which pipeline scan to run.
type Kind string

const (
	KindGeneral  Kind = "general"
	KindSecurity Kind = "security"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGeneral, KindSecurity:
		return Kind(s), nil
	case "":
		return KindGeneral, nil
	default:
		return "", fmt.Errorf("unknown scan kind %q (want %s or %s)", s, KindGeneral, KindSecurity)
	}
}

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed.
const waitDelay = 5 * time.Second

// Result is the outcome of one pipeline run. Err is nil on success and
// wraps fault.ErrTimeout, fault.ErrCommandFailure or
// fault.ErrMissingRequirements otherwise.
type Result struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Command   []string      `json:"command"`
	Output    string        `json:"output"`
	ExitCode  int           `json:"exit_code"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// OK reports whether the pipeline completed successfully.
func (r Result) OK() bool { return r.Err == nil }

// TimedOut reports whether the run was killed at its deadline.
func (r Result) TimedOut() bool { return errors.Is(r.Err, fault.ErrTimeout) }

// Invoker launches the pipeline for one workspace.
type Invoker struct {
	root     string
	outDir   string
	pipeline config.Pipeline
	timeouts config.Timeouts

	lookPath func(string) (string, error)
	newID    func() string
	now      func() time.Time
}

// NewInvoker returns an invoker that passes root and outDir to the
// pipeline.
func NewInvoker(root, outDir string, p config.Pipeline, t config.Timeouts) *Invoker {
	return &Invoker{
		root:     root,
		outDir:   outDir,
		pipeline: p,
		timeouts: t,
		lookPath: exec.LookPath,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Timeout returns the deadline applied to a scan of kind k.
func (i *Invoker) Timeout(k Kind) time.Duration {
	if k == KindSecurity {
		return i.timeouts.Security
	}
	return i.timeouts.General
}

// Args returns the full argument list for kind k, excluding the command.
func (i *Invoker) Args(k Kind) []string {
	kindArgs := i.pipeline.Args
	if k == KindSecurity {
		kindArgs = i.pipeline.SecurityArgs
	}
	args := make([]string, 0, len(kindArgs)+2)
	args = append(args, kindArgs...)
	return append(args, i.root, i.outDir)
}

// Run executes the pipeline and blocks until it exits or its timeout
// elapses. A process still running at the deadline is killed along with
// its process group. Findings never cause failure; only a non-zero exit
// does.
func (i *Invoker) Run(ctx context.Context, k Kind) Result {
	res := Result{
		ID:        i.newID(),
		Kind:      k,
		StartedAt: i.now(),
	}
	log := logging.With("scan_id", res.ID, "kind", k)

	bin, err := i.lookPath(i.pipeline.Command)
	if err != nil {
		res.ExitCode = -1
		res.Err = fmt.Errorf("%w: %s", fault.ErrMissingRequirements, i.pipeline.Command)
		log.Warn("pipeline not found", "command", i.pipeline.Command)
		return res
	}

	if err := os.MkdirAll(i.outDir, 0o755); err != nil {
		res.ExitCode = -1
		res.Err = fmt.Errorf("%w: creating output dir: %w", fault.ErrCommandFailure, err)
		return res
	}

	timeout := i.Timeout(k)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := i.Args(k)
	res.Command = append([]string{bin}, args...)

	//nolint:gosec // the pipeline command comes from the user's own config
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = i.root
	cmd.WaitDelay = waitDelay
	killGroup(cmd)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	log.Debug("running pipeline", "command", res.Command, "timeout", timeout)
	err = cmd.Run()
	res.Duration = i.now().Sub(res.StartedAt)
	res.Output = out.String()

	switch {
	case err == nil:
		res.ExitCode = 0
		log.Info("scan completed", "duration", res.Duration)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = -1
		res.Err = fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		log.Warn("scan timed out", "timeout", timeout)
	default:
		res.ExitCode = exitCode(err)
		if msg := lastLine(res.Output); msg != "" {
			res.Err = fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, msg, err)
		} else {
			res.Err = fmt.Errorf("%w: %w", fault.ErrCommandFailure, err)
		}
		log.Warn("scan failed", "exit_code", res.ExitCode, "error", err)
	}
	return res
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// lastLine returns the final non-empty line of output, which is where
// pipelines usually put their error.
func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
