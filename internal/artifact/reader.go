package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/farcloser/primordium/fault"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/healthsync/internal/logging"
)

// ErrWorkspaceUnavailable is returned when no usable workspace root is
// open. It is the only fatal reader error.
var ErrWorkspaceUnavailable = errors.New("workspace unavailable")

// Reader loads artifacts for a single workspace.
type Reader struct {
	root string
	dir  string
}

// NewReader returns a Reader for the given workspace root and artifact
// directory. A relative dir is resolved against root.
func NewReader(root, dir string) (*Reader, error) {
	if root == "" {
		return nil, ErrWorkspaceUnavailable
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceUnavailable, root)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return &Reader{root: root, dir: dir}, nil
}

// Root returns the workspace root.
func (r *Reader) Root() string { return r.root }

// Dir returns the absolute artifact directory.
func (r *Reader) Dir() string { return r.dir }

// Path returns the absolute path of the named artifact.
func (r *Reader) Path(name string) string { return filepath.Join(r.dir, name) }

// ReadAll reads every artifact concurrently. The only error it returns is
// context cancellation; per-file problems are reported in each Result.
func (r *Reader) ReadAll(ctx context.Context) (Set, error) {
	if _, err := os.Stat(r.root); err != nil {
		return Set{}, fmt.Errorf("%w: %s", ErrWorkspaceUnavailable, r.root)
	}

	var set Set
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		set.Health = r.ReadHealth()
		return ctx.Err()
	})
	g.Go(func() error {
		set.Issues = r.ReadIssues()
		return ctx.Err()
	})
	g.Go(func() error {
		set.Findings = r.ReadFindings()
		return ctx.Err()
	})
	g.Go(func() error {
		set.TechDebt = r.ReadTechDebt()
		return ctx.Err()
	})
	g.Go(func() error {
		set.Patterns = r.ReadPatterns()
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return Set{}, err
	}
	return set, nil
}

// ReadHealth reads health.json.
func (r *Reader) ReadHealth() Result[Health] {
	return readJSON[Health](r.Path(HealthFile))
}

// ReadIssues reads issues.json. Issues without a file are dropped and
// lines below 1 are clamped to 1.
func (r *Reader) ReadIssues() Result[Issues] {
	res := readJSON[Issues](r.Path(IssuesFile))
	if !res.Valid() {
		return res
	}
	kept := res.Value.Issues[:0]
	for _, is := range res.Value.Issues {
		if is.File == "" {
			continue
		}
		is.File = r.Resolve(is.File)
		is.Line = max(is.Line, 1)
		kept = append(kept, is)
	}
	res.Value.Issues = kept
	return res
}

// ReadFindings reads security_findings.json, normalising every list the
// same way as issues and stamping each finding with its disposition.
func (r *Reader) ReadFindings() Result[Findings] {
	res := readJSON[Findings](r.Path(FindingsFile))
	if !res.Valid() {
		return res
	}
	res.Value.NeedsReview = r.normaliseFindings(res.Value.NeedsReview, NeedsReview)
	res.Value.FalsePositive = r.normaliseFindings(res.Value.FalsePositive, FalsePositive)
	res.Value.AcceptedRisk = r.normaliseFindings(res.Value.AcceptedRisk, AcceptedRisk)
	return res
}

// ReadTechDebt reads tech_debt.json.
func (r *Reader) ReadTechDebt() Result[TechDebt] {
	return readJSON[TechDebt](r.Path(TechDebtFile))
}

// ReadPatterns reads patterns.json.
func (r *Reader) ReadPatterns() Result[Patterns] {
	return readJSON[Patterns](r.Path(PatternsFile))
}

func (r *Reader) normaliseFindings(list []SecurityFinding, d Disposition) []SecurityFinding {
	kept := list[:0]
	for _, sf := range list {
		if sf.File == "" {
			continue
		}
		sf.File = r.Resolve(sf.File)
		sf.Line = max(sf.Line, 1)
		sf.Disposition = d
		kept = append(kept, sf)
	}
	return kept
}

// Resolve makes a workspace-relative path absolute.
func (r *Reader) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.root, path)
}

// readJSON reads and decodes a single artifact file.
func readJSON[T any](path string) Result[T] {
	res := Result[T]{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			res.State = StateAbsent
			return res
		}
		res.State = StateInvalid
		res.Err = err
		logging.Warn("artifact unreadable", "path", path, "error", err)
		return res
	}
	res.ModTime = info.ModTime()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			res.State = StateAbsent
			res.ModTime = time.Time{}
			return res
		}
		res.State = StateInvalid
		res.Err = err
		logging.Warn("artifact unreadable", "path", path, "error", err)
		return res
	}

	// A file truncated mid-write is indistinguishable from a malformed one.
	if len(bytes.TrimSpace(data)) == 0 {
		res.State = StateInvalid
		res.Err = fmt.Errorf("%w: empty file", fault.ErrInvalidJSON)
		logging.Warn("artifact malformed", "path", path, "error", res.Err)
		return res
	}

	if err := json.Unmarshal(data, &res.Value); err != nil {
		var zero T
		res.Value = zero
		res.State = StateInvalid
		res.Err = fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
		logging.Warn("artifact malformed", "path", path, "error", err)
		return res
	}

	res.State = StateValid
	logging.Debug("artifact read", "path", path)
	return res
}
