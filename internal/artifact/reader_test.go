package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/primordium/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T) (*Reader, string) {
	t.Helper()
	root := t.TempDir()
	r, err := NewReader(root, ".healthsync")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(r.Dir(), 0o755))
	return r, root
}

func writeArtifact(t *testing.T, r *Reader, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(r.Path(name), []byte(content), 0o644))
}

func TestNewReader_MissingRoot(t *testing.T) {
	_, err := NewReader("", ".healthsync")
	assert.ErrorIs(t, err, ErrWorkspaceUnavailable)

	_, err = NewReader(filepath.Join(t.TempDir(), "nope"), ".healthsync")
	assert.ErrorIs(t, err, ErrWorkspaceUnavailable)
}

func TestNewReader_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err := NewReader(file, ".healthsync")
	assert.ErrorIs(t, err, ErrWorkspaceUnavailable)
}

func TestReadAll_NoArtifacts(t *testing.T) {
	r, _ := newTestReader(t)

	set, err := r.ReadAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateAbsent, set.Health.State)
	assert.Equal(t, StateAbsent, set.Issues.State)
	assert.Equal(t, StateAbsent, set.Findings.State)
	assert.Equal(t, StateAbsent, set.TechDebt.State)
	assert.Equal(t, StateAbsent, set.Patterns.State)
	assert.True(t, set.Newest().IsZero())
}

func TestReadAll_WorkspaceRemoved(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	require.NoError(t, os.Mkdir(root, 0o755))
	r, err := NewReader(root, ".healthsync")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(root))

	_, err = r.ReadAll(context.Background())
	assert.ErrorIs(t, err, ErrWorkspaceUnavailable)
}

func TestReadHealth_Valid(t *testing.T) {
	r, _ := newTestReader(t)
	writeArtifact(t, r, HealthFile, `{
		"score": 91,
		"lint": {"errors": 1, "warnings": 4},
		"tests": {"passed": 10, "failed": 0, "total": 10, "coverage": 82.5},
		"timestamp": "2026-01-02T03:04:05Z"
	}`)

	res := r.ReadHealth()
	require.Equal(t, StateValid, res.State)
	require.NotNil(t, res.Value.Score)
	assert.Equal(t, 91.0, *res.Value.Score)
	assert.Equal(t, 4, res.Value.Lint.Warnings)
	assert.Nil(t, res.Value.Types)
	assert.Nil(t, res.Value.Security)
	assert.Equal(t, 82.5, res.Value.Tests.CoverageValue())
	assert.False(t, res.ModTime.IsZero())
}

func TestReadHealth_Malformed(t *testing.T) {
	r, _ := newTestReader(t)
	writeArtifact(t, r, HealthFile, `{"score": `)

	res := r.ReadHealth()
	assert.Equal(t, StateInvalid, res.State)
	assert.True(t, errors.Is(res.Err, fault.ErrInvalidJSON))
}

func TestReadHealth_EmptyFileIsInvalid(t *testing.T) {
	r, _ := newTestReader(t)
	writeArtifact(t, r, HealthFile, "  \n")

	res := r.ReadHealth()
	assert.Equal(t, StateInvalid, res.State)
}

func TestReadIssues_NormalisesEntries(t *testing.T) {
	r, root := newTestReader(t)
	writeArtifact(t, r, IssuesFile, `{"issues": [
		{"file": "src/a.go", "line": 3, "message": "unused", "severity": "warning", "rule": "U1000"},
		{"file": "/abs/b.go", "line": 0, "message": "bad", "severity": "error", "type": "E1"},
		{"line": 9, "message": "no file"}
	]}`)

	res := r.ReadIssues()
	require.Equal(t, StateValid, res.State)
	require.Len(t, res.Value.Issues, 2)

	assert.Equal(t, filepath.Join(root, "src/a.go"), res.Value.Issues[0].File)
	assert.Equal(t, "U1000", res.Value.Issues[0].Rule)
	assert.Equal(t, "/abs/b.go", res.Value.Issues[1].File)
	assert.Equal(t, 1, res.Value.Issues[1].Line)
	assert.Equal(t, "E1", res.Value.Issues[1].Rule)
}

func TestReadIssues_WrongShapeIsInvalid(t *testing.T) {
	r, _ := newTestReader(t)
	writeArtifact(t, r, IssuesFile, `{"issues": "not a list"}`)

	assert.Equal(t, StateInvalid, r.ReadIssues().State)
}

func TestReadFindings_Dispositions(t *testing.T) {
	r, _ := newTestReader(t)
	writeArtifact(t, r, FindingsFile, `{
		"needs_review": [{"file": "a.py", "line": 2, "severity": "high", "owasp_category": "A03", "type": "sqli", "analysis": "raw query", "matched_text": "execute(q)"}],
		"false_positive": [{"file": "b.py", "line": 1, "severity": "low"}],
		"accepted_risk": [{"file": "c.py", "line": 5, "severity": "medium"}]
	}`)

	res := r.ReadFindings()
	require.Equal(t, StateValid, res.State)

	nr := res.Value.NeedsReview
	require.Len(t, nr, 1)
	assert.Equal(t, NeedsReview, nr[0].Disposition)
	assert.Equal(t, "sqli", nr[0].FindingType)
	assert.Equal(t, "execute(q)", nr[0].MatchedExcerpt)

	all := res.Value.All()
	require.Len(t, all, 3)
	assert.Equal(t, FalsePositive, all[1].Disposition)
	assert.Equal(t, AcceptedRisk, all[2].Disposition)
}

func TestReadTechDebt_Latest(t *testing.T) {
	r, _ := newTestReader(t)
	writeArtifact(t, r, TechDebtFile, `{"snapshots": [
		{"total_items": 3, "by_type": {"todo": 3}},
		{"total_items": 7, "by_type": {"todo": 4, "fixme": 2, "hack": 1}}
	]}`)

	res := r.ReadTechDebt()
	require.Equal(t, StateValid, res.State)
	latest, ok := res.Value.Latest()
	require.True(t, ok)
	assert.Equal(t, 7, latest.TotalItems)
	assert.Equal(t, 1, latest.ByType.Hack)

	_, ok = TechDebt{}.Latest()
	assert.False(t, ok)
}

func TestReadPatterns(t *testing.T) {
	r, _ := newTestReader(t)
	writeArtifact(t, r, PatternsFile, `{"patterns": [{"name": "nil-check", "occurrences": 4}], "savings_total": 12.5}`)

	res := r.ReadPatterns()
	require.Equal(t, StateValid, res.State)
	assert.Len(t, res.Value.Patterns, 1)
	assert.Equal(t, 12.5, res.Value.SavingsTotal)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "absent", StateAbsent.String())
	assert.Equal(t, "valid", StateValid.String())
	assert.Equal(t, "invalid", StateInvalid.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSetStatus(t *testing.T) {
	r, _ := newTestReader(t)
	writeArtifact(t, r, HealthFile, `{"score": 90}`)
	writeArtifact(t, r, PatternsFile, `not json`)

	set, err := r.ReadAll(context.Background())
	require.NoError(t, err)

	st, readErr := set.Status(HealthFile)
	assert.Equal(t, StateValid, st)
	assert.NoError(t, readErr)

	st, readErr = set.Status(PatternsFile)
	assert.Equal(t, StateInvalid, st)
	assert.Error(t, readErr)

	st, _ = set.Status(IssuesFile)
	assert.Equal(t, StateAbsent, st)

	st, _ = set.Status("unknown.json")
	assert.Equal(t, StateAbsent, st)
}
