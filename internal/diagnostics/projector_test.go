package diagnostics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/healthsync/internal/artifact"
)

func newTestProjector(t *testing.T) (*Projector, *artifact.Reader) {
	t.Helper()
	root := t.TempDir()
	r, err := artifact.NewReader(root, ".healthsync")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(r.Dir(), 0o755))
	return NewProjector(r), r
}

func writeArtifact(t *testing.T, r *artifact.Reader, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(r.Path(name), []byte(content), 0o644))
}

const issuesJSON = `{"issues": [
	{"file": "src/a.go", "line": 3, "message": "unused var", "severity": "warning", "rule": "unused"},
	{"file": "src/a.go", "line": 9, "message": "nil deref", "severity": "error", "type": "nilness"},
	{"file": "src/b.go", "line": 0, "message": "odd", "severity": "bogus", "rule": "x"}
]}`

const findingsJSON = `{
	"needs_review": [
		{"file": "api/h.go", "line": 12, "severity": "high", "owasp_category": "A03",
		 "finding_type": "sql_injection", "analysis": "query built from input",
		 "matched_excerpt": "db.Query(\"SELECT \" + q)"},
		{"file": "api/h.go", "line": 40, "severity": "low", "owasp_category": "A09",
		 "finding_type": "logging", "analysis": "token logged"}
	],
	"false_positive": [{"file": "api/x.go", "line": 1, "severity": "high"}],
	"accepted_risk": [{"file": "api/y.go", "line": 1, "severity": "critical"}]
}`

func TestMapSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"error", LevelError},
		{"HIGH", LevelError},
		{" critical ", LevelError},
		{"warning", LevelWarning},
		{"Medium", LevelWarning},
		{"info", LevelInformation},
		{"low", LevelInformation},
		{"", LevelHint},
		{"severe", LevelHint},
		{"informational", LevelHint},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MapSeverity(tc.in), "severity %q", tc.in)
	}
}

func TestUpdateDiagnostics_ProjectsIssues(t *testing.T) {
	p, r := newTestProjector(t)
	writeArtifact(t, r, artifact.IssuesFile, issuesJSON)

	state, err := p.UpdateDiagnostics()
	require.NoError(t, err)
	assert.Equal(t, artifact.StateValid, state)

	general := p.General()
	a := filepath.Join(r.Root(), "src/a.go")
	b := filepath.Join(r.Root(), "src/b.go")
	require.Len(t, general[a], 2)
	require.Len(t, general[b], 1)

	first := general[a][0]
	assert.Equal(t, Range{Start: Position{Line: 2}, End: Position{Line: 2, Col: EndOfLine}}, first.Range)
	assert.Equal(t, LevelWarning, first.Level)
	assert.Equal(t, "unused", first.Code)
	assert.Equal(t, SourceGeneral, first.Source)

	assert.Equal(t, "nilness", general[a][1].Code)
	assert.Equal(t, LevelError, general[a][1].Level)

	// line 0 is clamped to the first line
	assert.Equal(t, 0, general[b][0].Range.Start.Line)
	assert.Equal(t, LevelHint, general[b][0].Level)
}

func TestUpdateDiagnostics_DeletedArtifactClears(t *testing.T) {
	p, r := newTestProjector(t)
	writeArtifact(t, r, artifact.IssuesFile, issuesJSON)
	_, err := p.UpdateDiagnostics()
	require.NoError(t, err)
	require.NotEmpty(t, p.General())

	require.NoError(t, os.Remove(r.Path(artifact.IssuesFile)))

	state, err := p.UpdateDiagnostics()
	require.NoError(t, err)
	assert.Equal(t, artifact.StateAbsent, state)
	assert.Empty(t, p.General())
}

func TestUpdateDiagnostics_MalformedKeepsPrevious(t *testing.T) {
	p, r := newTestProjector(t)
	writeArtifact(t, r, artifact.IssuesFile, issuesJSON)
	_, err := p.UpdateDiagnostics()
	require.NoError(t, err)
	before := p.General()

	writeArtifact(t, r, artifact.IssuesFile, `{"issues": [`)

	state, err := p.UpdateDiagnostics()
	assert.Error(t, err)
	assert.Equal(t, artifact.StateInvalid, state)
	assert.Equal(t, before, p.General())
}

func TestUpdateDiagnostics_Suppressions(t *testing.T) {
	p, r := newTestProjector(t)
	writeArtifact(t, r, artifact.IssuesFile, issuesJSON)

	a := filepath.Join(r.Root(), "src/a.go")
	p.SetSuppressions([]Suppression{
		{File: a, Line: 3, Rule: "unused"},
		{File: a, Line: 9, Rule: "other-rule"},
		{File: filepath.Join(r.Root(), "src/b.go"), Line: 1},
	})

	_, err := p.UpdateDiagnostics()
	require.NoError(t, err)

	general := p.General()
	require.Len(t, general[a], 1)
	assert.Equal(t, "nilness", general[a][0].Code)
	assert.Equal(t, 1, general.Len())
}

func TestUpdateSecurityDiagnostics(t *testing.T) {
	p, r := newTestProjector(t)
	writeArtifact(t, r, artifact.FindingsFile, findingsJSON)

	state, err := p.UpdateSecurityDiagnostics()
	require.NoError(t, err)
	assert.Equal(t, artifact.StateValid, state)

	sec := p.Security()
	assert.Equal(t, 2, sec.Len())

	h := filepath.Join(r.Root(), "api/h.go")
	require.Len(t, sec[h], 2)

	high := sec[h][0]
	assert.Equal(t, LevelError, high.Level)
	assert.Equal(t, "[A03] sql_injection: query built from input", high.Message)
	assert.Equal(t, SourceSecurity, high.Source)
	require.Len(t, high.Related, 1)
	assert.Contains(t, high.Related[0].Message, "db.Query")

	low := sec[h][1]
	assert.Equal(t, LevelInformation, low.Level)
	assert.Empty(t, low.Related)

	_, hasFalsePositive := sec[filepath.Join(r.Root(), "api/x.go")]
	assert.False(t, hasFalsePositive)
}

func TestClearSecurity_LeavesGeneralUntouched(t *testing.T) {
	p, r := newTestProjector(t)
	writeArtifact(t, r, artifact.IssuesFile, issuesJSON)
	writeArtifact(t, r, artifact.FindingsFile, findingsJSON)
	_, err := p.UpdateDiagnostics()
	require.NoError(t, err)
	_, err = p.UpdateSecurityDiagnostics()
	require.NoError(t, err)
	general := p.General()

	p.ClearSecurity()

	assert.Empty(t, p.Security())
	assert.Equal(t, general, p.General())
}

func TestAccessorsReturnCopies(t *testing.T) {
	p, r := newTestProjector(t)
	writeArtifact(t, r, artifact.FindingsFile, findingsJSON)
	_, err := p.UpdateSecurityDiagnostics()
	require.NoError(t, err)

	h := filepath.Join(r.Root(), "api/h.go")
	sec := p.Security()
	sec[h][0].Message = "mutated"
	sec[h][0].Related[0].Message = "mutated"
	delete(sec, h)

	again := p.Security()
	require.Len(t, again[h], 2)
	assert.NotEqual(t, "mutated", again[h][0].Message)
	assert.NotEqual(t, "mutated", again[h][0].Related[0].Message)
}

func TestChannelFlatten(t *testing.T) {
	c := Channel{
		"/b": {{File: "/b", Range: lineRange(2)}},
		"/a": {{File: "/a", Range: lineRange(7)}, {File: "/a", Range: lineRange(1)}},
	}
	flat := c.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, "/a", flat[0].File)
	assert.Equal(t, 0, flat[0].Range.Start.Line)
	assert.Equal(t, 6, flat[1].Range.Start.Line)
	assert.Equal(t, "/b", flat[2].File)
}
