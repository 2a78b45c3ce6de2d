package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultArtifactDir, cfg.ArtifactDir)
	assert.Equal(t, DefaultDebounce, cfg.Debounce)
	assert.Equal(t, DefaultTimeouts, cfg.Timeouts)
	assert.Equal(t, DefaultWeights, cfg.Weights)
	assert.Equal(t, DefaultPipeline.Command, cfg.Pipeline.Command)
	assert.True(t, cfg.Notify.Desktop)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
workspace: /tmp/ws
artifact_dir: out
debounce: 500ms
pipeline:
  command: analyze
  args: [run, --all]
timeouts:
  general: 10s
weights:
  security_high: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/ws", cfg.Workspace)
	assert.Equal(t, "out", cfg.ArtifactDir)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "analyze", cfg.Pipeline.Command)
	assert.Equal(t, []string{"run", "--all"}, cfg.Pipeline.Args)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.General)
	assert.Equal(t, DefaultTimeouts.Security, cfg.Timeouts.Security)
	assert.Equal(t, 20.0, cfg.Weights.SecurityHigh)
	assert.Equal(t, DefaultWeights.LintError, cfg.Weights.LintError)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestArtifactPath(t *testing.T) {
	cfg := &Config{ArtifactDir: ".healthsync"}
	assert.Equal(t, filepath.Join("/ws", ".healthsync"), cfg.ArtifactPath("/ws"))

	cfg.ArtifactDir = "/abs/artifacts"
	assert.Equal(t, "/abs/artifacts", cfg.ArtifactPath("/ws"))
}

func TestWorkspaceRoot_Configured(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Workspace: dir}
	root, err := cfg.WorkspaceRoot()
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	assert.Equal(t, "/abs", expandPath("/abs"))
}
