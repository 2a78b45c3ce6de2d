package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/healthsync/internal/artifact"
)

type artifactEvent struct {
	name    string
	removed bool
}

type recorder struct {
	mu        sync.Mutex
	saves     []string
	artifacts []artifactEvent
}

func (r *recorder) OnSourceSaved(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, path)
}

func (r *recorder) OnArtifactChanged(name string, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts = append(r.artifacts, artifactEvent{name, removed})
}

func (r *recorder) sawSave(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.saves, path)
}

func (r *recorder) sawArtifact(want artifactEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.artifacts, want)
}

func TestClassify(t *testing.T) {
	root := "/ws"
	w := &Watcher{
		root:        root,
		artifactDir: filepath.Join(root, ".healthsync"),
		ignore:      append(slices.Clone(DefaultIgnoreDirs), "generated"),
	}

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want EventKind
	}{
		{"source write", "/ws/main.go", fsnotify.Write, EventSource},
		{"source create", "/ws/pkg/new.go", fsnotify.Create, EventSource},
		{"source chmod", "/ws/main.go", fsnotify.Chmod, EventIgnored},
		{"source remove", "/ws/main.go", fsnotify.Remove, EventIgnored},
		{"git dir", "/ws/.git/index", fsnotify.Write, EventIgnored},
		{"node_modules deep", "/ws/web/node_modules/x/y.js", fsnotify.Write, EventIgnored},
		{"extra ignore", "/ws/generated/api.go", fsnotify.Write, EventIgnored},
		{"editor swap", "/ws/.main.go.swp", fsnotify.Write, EventIgnored},
		{"outside root", "/elsewhere/main.go", fsnotify.Write, EventIgnored},
		{"health artifact", "/ws/.healthsync/health.json", fsnotify.Write, EventArtifact},
		{"findings removed", "/ws/.healthsync/security_findings.json", fsnotify.Remove, EventArtifact},
		{"findings renamed", "/ws/.healthsync/security_findings.json", fsnotify.Rename, EventArtifact},
		{"artifact chmod", "/ws/.healthsync/issues.json", fsnotify.Chmod, EventIgnored},
		{"unknown artifact dir file", "/ws/.healthsync/report.md", fsnotify.Write, EventIgnored},
		{"nested in artifact dir", "/ws/.healthsync/cache/health.json", fsnotify.Write, EventIgnored},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.Classify(fsnotify.Event{Name: tc.path, Op: tc.op}))
		})
	}
}

func TestWatcher_DeliversEvents(t *testing.T) {
	root := t.TempDir()
	artifactDir := filepath.Join(root, ".healthsync")
	require.NoError(t, os.MkdirAll(artifactDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	findings := filepath.Join(artifactDir, artifact.FindingsFile)
	require.NoError(t, os.WriteFile(findings, []byte(`{}`), 0o644))

	rec := &recorder{}
	w, err := New(root, artifactDir, rec)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	src := filepath.Join(root, "src", "main.go")
	require.NoError(t, os.WriteFile(src, []byte("package main\n"), 0o644))
	assert.Eventually(t, func() bool { return rec.sawSave(src) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(artifactDir, artifact.HealthFile), []byte(`{}`), 0o644))
	assert.Eventually(t, func() bool {
		return rec.sawArtifact(artifactEvent{artifact.HealthFile, false})
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(findings))
	assert.Eventually(t, func() bool {
		return rec.sawArtifact(artifactEvent{artifact.FindingsFile, true})
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	w, err := New(root, filepath.Join(root, ".healthsync"), rec)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dir := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(dir, 0o755))

	// The new directory is picked up asynchronously; keep writing until a
	// save inside it is observed.
	src := filepath.Join(dir, "a.go")
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(src, []byte("package pkg\n"), 0o644)
		return rec.sawSave(src)
	}, 2*time.Second, 20*time.Millisecond)
}
