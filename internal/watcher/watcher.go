// Package watcher observes the workspace for source saves and artifact
// changes, and delivers user-visible alerts.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/healthsync/internal/artifact"
	"github.com/blackwell-systems/healthsync/internal/logging"
)

// DefaultIgnoreDirs are directory names never treated as source.
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn", "node_modules", "vendor",
	".idea", ".vscode", "dist", "build", "__pycache__", ".venv",
}

// Handler receives classified filesystem events.
type Handler interface {
	// OnSourceSaved is called once per raw save event. Callers debounce.
	OnSourceSaved(path string)
	// OnArtifactChanged is called immediately for every artifact event.
	OnArtifactChanged(name string, removed bool)
}

// EventKind classifies a filesystem event.
type EventKind int

const (
	EventIgnored EventKind = iota
	EventSource
	EventArtifact
)

// Watcher turns fsnotify events under a workspace into Handler calls.
type Watcher struct {
	root        string
	artifactDir string
	ignore      []string
	handler     Handler
	fs          *fsnotify.Watcher
}

// New creates a watcher for root and its artifact directory. Extra
// directory names in ignore are skipped along with DefaultIgnoreDirs.
func New(root, artifactDir string, handler Handler, ignore ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w := &Watcher{
		root:        filepath.Clean(root),
		artifactDir: filepath.Clean(artifactDir),
		ignore:      append(slices.Clone(DefaultIgnoreDirs), ignore...),
		handler:     handler,
		fs:          fw,
	}
	if err := w.addTree(w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if !w.inRoot(w.artifactDir) {
		if err := w.addArtifactDir(); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run delivers events until ctx is cancelled. The watcher is closed on
// return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.dispatch(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch error", "error", err)
		}
	}
}

// Close stops the watcher without waiting for Run.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) dispatch(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			dir := filepath.Clean(ev.Name)
			if !w.inRoot(dir) && dir != w.artifactDir {
				return
			}
			if err := w.addTree(dir); err != nil {
				logging.Warn("watching new directory", "path", ev.Name, "error", err)
			}
			return
		}
	}

	switch w.Classify(ev) {
	case EventArtifact:
		removed := ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
		logging.Debug("artifact changed", "name", filepath.Base(ev.Name), "op", ev.Op.String())
		w.handler.OnArtifactChanged(filepath.Base(ev.Name), removed)
	case EventSource:
		logging.Debug("source saved", "path", ev.Name)
		w.handler.OnSourceSaved(ev.Name)
	}
}

// Classify decides whether ev is an artifact change, a source save, or
// noise. Only writes and creates count as saves; chmod never counts.
func (w *Watcher) Classify(ev fsnotify.Event) EventKind {
	path := filepath.Clean(ev.Name)

	if filepath.Dir(path) == w.artifactDir {
		if slices.Contains(artifact.Names, filepath.Base(path)) &&
			ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
			return EventArtifact
		}
		return EventIgnored
	}

	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return EventIgnored
	}
	if !w.inRoot(path) {
		return EventIgnored
	}
	if w.isIgnoredPath(path) || isEditorTemp(filepath.Base(path)) {
		return EventIgnored
	}
	return EventSource
}

func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && path != w.artifactDir && w.isIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	return nil
}

// addArtifactDir watches an artifact directory that lives outside the
// workspace. When it does not exist yet its parent is watched instead so
// its creation is seen.
func (w *Watcher) addArtifactDir() error {
	target := w.artifactDir
	if _, err := os.Stat(target); err != nil {
		target = filepath.Dir(target)
	}
	if err := w.fs.Add(target); err != nil {
		return fmt.Errorf("watching artifact dir %s: %w", target, err)
	}
	return nil
}

func (w *Watcher) inRoot(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) isIgnoredDir(name string) bool {
	return slices.Contains(w.ignore, name)
}

// isIgnoredPath reports whether any directory between root and path is
// ignored, or whether path is inside the artifact directory.
func (w *Watcher) isIgnoredPath(path string) bool {
	if w.inRoot(w.artifactDir) && strings.HasPrefix(path, w.artifactDir+string(filepath.Separator)) {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.Dir(rel), string(filepath.Separator))
	for _, p := range parts {
		if w.isIgnoredDir(p) {
			return true
		}
	}
	return false
}

func isEditorTemp(name string) bool {
	return strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".swx") ||
		strings.HasPrefix(name, ".#") ||
		name == "4913"
}
