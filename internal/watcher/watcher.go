// Package watcher reports changes to ingested log files.
package watcher

import (
	"context"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Event represents a file change detected by the watcher.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors files for changes using OS-level notifications.
type Watcher struct {
	fsw    *fsnotify.Watcher
	log    *zap.Logger
	Events chan Event
	paths  []string
}

// New creates a Watcher for the given glob patterns. Patterns are expanded
// once; files that cannot be watched are logged and skipped.
func New(patterns []string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}

	w := &Watcher{
		fsw:    fsw,
		log:    log.Named("watcher"),
		Events: make(chan Event, 256),
	}

	for _, pattern := range patterns {
		matches, err := expandGlob(pattern)
		if err != nil {
			w.log.Warn("cannot expand pattern", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				abs = m
			}
			if err := fsw.Add(abs); err != nil {
				w.log.Warn("cannot watch file", zap.String("path", abs), zap.Error(err))
				continue
			}
			w.paths = append(w.paths, abs)
		}
	}

	return w, nil
}

// Start forwards write, create, remove and rename events until ctx is
// cancelled. Events is closed on return.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&relevant == 0 {
				continue
			}
			select {
			case w.Events <- Event{Path: ev.Name, Op: ev.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
		}
	}
}

// Paths returns the files being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

// Count returns the number of watched files.
func (w *Watcher) Count() int {
	return len(w.paths)
}

// ReWatch adds a path back to the watcher after rotation.
func (w *Watcher) ReWatch(path string) error {
	return errors.Wrapf(w.fsw.Add(path), "rewatch %s", path)
}

// expandGlob resolves recursive patterns like /var/log/**/*.log.
func expandGlob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}
