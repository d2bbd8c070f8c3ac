// Package watcher notices external rewrites of the corpus file and triggers a
// reload rebuild. The corpus is replaced via temp file and rename, so the
// watch is on the parent directory and events are filtered by name.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the event burst a single rewrite produces.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is invoked after a debounced change to the corpus file.
type ReloadFunc func(ctx context.Context) error

// Watcher watches one corpus file for external changes.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc

	fs *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// New creates a watcher for the corpus file at path. debounce <= 0 uses
// DefaultDebounce.
func New(path string, debounce time.Duration, reload ReloadFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		reload:   reload,
		fs:       fs,
	}, nil
}

// Start begins watching. It returns immediately; events are handled on a
// background goroutine until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.run(ctx)
	return nil
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ctx)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("corpus_watch_error", slog.String("error", err.Error()))
		}
	}
}

// schedule resets the debounce timer; the reload fires once the burst of
// events from a rewrite has settled.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		slog.Info("corpus_changed_reloading", slog.String("path", w.path))
		if err := w.reload(ctx); err != nil {
			slog.Warn("corpus_reload_failed",
				slog.String("path", w.path),
				slog.String("error", err.Error()))
		}
	})
}
