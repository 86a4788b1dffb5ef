// Package watch re-runs lockfile synchronization when package manifests
// change. Intended for local development; releases run the engine once.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/locksync/internal/logfields"
)

// manifestName is the file whose writes trigger a re-sync.
const manifestName = "package.json"

// Watcher monitors package directories and invokes a callback after manifest
// changes, debounced so editor save bursts trigger one sync.
type Watcher struct {
	dirs     []string
	onChange func(ctx context.Context) error
	watcher  *fsnotify.Watcher
	debounce time.Duration
	stopChan chan struct{}
}

// New creates a watcher over the given package directories.
func New(dirs []string, onChange func(ctx context.Context) error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		dirs:     dirs,
		onChange: onChange,
		watcher:  fsw,
		debounce: 2 * time.Second, // Debounce rapid file changes
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins monitoring and blocks until the context is cancelled or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	slog.Info("Watching package manifests", logfields.Count(len(w.dirs)))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopChan:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != manifestName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			slog.Debug("Manifest changed", logfields.Path(event.Name))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.onChange(ctx); err != nil {
				slog.Error("Sync after manifest change failed", logfields.Error(err))
			}
		}
	}
}

// Stop ends monitoring and releases the underlying watcher.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	return w.watcher.Close()
}
