package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the watcher waits for a burst of events (package managers
// install many files at once) before notifying.
const settle = 250 * time.Millisecond

// Watcher reports changes to application directories and the rc file.
type Watcher struct {
	watcher *fsnotify.Watcher
	rcPath  string
	logger  *slog.Logger
}

// NewWatcher watches every existing application directory plus the directory holding
// the rc file. Directories that do not exist are skipped.
func NewWatcher(cfg *Config, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{watcher: watcher, rcPath: cfg.RCPath(), logger: logger}
	for _, dir := range append(cfg.ApplicationDirs(), filepath.Dir(w.rcPath)) {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.Debug("cannot watch directory", "dir", dir, "err", err)
		}
	}

	return w, nil
}

// Run blocks until ctx is done, calling notify after each settled burst of
// relevant events. rcChanged is true when the rc file was part of the burst.
func (w *Watcher) Run(ctx context.Context, notify func(rcChanged bool)) {
	var (
		timer     <-chan time.Time
		pending   bool
		rcChanged bool
	)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("watch event", "name", event.Name, "op", event.Op.String())
			if event.Name == w.rcPath {
				rcChanged = true
			}
			pending = true
			timer = time.After(settle)
		case <-timer:
			if pending {
				notify(rcChanged)
			}
			pending, rcChanged, timer = false, false, nil
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return event.Name == w.rcPath || strings.HasSuffix(event.Name, ".desktop")
}
