package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher triggers a reload when any of the watched files changes. Bursts of
// events are collapsed into one reload per debounce window.
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	reload   func(ctx context.Context) error
	logger   *zap.Logger

	// reloadMu serializes reloads so a slow rebuild never overlaps a newer one.
	reloadMu sync.Mutex

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// NewWatcher creates a watcher over files. The parent directories are watched so
// that replace-by-rename updates are seen. debounce <= 0 selects the default.
func NewWatcher(files []string, debounce time.Duration, reload func(ctx context.Context) error, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	w := &Watcher{
		files:    make(map[string]struct{}, len(files)),
		debounce: debounce,
		reload:   reload,
		logger:   logger,
		done:     make(chan struct{}),
	}
	seenDir := make(map[string]struct{})
	for _, f := range files {
		clean := filepath.Clean(f)
		w.files[clean] = struct{}{}
		dir := filepath.Dir(clean)
		if _, ok := seenDir[dir]; !ok {
			seenDir[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.fsw = fsw
	w.started = true
	w.logger.Info("Snapshot watcher started", zap.Strings("dirs", w.dirs))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Snapshot watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if _, ok := w.files[filepath.Clean(ev.Name)]; !ok {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	w.logger.Debug("Snapshot source changed", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.runReload(ctx) })
}

// runReload reads the sources at the time it acquires reloadMu, so the last
// reload to finish always reflects the newest files.
func (w *Watcher) runReload(ctx context.Context) {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if err := w.reload(ctx); err != nil {
		w.logger.Warn("Snapshot reload skipped, keeping previous", zap.Error(err))
	}
}

// Stop stops watching and cancels a pending reload.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
