package doctor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mergelytics/internal/layout"
)

// Watcher watches a provisioned workspace and re-checks skeleton entries
// as they change on disk. With repair enabled it restores drifted or
// deleted entries after events settle.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	workspace   string
	repair      bool
	logger      *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for status output and tests.
type WatcherStats struct {
	EventsSeen       int
	ChecksTriggered  int
	RepairsTriggered int
	Errors           int
	LastEventTime    time.Time
	LastEventPath    string
	LastEventOp      string
}

// NewWatcher creates a watcher for the given workspace. A zero debounce
// falls back to 500ms.
func NewWatcher(workspace string, debounce time.Duration, repair bool, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     fsw,
		workspace:   workspace,
		repair:      repair,
		logger:      logger,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start registers the skeleton directories and begins watching. It is
// non-blocking; events are handled in a goroutine until Stop or context
// cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if _, err := os.Stat(w.workspace); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		// A failed start releases the inotify handle; the watcher is
		// single-use.
		w.watcher.Close()
		return err
	}

	for _, dir := range layout.WatchDirs(w.workspace) {
		if err := w.watcher.Add(dir); err != nil {
			// Directory may be missing; a repair can bring it back and
			// re-register it.
			w.logger.Warn("watch failed", zap.String("dir", dir), zap.Error(err))
			continue
		}
	}
	w.logger.Info("watching workspace", zap.String("workspace", w.workspace))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("failed to close watcher", zap.Error(err))
	}
}

// run is the main event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processSettled(ctx)
		}
	}
}

// handleEvent records an event for a skeleton entry; everything else is
// ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.skeletonPath(event.Name)
	if !ok {
		return
	}

	var op string
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "write"
	case event.Op&fsnotify.Remove != 0:
		op = "remove"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	default:
		return // ignore chmod
	}

	w.logger.Debug("event", zap.String("op", op), zap.String("path", rel))

	w.mu.Lock()
	w.stats.EventsSeen++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = rel
	w.stats.LastEventOp = op
	w.debounceMap[rel] = time.Now()
	w.mu.Unlock()
}

// skeletonPath maps an absolute event path to a manifest path, or
// reports false when the event concerns something outside the skeleton.
func (w *Watcher) skeletonPath(name string) (string, bool) {
	rel, err := filepath.Rel(w.workspace, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	if _, ok := layout.Lookup(rel); !ok {
		return "", false
	}
	return rel, true
}

// processSettled checks entries whose events settled past the debounce
// window.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	toCheck := make([]string, 0)
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			toCheck = append(toCheck, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, rel := range toCheck {
		if ctx.Err() != nil {
			return
		}
		w.verifyEntry(rel)
	}
}

// verifyEntry re-checks one skeleton entry and repairs it when enabled.
func (w *Watcher) verifyEntry(rel string) {
	entry, ok := layout.Lookup(rel)
	if !ok {
		return
	}

	w.mu.Lock()
	w.stats.ChecksTriggered++
	w.mu.Unlock()

	found := checkEntry(w.workspace, entry)
	if found.State == StateIntact {
		return
	}

	w.logger.Warn("skeleton entry degraded",
		zap.String("path", rel),
		zap.String("state", string(found.State)),
		zap.String("detail", found.Detail))

	if !w.repair || found.State == StateConflict {
		return
	}

	if err := repairEntry(w.workspace, found); err != nil {
		w.logger.Error("repair failed", zap.String("path", rel), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.stats.RepairsTriggered++
	w.mu.Unlock()
	w.logger.Info("repaired entry", zap.String("path", rel))

	// A recreated directory needs its watch back.
	if entry.Kind == layout.KindDir {
		if err := w.watcher.Add(layout.Abs(w.workspace, rel)); err != nil {
			w.logger.Warn("re-watch failed", zap.String("path", rel), zap.Error(err))
		}
	}
}

// GetStats returns a copy of the current watcher statistics.
func (w *Watcher) GetStats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
