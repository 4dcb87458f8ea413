// Package watch re-runs conversion when route files change under the search root.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"routeconv/internal/config"
	"routeconv/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Handler receives the sorted set of route files that changed during one debounce window.
// It runs on the watcher goroutine, so conversions never overlap.
type Handler func(ctx context.Context, paths []string)

// Options configures a Watcher.
type Options struct {
	Root         string
	RouteFile    string
	BackupSuffix string
	IgnoreDirs   []string
	Debounce     time.Duration
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Batches       int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Watcher watches the root and its sub-directories for route file changes.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	opts    Options
	handler Handler
	pending map[string]time.Time // path -> last event
	stats   Stats
	ready   chan struct{}
}

// New creates a Watcher. Call Run to start it.
func New(opts Options, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher: fw,
		opts:    opts,
		handler: handler,
		pending: make(map[string]time.Time),
		ready:   make(chan struct{}),
	}, nil
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Ready is closed once the initial directory tree is registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run registers the directory tree and processes events until ctx is done.
// The underlying fsnotify watcher is closed before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			logging.WatchError("close watcher: %v", err)
		}
	}()

	if err := w.addTree(w.opts.Root, false); err != nil {
		return err
	}
	close(w.ready)
	logging.Watch("watching %s for %s changes (debounce %v)", w.opts.Root, w.opts.RouteFile, w.opts.Debounce)

	tick := w.opts.Debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("watch stopped: %v", ctx.Err())
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.WatchError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case now := <-ticker.C:
			if paths := w.due(now); len(paths) > 0 {
				w.mu.Lock()
				w.stats.Batches++
				w.mu.Unlock()
				logging.WatchDebug("dispatching %d changed file(s)", len(paths))
				w.handler(ctx, paths)
			}
		}
	}
}

// addTree watches dir and every non-ignored directory below it. With markExisting set, route
// files already present are queued, covering files created before the watch was added.
func (w *Watcher) addTree(dir string, markExisting bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logging.WatchError("walk %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			if markExisting && w.isRouteFile(path) && !w.underIgnored(path) {
				w.mark(path)
			}
			return nil
		}
		if w.ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		logging.WatchDebug("watching directory %s", path)
		return nil
	})
}

// ignoredDir applies the same directory exclusions as the locator, relative to Root.
func (w *Watcher) ignoredDir(dir string) bool {
	rel, err := filepath.Rel(w.opts.Root, dir)
	if err != nil || rel == "." {
		return false
	}
	return config.MatchIgnoredDir(rel, filepath.Base(dir), w.opts.IgnoreDirs)
}

func (w *Watcher) underIgnored(path string) bool {
	return config.UnderIgnoredDir(w.opts.Root, path, w.opts.IgnoreDirs)
}

func (w *Watcher) isRouteFile(path string) bool {
	if w.opts.BackupSuffix != "" && strings.HasSuffix(path, w.opts.BackupSuffix) {
		return false
	}
	return filepath.Base(path) == w.opts.RouteFile
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.ignoredDir(event.Name) && !w.underIgnored(event.Name) {
				if err := w.addTree(event.Name, true); err != nil {
					logging.WatchError("watch new directory %s: %v", event.Name, err)
				}
			}
			return
		}
	}

	if !w.isRouteFile(event.Name) || w.underIgnored(event.Name) {
		return
	}
	logging.WatchDebug("%s event for %s", event.Op, event.Name)
	w.mark(event.Name)
}

func (w *Watcher) mark(path string) {
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = now
	w.stats.Events++
	w.stats.LastEventPath = path
	w.stats.LastEventTime = now
}

// due removes and returns the pending paths that have been quiet for the debounce window.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var paths []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			paths = append(paths, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(paths)
	return paths
}
