// Package watcher reruns analysis when project sources change.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"tsresolve/internal/core/errors"
	"tsresolve/internal/shared/observability"
	"tsresolve/internal/shared/util"
)

// Filter decides which paths the watcher cares about.
type Filter interface {
	// Relevant reports whether a changed file can affect results.
	Relevant(path string) bool
	// ExcludesDir reports whether a directory base name is skipped.
	ExcludesDir(base string) bool
}

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	filter    Filter
	limiter   *util.Limiter
	logger    *slog.Logger
	onChange  func([]string)

	callbackMu sync.Mutex

	pending   map[string]time.Time
	hashes    map[string]uint64
	pendingMu sync.Mutex
	timer     *time.Timer
	closed    bool
}

func NewWatcher(debounce time.Duration, filter Filter, onChange func([]string)) (*Watcher, error) {
	if onChange == nil || filter == nil {
		return nil, errors.New(errors.CodeValidationError, "watcher needs a filter and a change callback")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create fsnotify watcher")
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		filter:    filter,
		logger:    slog.Default(),
		onChange:  onChange,
		pending:   make(map[string]time.Time),
		hashes:    make(map[string]uint64),
	}, nil
}

func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// SetRateLimit caps how often the change callback runs. Changes that arrive
// while the budget is spent stay pending until the next debounce window.
func (w *Watcher) SetRateLimit(runsPerSecond float64) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if runsPerSecond <= 0 {
		w.limiter = nil
		return
	}
	if w.limiter != nil {
		w.limiter.SetLimit(runsPerSecond)
		return
	}
	w.limiter = util.NewLimiter(runsPerSecond, 1)
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path, false); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "watch directory"), errors.CtxPath, path)
		}
	}

	go w.run()
	return nil
}

// watchRecursive adds every directory under root. With enqueue set, the
// files found are scheduled as changes; otherwise only their hashes are
// recorded.
func (w *Watcher) watchRecursive(root string, enqueue bool) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && w.filter.ExcludesDir(d.Name()) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		if !w.filter.Relevant(path) {
			return nil
		}
		if enqueue {
			w.scheduleChange(path)
		} else {
			w.changed(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Has(fsnotify.Create) {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.filter.ExcludesDir(filepath.Base(event.Name)) {
						if err := w.watchRecursive(event.Name, true); err != nil {
							w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if !w.filter.Relevant(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// changed records the content hash of path and reports whether it differs
// from the last one seen. Unreadable files are forgotten and count as
// changed.
func (w *Watcher) changed(path string) bool {
	data, err := os.ReadFile(path)

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if err != nil {
		delete(w.hashes, path)
		return true
	}
	sum := xxhash.Sum64(data)
	prev, ok := w.hashes[path]
	w.hashes[path] = sum
	return !ok || prev != sum
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()
	w.armLocked()
}

func (w *Watcher) armLocked() {
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	if w.limiter != nil && !w.limiter.Allow(1) {
		w.logger.Debug("change batch deferred by rate limit", "pending", len(w.pending))
		w.armLocked()
		w.pendingMu.Unlock()
		return
	}
	pending := util.SortedStringKeys(w.pending)
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	// Hashing at flush time sees the settled content of each file.
	paths := pending[:0]
	for _, p := range pending {
		if w.changed(p) {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return
	}

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
