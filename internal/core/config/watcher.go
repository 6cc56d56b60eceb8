package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file when it changes on disk.
type Watcher struct {
	path     string
	callback func(*Config)
	logger   *slog.Logger
	debounce time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewWatcher(path string, callback func(*Config), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		callback: callback,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stop:     make(chan struct{}),
	}
}

// Start begins watching the configuration file.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Atomic saves replace the file, so watch the directory.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer watcher.Close()

		w.logger.Info("watching config", "path", w.path)

		var timer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(w.debounce, w.reload)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("config watcher error", "error", err)

			case <-w.stop:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			}
		}
	}()

	return nil
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Watcher) reload() {
	w.logger.Info("config changed, reloading", "path", w.path)
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("reload config", "path", w.path, "error", err)
		return
	}
	if w.callback != nil {
		w.callback(cfg)
	}
}
