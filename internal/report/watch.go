package report

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor or generator
// produces while rewriting a report.
const DefaultDebounce = 200 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	logger *zap.Logger
}

func WithWatchLogger(logger *zap.Logger) WatchOption {
	return func(o *watchOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Watch calls notify after path has been written, created or renamed into
// place, at most once per debounce window. It watches the containing
// directory so atomic replacements are seen. Watch blocks until ctx is
// done and returns nil in that case.
func Watch(ctx context.Context, path string, debounce time.Duration, notify func(), opts ...WatchOption) error {
	options := watchOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("report: watch: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("report: watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			if ctx.Err() == nil {
				notify()
			}
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	target := filepath.Base(abs)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				options.logger.Warn("report removed", zap.String("path", abs))
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				options.logger.Debug("report changed", zap.String("path", abs), zap.String("op", event.Op.String()))
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			options.logger.Warn("watch error", zap.Error(err))
		}
	}
}
