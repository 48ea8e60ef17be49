package panel

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a settings file when it changes and pushes the result onto
// a Queue. Editors often write a file in several steps, so events are
// debounced and the file's directory is watched rather than the file itself.
type Watcher struct {
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	queue    *Queue
	path     string
	debounce time.Duration

	done chan struct{}
	once sync.Once
}

// NewWatcher creates a watcher for path. A zero debounce uses the default.
func NewWatcher(logger *zap.Logger, path string, queue *Queue, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		logger:   logger,
		watcher:  w,
		queue:    queue,
		path:     abs,
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Reloads stop when ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("Watching settings file", zap.String("path", w.path))

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if w.shouldProcessEvent(event) {
					w.logger.Debug("Settings file changed",
						zap.String("file", event.Name),
						zap.String("op", event.Op.String()))
					debounceTimer.Reset(w.debounce)
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("Watcher error", zap.Error(err))

			case <-debounceTimer.C:
				w.reload()

			case <-ctx.Done():
				debounceTimer.Stop()
				return
			}
		}
	}()
	return nil
}

// Stop closes the underlying watcher, which ends the watch loop.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
	})
	return err
}

// Done is closed when the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		w.logger.Warn("Ignoring settings reload", zap.Error(err))
		return
	}
	w.queue.Apply(s)
	w.logger.Info("Settings reloaded", zap.String("path", w.path))
}
