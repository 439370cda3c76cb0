// File: internal/config/watch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce groups editor save bursts into one change.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes to one config file. It watches the parent
// directory so atomic rename-over saves are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	log      *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching path.
func NewWatcher(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config path %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{path: abs, debounce: debounce, watcher: fw, log: log}, nil
}

// Run calls onChange, debounced, for every write, create or rename of the
// file until ctx is done. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	defer w.watcher.Close()
	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("config file event", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			w.schedule(onChange)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, fn)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
