package agent

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher monitors the TOML config file via fsnotify and feeds timing
// updates into a running Replicator. Only replicate_timeout and interval are
// applied live; everything else needs a restart.
type ConfigWatcher struct {
	path string
	rep  *Replicator

	mu       sync.Mutex
	debounce *time.Timer
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, rep *Replicator) *ConfigWatcher {
	return &ConfigWatcher{path: path, rep: rep}
}

// Run watches the config file's directory until ctx is done. Editors replace
// files on save, so the directory is watched and events are filtered by name.
func (w *ConfigWatcher) Run(ctx context.Context) {
	if w.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error().Err(err).Msg("config watcher: failed to create watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		logger.Error().Err(err).Str("path", w.path).Msg("config watcher: failed to watch")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("config watcher: error")
		}
	}
}

// debounceReload coalesces the event bursts editors produce on save.
func (w *ConfigWatcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(delay, w.reload)
}

func (w *ConfigWatcher) reload() {
	fc, err := loadFileConfig(w.path)
	if err != nil {
		logger.Error().Err(err).Str("path", w.path).Msg("config watcher: reload failed")
		return
	}

	var timeout, interval time.Duration
	if fc.ReplicateTimeout != "" {
		if d, err := time.ParseDuration(fc.ReplicateTimeout); err == nil {
			timeout = d
		} else {
			logger.Error().Err(err).Msg("config watcher: bad replicate_timeout")
		}
	}
	if fc.Interval != "" {
		if d, err := time.ParseDuration(fc.Interval); err == nil {
			interval = d
		} else {
			logger.Error().Err(err).Msg("config watcher: bad interval")
		}
	}
	w.rep.UpdateTimings(timeout, interval)
}
