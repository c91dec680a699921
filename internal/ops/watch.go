package ops

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yanun0323/logs"
)

const defaultReloadCooldown = 2 * time.Second

// Watcher reloads the config file on change and invokes the callback with
// the resolved result. Reloads are rate limited by a cooldown so editors
// that write in bursts trigger one reload.
type Watcher struct {
	path     string
	cooldown time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher over the config path.
func NewWatcher(path string, cooldown time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if cooldown <= 0 {
		cooldown = defaultReloadCooldown
	}
	return &Watcher{path: path, cooldown: cooldown, watcher: fw}, nil
}

// Run watches until the context is done. Load failures are logged and the
// previous config stays in effect.
func (w *Watcher) Run(ctx context.Context, onUpdate func(Loaded)) {
	var lastReload time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if time.Since(lastReload) < w.cooldown {
				continue
			}
			loaded, err := Load(w.path)
			if err != nil {
				logs.Errorf("config reload: %+v", err)
				continue
			}
			lastReload = time.Now()
			if onUpdate != nil {
				onUpdate(loaded)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logs.Errorf("config watch: %+v", err)
		}
	}
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
