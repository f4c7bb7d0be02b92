package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lumen/engine/core"
)

// Watcher reloads a configuration file whenever it is written. The parent
// directory is watched, editors often replace the file instead of writing it.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, err
	}

	return &Watcher{path: abs, watcher: fsWatch}, nil
}

// Run calls fn with every configuration that loads and validates after a
// change. Invalid files are logged and skipped. Run returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, fn func(*Config)) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				core.LogWarn("ignoring configuration change in %s: %s", w.path, err)
				continue
			}
			core.LogInfo("configuration reloaded from %s", w.path)
			fn(cfg)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			core.LogError("configuration watcher: %s", err)
		}
	}
}

// Watch is NewWatcher followed by Run.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	w, err := NewWatcher(path)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
