package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/brewsignal/brewsignal/log"
)

// watchDebounce coalesces the bursts of events editors and atomic-rename
// writers produce into a single reload.
const watchDebounce = 250 * time.Millisecond

// Watch watches the given config files for changes and calls fn with the
// freshly loaded config after each change. Watching stops when ctx is
// canceled. The parent directories are watched rather than the files
// themselves so replace-by-rename writes keep being observed.
func Watch(ctx context.Context, fn func(*Config), file ...string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dirs := make(map[string]struct{}, len(file))
	names := make(map[string]struct{}, len(file))
	for _, f := range file {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()
			return err
		}
		dirs[filepath.Dir(abs)] = struct{}{}
		names[abs] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return err
		}
	}

	go func() {
		defer w.Close()
		var (
			timer   *time.Timer
			timerCh <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				abs, _ := filepath.Abs(event.Name)
				if _, ok := names[abs]; !ok {
					break
				}
				if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
					break
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
					timerCh = timer.C
				} else {
					timer.Reset(watchDebounce)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("Config watcher error", "err", err)
			case <-timerCh:
				cfg, err := Load(file...)
				if err != nil {
					log.Error("Unable to reload config", err)
					break
				}
				log.Info("Config reloaded", "path", file)
				fn(cfg)
			}
		}
	}()

	return nil
}
