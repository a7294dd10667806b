package rules

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the engine whenever its rules file is written, created,
// renamed or removed, until ctx is done. The parent directory is watched so
// that editors replacing the file atomically are noticed. onReload, when set,
// receives the result of every reload.
func (e *Engine) Watch(ctx context.Context, onReload func(error)) error {
	if e.path == "" {
		return errors.New("no rules file configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create rules watcher: %w", err)
	}

	target := filepath.Clean(e.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch rules directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) {
					continue
				}
				reloadErr := e.Reload()
				if onReload != nil {
					onReload(reloadErr)
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onReload != nil {
					onReload(watchErr)
				}
			}
		}
	}()

	return nil
}
