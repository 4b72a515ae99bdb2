package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the project config file at path and calls onChange with
// the re-merged configuration (global + project) each time it is written or
// created. Parse failures go to onError and keep the previous settings.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(Config), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			global, err := LoadGlobal()
			if err != nil {
				report(onError, err)
				continue
			}
			project, err := loadFile(abs, false)
			if err != nil {
				report(onError, err)
				continue
			}
			onChange(Merge(global, project))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
			report(onError, err)
		}
	}
}

func report(onError func(error), err error) {
	if onError != nil {
		onError(err)
	}
}
