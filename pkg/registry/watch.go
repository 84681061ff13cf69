package registry

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch calls onChange whenever the file at path is written or created. A file renamed into
// place arrives as a Create; moving the file away is ignored. The parent directory is watched because editors and config management usually replace
// files instead of writing them in place. Watch returns once the watcher is running; it
// stops when ctx is done.
func Watch(ctx context.Context, path string, logger *logrus.Logger, onChange func()) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
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
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				logger.Infof("Registry file %s changed (%s), invalidating caches", path, event.Op)
				onChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("Registry file watcher error")
			}
		}
	}()

	return nil
}
