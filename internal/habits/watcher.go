package habits

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the custom habits file into the registry whenever it changes
// on disk, until ctx is cancelled. Reload failures are logged and the
// previous definitions stay active.
//
// The parent directory is watched rather than the file itself because many
// editors replace files on save, which drops a watch placed on the path.
func Watch(ctx context.Context, reg *Registry, path string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("habits: watching for changes", slog.String("file", abs))

	// Debounce rapid write bursts from editors.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("habits: watcher stopped")
			return nil

		case <-reloadCh:
			if err := reg.MergeFile(abs); err != nil {
				logger.Warn("habits: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("habits: definitions reloaded", slog.String("file", abs))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("habits: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
