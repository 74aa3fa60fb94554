// Package watch reloads the collection when its backing file is modified
// by an external tool (a sync client, a manual edit).
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called after the collection file changes on disk.
type ReloadFunc func()

// Run watches the directory containing the collection file until ctx is
// cancelled. The parent directory is watched rather than the file itself
// because saves replace the file via rename. Change bursts are debounced
// before reload is called; the store's own saves also land here, which is
// harmless since reloading just-written data is idempotent.
func Run(ctx context.Context, file string, reload ReloadFunc, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(file)
	if err := w.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(file)

	logger.Info("watch: started", slog.String("file", file))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(200 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watch: stopped")
			return nil

		case <-debounceCh:
			logger.Debug("watch: collection file changed, reloading")
			reload()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: error", slog.String("error", err.Error()))
		}
	}
}
