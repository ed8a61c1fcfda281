package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the database whenever the file is changed by another
// process, until ctx is canceled. onReload, if not nil, is called after each
// reload attempt that found new content or failed.
// The parent directory is watched so a file replaced by rename is still seen.
func (s *Store) Watch(ctx context.Context, onReload func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				changed, err := s.Reload(ctx)
				if err != nil {
					slog.WarnContext(ctx, "Failed to reload database", "path", s.path, "err", err)
				}
				if onReload != nil && (changed || err != nil) {
					onReload(err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching database", "err", err)
			}
		}
	}()
	return nil
}
