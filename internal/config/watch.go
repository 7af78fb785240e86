package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/docker-watchman/internal/logger"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. It runs until ctx is canceled.
//
// A failed reload (unreadable file, invalid YAML, invariant violation) is
// logged and the previous settings stay active; onChange is not called.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	defer func() {
		_ = watcher.Close()
	}()

	if err = watcher.Add(path); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Watching settings for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Editors often save via rename, which surfaces as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				logger.ErrorKV(ctx, "Settings reload failed, keeping previous settings", "path", path, "error", err)
				continue
			}

			logger.InfoKV(ctx, "Settings reloaded", "path", path)
			onChange(cfg)

			// An atomic save may have replaced the inode.
			_ = watcher.Add(path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorKV(ctx, "Settings watcher error", "error", err)
		}
	}
}
