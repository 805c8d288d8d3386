package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchConfig watches the config file and calls apply with the reloaded,
// validated Config after every write. The parent directory is watched so
// editors that replace the file by rename are still seen. Invalid reloads
// are logged and skipped. It blocks until ctx is done.
func (c *Configer) WatchConfig(ctx context.Context, logger *zap.Logger, apply func(*Config)) error {
	if c.targetPath == "" {
		return errors.New("cannot watch empty target path")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(c.targetPath)); err != nil {
		return fmt.Errorf("watching config dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != c.targetPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := c.LoadConfig()
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				logger.Warn("ignoring invalid config reload",
					zap.String("path", c.targetPath),
					zap.Error(err),
				)
				continue
			}

			logger.Info("config reloaded", zap.String("path", c.targetPath))
			apply(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("config watcher error: %w", err)
		}
	}
}
