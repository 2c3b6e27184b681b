package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/acquire/internal/logger"
)

// WatchLogLevel watches configPath for writes and re-applies logging.level
// to the running logger on every change, without restarting the daemon.
// Runs until stop is closed; callers should launch it in its own goroutine.
func WatchLogLevel(configPath string, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(configPath); err != nil {
		return err
	}

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reloadLogLevel(configPath)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config: watcher error", "error", err)
		}
	}
}

func reloadLogLevel(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		logger.Warn("config: reload failed, keeping current log level", "error", err)
		return
	}
	logger.SetLevel(cfg.Logging.Level)
	logger.Info("config: log level reloaded", "level", cfg.Logging.Level)
}
