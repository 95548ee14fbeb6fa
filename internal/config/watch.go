package config

import (
	"context"
	"path/filepath"

	"github.com/hyperjump/askme/internal/watcher"
	"go.uber.org/zap"
)

// Watch reloads the config file at path whenever it changes and passes the new config to
// onReload. Invalid files are logged and skipped, so the last good config stays active.
func Watch(ctx context.Context, path string, onReload func(*Config), logger *zap.Logger) (*watcher.Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := watcher.New(
		[]string{filepath.Dir(abs)},
		func(ev watcher.Event) {
			if ev.Op == watcher.OpRemoved {
				logger.Warn("config file removed, keeping current config", zap.String("path", abs))
				return
			}
			cfg, err := Load(abs)
			if err != nil {
				logger.Error("config reload failed", zap.String("path", abs), zap.Error(err))
				return
			}
			logger.Info("config reloaded", zap.String("path", abs))
			onReload(cfg)
		},
		watcher.WithRecursive(false),
		watcher.WithFilter(func(p string) bool { return p == abs }),
		watcher.WithLogger(logger),
	)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
