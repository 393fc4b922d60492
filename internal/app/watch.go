package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settle is how long the file system must stay quiet before a re-render.
const settle = 200 * time.Millisecond

// Watch renders once, then again whenever a file in the scene's directory
// or a search directory changes, until ctx is done. Each result is passed
// to fn; render errors are reported there and do not stop watching.
func (a *App) Watch(ctx context.Context, fn func(Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dirs := append([]string{filepath.Dir(a.cfg.Scene.Path)}, a.cfg.Scene.SearchDirs...)
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	fn(a.Render(ctx))

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 || a.isOutput(event.Name) {
				continue
			}
			a.log.Debug("file changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			a.assets.Close()
			fn(a.Render(ctx))
		}
	}
}

// isOutput reports whether path is the output directory or one of our own
// renders, so writing an image does not trigger another render.
func (a *App) isOutput(path string) bool {
	out, err := filepath.Abs(a.cfg.Output.Dir)
	if err != nil {
		return false
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return false
	}
	if path == out {
		return true
	}
	return filepath.Dir(path) == out && strings.HasPrefix(filepath.Base(path), a.writer.Prefix())
}
