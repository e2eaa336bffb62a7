package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 250 * time.Millisecond

// Watch recompiles whenever the snapshot file changes and hands each
// result to onResult. It blocks until the context is cancelled. The
// snapshot's directory is watched rather than the file itself, since
// editors typically replace the file on save.
func (e *Engine) Watch(ctx context.Context, onResult func(*Result)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	snapshot, err := filepath.Abs(e.cfg.SnapshotPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(snapshot)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(snapshot), err)
	}

	e.logger.Info("watching snapshot", "path", snapshot)

	// Compile once up front so the author sees the current state.
	if res, err := e.Check(); err != nil {
		e.logger.Error("initial compile failed", "error", err)
	} else {
		onResult(res)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != snapshot {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			res, err := e.Check()
			if err != nil {
				e.logger.Error("compile failed", "error", err)
				continue
			}
			onResult(res)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watch error", "error", err)
		}
	}
}
