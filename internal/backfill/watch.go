package backfill

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay batches bursts of events, such as an export being written
// in several chunks, into one run.
const settleDelay = 500 * time.Millisecond

// Watch runs the backfill once, then again whenever conversation files are
// created or written under the input directory, until ctx is done.
func (r *Runner) Watch(ctx context.Context) error {
	if r.cfg.Dir == "" {
		return fmt.Errorf("watch requires an input directory")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	root := expandHome(r.cfg.Dir)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	if _, err := r.Run(ctx); err != nil {
		return err
	}
	r.logger.Info("watching for conversation exports", "dir", root)

	timer := time.NewTimer(settleDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if isDir(ev.Name) {
					if err := watcher.Add(ev.Name); err != nil {
						r.logger.Warn("failed to watch new directory", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if format, _ := fileKind(ev.Name); format == "" {
				continue
			}
			timer.Reset(settleDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)
		case <-timer.C:
			if _, err := r.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("backfill run failed", "error", err)
			}
		}
	}
}
