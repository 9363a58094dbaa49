package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/fsutil"
)

// Watch checks the inputs, then checks them again whenever one of them is
// written, until ctx is done. Check results are reported as they happen and
// never end the watch.
func (a *App) Watch(ctx context.Context, args []string) error {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	paths, err := fsutil.Expand(args)
	if err != nil {
		return &InputError{Err: err}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return &InputError{Path: p, Err: err}
		}
		watched[abs] = true
		// Editors often replace files, so the directory is watched rather
		// than the file itself.
		if dir := filepath.Dir(abs); !dirs[dir] {
			dirs[dir] = true
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
	}
	logger.Info("Watching inputs.", "files", len(paths), "dirs", len(dirs))

	a.recheck(ctx, paths)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watch stopped.")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !watched[abs] {
				continue
			}
			logger.Debug("Input changed.", "path", ev.Name, "op", ev.Op.String())
			a.recheck(ctx, paths)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error.", "error", err)
		}
	}
}

func (a *App) recheck(ctx context.Context, paths []string) {
	if err := a.Check(ctx, paths); err != nil {
		a.Report(a.errW, err)
	}
}
