package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Dir    string // watched non-recursively
	Logger *slog.Logger
}

// StartWatcher emits the path of every eligible file created in cfg.Dir.
//
// The path channel is unbuffered: the watcher goroutine blocks until the
// consumer takes the next path, so files are handed over strictly one at a
// time in arrival order. Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, nil, errors.New("no directory to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Dir); err != nil {
		logger.Error("ingest.watch.add_failed", "dir", cfg.Dir, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	evCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close_error", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !e.Has(fsnotify.Create) || !Eligible(e.Name) {
					continue
				}
				logger.Debug("ingest.watch.created", "path", e.Name)
				select {
				case evCh <- e.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	logger.Info("ingest.watch.started", "dir", cfg.Dir)
	return evCh, errCh, nil
}
