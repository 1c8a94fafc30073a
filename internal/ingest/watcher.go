package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the create/write burst of a scanner dropping a file.
const DefaultDebounce = 2 * time.Second

type WatchConfig struct {
	Root        string        // input directory; only its top level is watched
	InitialScan bool          // if true, emit the PDFs already present, in filename order
	Debounce    time.Duration // quiet period before a changed file is emitted
	Logger      *slog.Logger
}

// StartWatcher emits the path of every PDF that appears or changes under cfg.Root once
// it has been quiet for cfg.Debounce. Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		logger.Error("ingest.watch.start_failed", "error", "no root provided")
		return nil, nil, errors.New("no root provided")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	var initial []string
	if cfg.InitialScan {
		var err error
		if initial, err = ListPDFs(cfg.Root); err != nil {
			return nil, nil, err
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Root); err != nil {
		logger.Error("ingest.watch.add_failed", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, nil, err
	}
	logger.Info("ingest.watch.started", "root", cfg.Root, "initial", len(initial), "debounce", cfg.Debounce.String())

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close_failed", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		// pending maps a path to the time of its last event
		pending := map[string]time.Time{}
		ticker := time.NewTicker(cfg.Debounce / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !watchable(e) {
					continue
				}
				pending[e.Name] = time.Now()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			case now := <-ticker.C:
				for _, p := range settled(pending, now, cfg.Debounce) {
					delete(pending, p)
					if _, err := os.Stat(p); err != nil {
						// moved away again before it settled
						continue
					}
					logger.Debug("ingest.watch.emit", "path", p)
					if !emit(p) {
						return
					}
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func watchable(e fsnotify.Event) bool {
	if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
		return false
	}
	return !IsHidden(e.Name) && AllowedExt(filepath.Ext(e.Name))
}

// settled returns the pending paths quiet for at least d, in filename order.
func settled(pending map[string]time.Time, now time.Time, d time.Duration) []string {
	var out []string
	for p, last := range pending {
		if now.Sub(last) >= d {
			out = append(out, p)
		}
	}
	sortByBase(out)
	return out
}
