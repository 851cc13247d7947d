package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hrdtools/employee-importer/constants"
)

type WatchConfig struct {
	Root        string        // hot folder to watch
	InitialScan bool          // if true, walk the root and emit existing files
	Debounce    time.Duration // coalesce rapid write bursts while a file lands
	Buffer      int           // event channel capacity; defaults to 64
}

// StartWatcher emits the path of every importable file that appears under
// the watch root. Emission is debounced so half-written files settle before
// being picked up.
func StartWatcher(ctx context.Context, cfg WatchConfig, log *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("no watch root provided")
	}

	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	evCh := make(chan string, buffer)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Root); err != nil {
		log.Error("failed to watch root directory", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	if cfg.InitialScan {
		err := filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !d.IsDir() && importable(path) {
				select {
				case evCh <- path:
				default:
					log.Warn("watch event dropped, channel full", "path", path)
				}
			}
			return nil
		})
		if err != nil {
			log.Error("initial scan failed", "root", cfg.Root, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer w.Close()

		var timer *time.Timer
		pending := map[string]struct{}{}

		sendPending := func() {
			for p := range pending {
				select {
				case evCh <- p:
				default:
					log.Warn("watch event dropped, channel full", "path", p)
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e := <-w.Events:
				if !importable(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(cfg.Debounce, sendPending)
				} else {
					sendPending()
				}
			case err := <-w.Errors:
				log.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// RunWatcher consumes watcher events and submits each file through the
// intake. Best effort: a file that fails to submit is logged and skipped.
func RunWatcher(ctx context.Context, cfg WatchConfig, intake *Intake, log *slog.Logger) error {
	evCh, errCh, err := StartWatcher(ctx, cfg, log)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-evCh:
			if !ok {
				return nil
			}
			job, err := intake.AcceptPath(ctx, path)
			if err != nil {
				log.Error("failed to import watched file", "path", path, "error", err)
				continue
			}
			log.Info("watched file submitted", "path", path, "job_id", job.ID)
		case err, ok := <-errCh:
			if ok && err != nil {
				log.Warn("watcher reported error", "error", err)
			}
		}
	}
}

func importable(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	_, ok := constants.AllowedExtensions[ext]
	return ok
}
