package recognition

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/fubuki/internal/models"
)

// ReloadDebounce is how long the watcher waits after the last file event
// before recompiling.
const ReloadDebounce = 200 * time.Millisecond

// ReloadCallback is called after the watcher swapped in new patterns.
type ReloadCallback func(r *Recognizer)

// Watch watches the pattern files of src and recompiles them into h after
// they change, until ctx is cancelled. Directories are watched rather than
// files so editors that replace files by rename are still seen. A file set
// that fails to compile is logged and the previous patterns stay active.
func Watch(ctx context.Context, src Source, h *Holder, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	paths := src.Paths()
	watched := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, absErr := filepath.Abs(p)
		if absErr != nil {
			return absErr
		}
		watched[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if addErr := w.Add(dir); addErr != nil {
			return addErr
		}
		dirs[dir] = struct{}{}
	}

	logger.Info("patterns: watching", slog.Any("paths", paths))

	last := fingerprint(paths)
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(ReloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(ReloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("patterns: watcher stopped")
			return nil

		case <-timerCh:
			sum := fingerprint(paths)
			if sum == last {
				continue
			}
			r, buildErr := src.Build(logger)
			if buildErr != nil {
				logger.Warn("patterns: reload failed, keeping previous", slog.String("error", buildErr.Error()))
				continue
			}
			last = sum
			h.Store(r)
			c := r.Catalog()
			logger.Info("patterns: reloaded",
				slog.Int("anime", c.Len(models.CategoryAnime)),
				slog.Int("manga", c.Len(models.CategoryManga)))
			if cb != nil {
				cb(r)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, absErr := filepath.Abs(ev.Name)
			if absErr != nil {
				continue
			}
			if _, ok := watched[abs]; !ok {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("patterns: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
