package service

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/doccatalog/internal/gitsource"
	"git.home.luguber.info/inful/doccatalog/internal/logfields"
)

// Watcher reruns the pipeline when local source trees change and on a fixed
// resync interval that picks up remote changes.
type Watcher struct {
	svc      *Service
	debounce time.Duration
	resync   time.Duration
	onRun    func(*Result, error)
}

// NewWatcher creates a watcher around svc. resync of zero disables periodic
// resync; onRun is invoked after every completed run, including failures.
func NewWatcher(svc *Service, resync time.Duration, onRun func(*Result, error)) *Watcher {
	return &Watcher{svc: svc, debounce: 500 * time.Millisecond, resync: resync, onRun: onRun}
}

// Watch runs once immediately, then blocks until ctx is cancelled, rerunning
// on debounced filesystem changes and on the resync schedule. A failed rerun
// is reported through onRun and does not stop watching.
func (w *Watcher) Watch(ctx context.Context) error {
	w.run(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fnderrors.ResourceError("failed to create filesystem watcher").WithCause(err).Build()
	}
	defer func() { _ = fsw.Close() }()

	watched := 0
	for _, src := range w.svc.cfg.Content.Sources {
		if !gitsource.IsLocal(src.URL) {
			continue
		}
		root, err := filepath.Abs(src.URL)
		if err != nil {
			continue
		}
		if src.StartPath != "" {
			root = filepath.Join(root, filepath.FromSlash(src.StartPath))
		}
		n, err := watchRecursive(fsw, root)
		if err != nil {
			slog.Warn("Failed to watch local source", logfields.URL(src.URL), logfields.Error(err))
			continue
		}
		watched += n
	}
	slog.Info("Watching for changes", slog.Int("directories", watched),
		slog.Duration("resync", w.resync))

	trigger := make(chan struct{}, 1)
	var scheduler gocron.Scheduler
	if w.resync > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			return fnderrors.ResourceError("failed to create resync scheduler").WithCause(err).Build()
		}
		_, err = scheduler.NewJob(gocron.DurationJob(w.resync), gocron.NewTask(func() {
			select {
			case trigger <- struct{}{}:
			default:
			}
		}))
		if err != nil {
			return fnderrors.ResourceError("failed to schedule resync job").WithCause(err).Build()
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
	}

	var debounce *time.Timer
	var debounceC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ignoreEvent(ev) {
				continue
			}
			// New directories join the watch set so nested changes are seen.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_, _ = watchRecursive(fsw, ev.Name)
				}
			}
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
				debounceC = debounce.C
			} else {
				debounce.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Filesystem watch error", logfields.Error(err))

		case <-debounceC:
			debounce = nil
			debounceC = nil
			slog.Debug("Change detected, rerunning")
			w.run(ctx)

		case <-trigger:
			slog.Debug("Resync interval elapsed, rerunning")
			w.run(ctx)
		}
	}
}

func (w *Watcher) run(ctx context.Context) {
	result, err := w.svc.Run(ctx)
	if err != nil {
		slog.Error("Run failed", logfields.Error(err))
	}
	if w.onRun != nil {
		w.onRun(result, err)
	}
}

// watchRecursive adds root and every non-hidden directory below it.
func watchRecursive(fsw *fsnotify.Watcher, root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != root && (name == ".git" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func ignoreEvent(ev fsnotify.Event) bool {
	if ev.Op.Has(fsnotify.Chmod) {
		return true
	}
	base := filepath.Base(ev.Name)
	return strings.HasPrefix(base, ".") || strings.Contains(ev.Name, string(filepath.Separator)+".git"+string(filepath.Separator))
}
