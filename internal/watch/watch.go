// Package watch re-runs generation when schema files change.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
	"git.home.luguber.info/inful/protogen/internal/logfields"
)

// DefaultDebounce is the quiet window after the last schema event before a run starts.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc performs one generation pass. Its errors are logged and watching continues.
type RunFunc func(ctx context.Context) error

// Watcher monitors schema directories and triggers debounced runs.
type Watcher struct {
	dirs     []string
	ext      string
	run      RunFunc
	debounce time.Duration
	logger   *slog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

// New creates a watcher over dirs for files with extension ext (for example ".proto").
func New(dirs []string, ext string, run RunFunc) (*Watcher, error) {
	if len(dirs) == 0 {
		return nil, derrors.ValidationError("no directories to watch").Build()
	}
	if run == nil {
		return nil, derrors.InternalError("watch run function is required").Build()
	}
	abs := make([]string, 0, len(dirs))
	seen := map[string]bool{}
	for _, d := range dirs {
		p, err := filepath.Abs(d)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to resolve watch directory").
				Fatal().WithPath(d).Build()
		}
		if !seen[p] {
			seen[p] = true
			abs = append(abs, p)
		}
	}
	sort.Strings(abs)
	return &Watcher{
		dirs:     abs,
		ext:      ext,
		run:      run,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		ready:    make(chan struct{}),
	}, nil
}

// WithDebounce overrides the quiet window.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// WithLogger sets the logger.
func (w *Watcher) WithLogger(l *slog.Logger) *Watcher {
	if l != nil {
		w.logger = l
	}
	return w
}

// Ready is closed once the directories are being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run performs an initial pass, then re-runs after every burst of matching events until ctx
// is canceled. Runs never overlap; events arriving during a run schedule one more.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create file watcher").Fatal().Build()
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			w.logger.Debug("Error closing file watcher", logfields.Error(cerr))
		}
	}()

	for _, d := range w.dirs {
		if err := fw.Add(d); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to watch directory").
				Fatal().WithPath(d).Build()
		}
	}
	w.logger.Info("Watching schema directories", slog.Int("count", len(w.dirs)))

	w.pass(ctx, "initial")
	w.readyOnce.Do(func() { close(w.ready) })

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Schema change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
			if !timer.Stop() && timerC != nil {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.pass(ctx, "change")
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != w.ext {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *Watcher) pass(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.run(ctx); err != nil {
		w.logger.Error("Generation failed", slog.String("reason", reason), logfields.Error(err))
		return
	}
	w.logger.Info("Generation finished", slog.String("reason", reason),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}
