// Package watch reports collection files edited outside the running server.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ceylonix/internal/store"
)

// EventCollectionChanged is emitted once per debounce window for each changed collection.
const EventCollectionChanged = "collection.changed"

// ChangeFunc receives the name of a collection whose file changed.
type ChangeFunc func(collection string)

// Options configures Watch.
type Options struct {
	Dir      string
	Debounce time.Duration
	// Ignore drops changes the process made itself. Optional.
	Ignore func(collection string) bool
	Logger *slog.Logger
}

// Watch runs an fsnotify watcher on the data directory until ctx is cancelled.
// Changes are grouped per collection and delivered after Debounce of quiet.
func Watch(ctx context.Context, opts Options, cb ChangeFunc) error {
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(opts.Dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", opts.Dir))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			for name := range pending {
				if opts.Ignore != nil && opts.Ignore(name) {
					logger.Debug("watcher: skipping own write", slog.String("collection", name))
				} else if cb != nil {
					cb(name)
				}
				delete(pending, name)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := store.CollectionName(ev.Name)
			if name == "" {
				continue
			}
			pending[name] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
