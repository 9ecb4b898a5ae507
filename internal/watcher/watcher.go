// Package watcher provides file system watching utilities for detecting
// changes to input log files and triggering a re-render.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce collapses bursts of events from a single write.
const DefaultDebounce = 200 * time.Millisecond

const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher monitors a set of files and calls onChange once a burst of
// modifications settles. It watches the parent directories since editors and
// log rotation replace files rather than writing them in place.
type Watcher struct {
	targets  map[string]struct{} // Cleaned paths of watched files
	parents  []string            // Directories actually added to fsnotify
	onChange func()
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	debounce time.Duration
	done     chan struct{}
}

// New creates a new Watcher for the given files.
// The onChange callback is called after any of them is written, created,
// renamed or removed.
func New(paths []string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	targets := make(map[string]struct{}, len(paths))
	seen := make(map[string]struct{})
	var parents []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		abs = filepath.Clean(abs)
		targets[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			parents = append(parents, dir)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		targets:  targets,
		parents:  parents,
		onChange: onChange,
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period before onChange fires. It must be
// called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start adds the watches and begins delivering change events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.parents {
		if err := w.watcher.Add(dir); err != nil {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			w.cancel()
			_ = w.watcher.Close()
			return err
		}
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) isTarget(name string) bool {
	_, ok := w.targets[filepath.Clean(name)]
	return ok
}

// watchLoop is the main event loop.
func (w *Watcher) watchLoop() {
	defer close(w.done)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&changeOps == 0 || !w.isTarget(event.Name) {
				continue
			}

			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Input changed")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.fire)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) fire() {
	if w.ctx.Err() != nil {
		return
	}
	log.Info().Int("files", len(w.targets)).Msg("Triggering change callback")
	if w.onChange != nil {
		w.onChange()
	}
}
