// Package watch bridges local filesystem change notifications into the
// engine's remote.EventBus, so editing the export root (or whatever
// directory feeds continuous export) triggers a reconciliation run
// without polling. Grounded on
// Mschirtzinger-jj-beads/internal/turso/daemon/watcher.go's
// fsnotify.Watcher lifecycle (Start/Stop, event-loop goroutine,
// WaitGroup shutdown), generalized from two fixed directories to an
// arbitrary watch list and debounced publishing instead of a typed
// event channel.
package watch

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mirrorkit/photomirror/pkg/remote"
)

// Watcher watches a set of directories and publishes
// remote.EventLocalFilesUpdated on the bus whenever something in them
// changes, coalescing a burst of events into a single publish.
type Watcher struct {
	watcher  *fsnotify.Watcher
	bus      remote.EventBus
	debounce time.Duration

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Watcher publishing to bus. debounce coalesces a burst of
// filesystem events arriving within that window into a single publish;
// zero disables coalescing.
func New(bus remote.EventBus, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	return &Watcher{watcher: fw, bus: bus, debounce: debounce}, nil
}

// Start begins watching dirs and publishing on change. Returns an error
// if any directory cannot be watched, without leaving partial watches
// registered.
func (w *Watcher) Start(dirs ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watch: already running")
	}

	added := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			for _, a := range added {
				w.watcher.Remove(a)
			}
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
		added = append(added, dir)
	}

	w.running = true
	w.done = make(chan struct{})
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop stops watching and blocks until the event loop has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	done := w.done
	w.mu.Unlock()

	close(done)
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("watch: close: %w", err)
	}
	w.wg.Wait()
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case _, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.debounce <= 0 {
				w.bus.Publish(remote.EventLocalFilesUpdated)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timerC
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			w.bus.Publish(remote.EventLocalFilesUpdated)
			timer = nil
			timerC = nil

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// IsRunning reports whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
