package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mirrorkit/photomirror/pkg/remote"
	"github.com/mirrorkit/photomirror/pkg/remote/fake"
)

func TestWatcherPublishesOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	bus := fake.NewEventBus()

	received := make(chan struct{}, 1)
	bus.Subscribe(remote.EventLocalFilesUpdated, func() {
		select {
		case received <- struct{}{}:
		default:
		}
	})

	w, err := New(bus, 0)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(dir); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "new.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a publish within timeout")
	}
}

func TestWatcherDebounceCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	bus := fake.NewEventBus()

	var count int
	done := make(chan struct{})
	bus.Subscribe(remote.EventLocalFilesUpdated, func() {
		count++
		select {
		case done <- struct{}{}:
		default:
		}
	})

	w, err := New(bus, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(dir); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a coalesced publish")
	}

	time.Sleep(150 * time.Millisecond)
	if count != 1 {
		t.Fatalf("expected exactly 1 coalesced publish, got %d", count)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	bus := fake.NewEventBus()
	w, err := New(bus, 0)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(dir); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second stop should be a no-op: %v", err)
	}
}
