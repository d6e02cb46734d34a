package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/mirrorkit/photomirror/pkg/fsgateway"
	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/materializer"
	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/namealloc"
	"github.com/mirrorkit/photomirror/pkg/planner"
	"github.com/mirrorkit/photomirror/pkg/remote/fake"
)

func newTestScheduler(t *testing.T) (*Scheduler, *fake.Inventory, *journal.Journal) {
	t.Helper()
	root := t.TempDir()
	gw := fsgateway.NewLocalGateway()
	j, err := journal.Open(context.Background(), gw, root)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(j.Close)

	inv := fake.NewInventory()
	alloc := namealloc.New()
	p := planner.New()
	mz := materializer.New(gw, j, alloc, inv, &fake.ExifUpdater{}, fake.LivePhotoDecoder{}, root)
	bus := fake.NewEventBus()

	s := New(inv, p, mz, j, bus, nil)
	return s, inv, j
}

func waitForIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Status().State == StateIdle {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("scheduler did not return to idle")
}

func TestTriggerRunExportsNewFile(t *testing.T) {
	s, inv, j := newTestScheduler(t)

	coll := inv.AddCollection(1, 1, "Trip")
	f := model.File{ID: 10, CollectionID: coll.ID, Title: "sunset.jpg", UpdationTime: 100}
	inv.AddFile(f, "bytes")

	if err := s.TriggerRun(context.Background()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	waitForIdle(t, s)

	uid := model.NewFileUID(f, coll.ID)
	if _, ok := j.FileRecord(uid); !ok {
		t.Fatalf("expected file to be exported")
	}
	if status := s.Status(); status.LastError != "" {
		t.Fatalf("unexpected error: %s", status.LastError)
	}
}

func TestTriggerRunIsIdempotentWhenNothingChanged(t *testing.T) {
	s, inv, _ := newTestScheduler(t)

	coll := inv.AddCollection(1, 1, "Trip")
	f := model.File{ID: 10, CollectionID: coll.ID, Title: "sunset.jpg", UpdationTime: 100}
	inv.AddFile(f, "bytes")

	if err := s.TriggerRun(context.Background()); err != nil {
		t.Fatalf("trigger 1: %v", err)
	}
	waitForIdle(t, s)

	if err := s.TriggerRun(context.Background()); err != nil {
		t.Fatalf("trigger 2: %v", err)
	}
	waitForIdle(t, s)

	if status := s.Status(); status.PendingExports != 0 {
		t.Fatalf("expected no pending exports, got %d", status.PendingExports)
	}
}

func TestStatusReportsRunID(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	if err := s.TriggerRun(context.Background()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	waitForIdle(t, s)
	if s.Status().LastRunID == "" {
		t.Fatalf("expected a run id to be recorded")
	}
}
