// Package integration exercises the full scheduler -> planner ->
// materializer -> journal pipeline end to end against a real temporary
// filesystem and an in-memory remote.Inventory, the way the teacher's own
// own-process fixtures exercised the sync engine without a network mock.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mirrorkit/photomirror/pkg/fsgateway"
	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/materializer"
	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/namealloc"
	"github.com/mirrorkit/photomirror/pkg/planner"
	"github.com/mirrorkit/photomirror/pkg/remote/fake"
	"github.com/mirrorkit/photomirror/pkg/scheduler"
)

type harness struct {
	root  string
	gw    fsgateway.FsGateway
	j     *journal.Journal
	inv   *fake.Inventory
	sched *scheduler.Scheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	gw := fsgateway.NewLocalGateway()

	j, err := journal.Open(context.Background(), gw, root)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(j.Close)

	alloc := namealloc.New()
	inv := fake.NewInventory()
	mz := materializer.New(gw, j, alloc, inv, &fake.ExifUpdater{}, fake.LivePhotoDecoder{}, root)
	bus := fake.NewEventBus()
	sched := scheduler.New(inv, planner.New(), mz, j, bus, nil)

	return &harness{root: root, gw: gw, j: j, inv: inv, sched: sched}
}

func (h *harness) runAndWait(t *testing.T) {
	t.Helper()
	if err := h.sched.TriggerRun(context.Background()); err != nil {
		t.Fatalf("trigger run: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.sched.Status().State == scheduler.StateIdle {
			if errStr := h.sched.Status().LastError; errStr != "" {
				t.Fatalf("run failed: %s", errStr)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("scheduler never returned to idle")
}

func TestFullReconciliationLifecycle(t *testing.T) {
	h := newHarness(t)

	// First run: one plain image and one live photo land in a new
	// collection directory.
	coll := h.inv.AddCollection(1, 1, "Trip 2024")
	still := model.File{ID: 10, CollectionID: coll.ID, Type: model.FileTypeImage, Title: "sunset.jpg", UpdationTime: 100}
	live := model.File{ID: 11, CollectionID: coll.ID, Type: model.FileTypeLivePhoto, Title: "portrait", UpdationTime: 100}
	h.inv.AddFile(still, "sunset-bytes")
	h.inv.AddFile(live, "img-bytes"+fake.LiveSeparator+"vid-bytes")

	h.runAndWait(t)

	collDir := filepath.Join(h.root, "Trip 2024")
	assertFileContains(t, filepath.Join(collDir, "sunset.jpg"), "sunset-bytes")
	assertFileContains(t, filepath.Join(collDir, "portrait.jpg"), "img-bytes")
	assertFileContains(t, filepath.Join(collDir, "portrait.mov"), "vid-bytes")

	uid := model.NewFileUID(still, coll.ID)
	if _, ok := h.j.FileRecord(uid); !ok {
		t.Fatalf("expected still image to be journaled")
	}

	// Second run with nothing changed should be a no-op: PendingExports
	// stays at zero and no new work is planned.
	h.runAndWait(t)
	if status := h.sched.Status(); status.PendingExports != 0 {
		t.Fatalf("expected no pending exports on idle rerun, got %d", status.PendingExports)
	}

	// Third run: the collection is renamed remotely, the still image is
	// removed, and a brand new file is added.
	h.inv.Collections[0].Name = "Trip 2024 (Final)"
	h.inv.Files[coll.ID] = h.inv.Files[coll.ID][1:] // drop the still image
	newFile := model.File{ID: 12, CollectionID: coll.ID, Type: model.FileTypeImage, Title: "beach.jpg", UpdationTime: 200}
	h.inv.AddFile(newFile, "beach-bytes")

	h.runAndWait(t)

	renamedDir := filepath.Join(h.root, "Trip 2024 (Final)")
	if _, err := os.Stat(renamedDir); err != nil {
		t.Fatalf("expected renamed collection directory: %v", err)
	}
	assertFileContains(t, filepath.Join(renamedDir, "beach.jpg"), "beach-bytes")
	if _, err := os.Stat(filepath.Join(renamedDir, "sunset.jpg")); !os.IsNotExist(err) {
		t.Fatalf("expected removed file to no longer be in the collection directory")
	}
	if _, ok := h.j.FileRecord(uid); ok {
		t.Fatalf("expected removed file's journal record to be cleared")
	}
	if _, err := os.Stat(filepath.Join(h.root, "Trash", "Trip 2024 (Final)", "sunset.jpg")); err != nil {
		t.Fatalf("expected trashed file to land under Trash/: %v", err)
	}

	// Fourth run: the whole collection disappears remotely.
	h.inv.Collections = nil
	h.inv.Files = map[int64][]model.File{}

	h.runAndWait(t)
	if _, err := os.Stat(renamedDir); !os.IsNotExist(err) {
		t.Fatalf("expected emptied collection directory to be trashed")
	}
}

func assertFileContains(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(data) != want {
		t.Fatalf("%s: got %q, want %q", path, string(data), want)
	}
}
