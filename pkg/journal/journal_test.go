package journal

import (
	"context"
	"testing"

	"github.com/mirrorkit/photomirror/pkg/fsgateway"
	"github.com/mirrorkit/photomirror/pkg/model"
)

func TestOpenInitializesEmptyJournal(t *testing.T) {
	dir := t.TempDir()
	gw := fsgateway.NewLocalGateway()
	ctx := context.Background()

	j, err := Open(ctx, gw, dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	if j.Stage() != model.StageInit {
		t.Fatalf("expected StageInit, got %v", j.Stage())
	}
	if len(j.KnownFileUIDs()) != 0 {
		t.Fatalf("expected empty journal")
	}
}

func TestPutFileRecordPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	gw := fsgateway.NewLocalGateway()
	ctx := context.Background()

	uid := model.FileUID{FileID: 1, CollectionID: 2, UpdationTime: 300}
	rec := Record{Kind: model.KindSingle, Name: "sunset.jpg"}

	j, err := Open(ctx, gw, dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := j.PutFileRecord(uid, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := j.SetStage(model.StageExportingFiles); err != nil {
		t.Fatalf("set stage: %v", err)
	}
	j.Close()

	j2, err := Open(ctx, gw, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()

	got, ok := j2.FileRecord(uid)
	if !ok {
		t.Fatalf("expected record to survive reopen")
	}
	if got != rec {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
	if j2.Stage() != model.StageExportingFiles {
		t.Fatalf("expected stage to survive reopen, got %v", j2.Stage())
	}
}

func TestRemoveFileRecord(t *testing.T) {
	dir := t.TempDir()
	gw := fsgateway.NewLocalGateway()
	ctx := context.Background()

	uid := model.FileUID{FileID: 1, CollectionID: 2, UpdationTime: 300}
	j, err := Open(ctx, gw, dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	if err := j.PutFileRecord(uid, Record{Kind: model.KindSingle, Name: "a.jpg"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := j.RemoveFileRecord(uid); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := j.FileRecord(uid); ok {
		t.Fatalf("expected record to be gone")
	}
}

func TestConcurrentMutationsAreLinearized(t *testing.T) {
	dir := t.TempDir()
	gw := fsgateway.NewLocalGateway()
	ctx := context.Background()

	j, err := Open(ctx, gw, dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	const n = 50
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			uid := model.FileUID{FileID: int64(i), CollectionID: 1, UpdationTime: 1}
			errs <- j.PutFileRecord(uid, Record{Kind: model.KindSingle, Name: "f.jpg"})
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if len(j.KnownFileUIDs()) != n {
		t.Fatalf("expected %d records, got %d", n, len(j.KnownFileUIDs()))
	}
}
