package materializer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/model"
)

// trashFiles moves each removed file's exported copy (or copies, for a
// live photo), plus its metadata sidecar, into the export root's Trash
// tree instead of deleting it outright. The tree mirrors the collection
// layout (Trash/<collection>/<name>) so a user can recover a file
// removed remotely by mistake.
//
// Record-then-remove: the journal entry is dropped before the move, so
// a crash leaves at worst an orphaned file still sitting in the
// collection directory, which the journal no longer claims, rather than
// a journal entry pointing at a file that's already gone. A later trash
// pass does not pick such an orphan up, since it only visits UIDs the
// journal tracks; removing it is a manual cleanup.
func (m *Materializer) trashFiles(ctx context.Context, uids []model.FileUID) error {
	if err := m.Journal.SetStage(model.StageTrashingFiles); err != nil {
		return fmt.Errorf("materializer: set stage before trash files: %w", err)
	}
	seededTrashNamespaces := make(map[string]bool)

	for i, uid := range uids {
		if err := ctx.Err(); err != nil {
			return model.NewError("Materializer.trashFiles", model.ErrExportStopped, err)
		}
		rec, ok := m.Journal.FileRecord(uid)
		if !ok {
			// The journal holds no record for this UID, so there is
			// nothing on disk to move; RemoveFileRecord leaves the
			// journal's contents unchanged and persists it.
			if err := m.Journal.RemoveFileRecord(uid); err != nil {
				return fmt.Errorf("materializer: clear stale file record %s: %w", uid, err)
			}
			continue
		}

		collectionName, _ := m.Journal.CollectionName(uid.CollectionID)
		srcDir := m.collectionDir(collectionName)
		trashSubdir := filepath.Join(m.trashDir(), collectionName)
		trashNsKey := "trash:" + collectionName

		if !seededTrashNamespaces[collectionName] {
			m.seedTrashNamespace(ctx, trashNsKey, trashSubdir)
			seededTrashNamespaces[collectionName] = true
		}

		if err := m.Journal.RemoveFileRecord(uid); err != nil {
			return fmt.Errorf("materializer: remove trashed file record %s: %w", uid, err)
		}

		for _, name := range recordNames(rec) {
			trashedName := m.Allocator.Allocate(trashNsKey, name)
			if err := m.moveToTrash(ctx, srcDir, trashSubdir, name, trashedName); err != nil {
				_ = m.Journal.PutFileRecord(uid, rec)
				m.Allocator.Release(trashNsKey, trashedName)
				m.notify(ProgressUpdate{Phase: "trash_files", Current: i + 1, Total: len(uids), Path: filepath.Join(srcDir, name), Err: err})
				return model.NewError("Materializer.trashFiles", model.ErrUpdateExportedRecordFailed, err)
			}
			m.Allocator.Release(collectionDirKey(uid.CollectionID), name)
		}
		m.notify(ProgressUpdate{Phase: "trash_files", Current: i + 1, Total: len(uids), Path: srcDir})
	}
	return nil
}

// seedTrashNamespace preloads the allocator with whatever Trash already
// holds for a collection, so repeated trash events across runs don't
// collide on a basename trashed previously — the journal has no record
// of Trash contents, so the filesystem itself is the source of truth
// here (§4.2's "does not currently exist" policy).
func (m *Materializer) seedTrashNamespace(ctx context.Context, nsKey, dir string) {
	names, err := m.Gateway.ListDir(ctx, dir)
	if err != nil {
		return
	}
	m.Allocator.Seed(nsKey, names)
}

// moveToTrash relocates name from srcDir, plus its metadata sidecar if
// present, into trashDir under trashedName. Each existence check
// precedes its move so a prior partially-completed trash attempt (e.g.
// the sidecar already moved, the main file not yet) doesn't error out.
func (m *Materializer) moveToTrash(ctx context.Context, srcDir, trashDir, name, trashedName string) error {
	src := filepath.Join(srcDir, name)
	if exists, err := m.Gateway.Exists(ctx, src); err == nil && exists {
		dst := filepath.Join(trashDir, trashedName)
		if err := m.Gateway.MoveFile(ctx, src, dst); err != nil {
			return err
		}
	}

	sidecarSrc := filepath.Join(srcDir, "metadata", name+".json")
	if exists, err := m.Gateway.Exists(ctx, sidecarSrc); err == nil && exists {
		sidecarDst := filepath.Join(trashDir, "metadata", trashedName+".json")
		if err := m.Gateway.MoveFile(ctx, sidecarSrc, sidecarDst); err != nil {
			return err
		}
	}
	return nil
}

func recordNames(rec journal.Record) []string {
	if rec.Kind == model.KindLive {
		return []string{rec.Image, rec.Video}
	}
	return []string{rec.Name}
}

func collectionDirKey(collectionID int64) string {
	return fmt.Sprintf("collection-%d", collectionID)
}
