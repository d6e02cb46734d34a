package materializer

import (
	"context"
	"fmt"

	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/planner"
)

// trashCollections runs last: by this point every file that used to
// live under a deleted collection has already been trashed by
// trashFiles, so hasRemainingFiles re-asserts that against the journal
// before touching anything on disk, rather than trusting the plan was
// built from a still-current snapshot.
//
// Record-then-delete: the journal's collection entry is dropped before
// the directory is removed, so a crash leaves at worst an orphaned
// empty-ish directory the journal no longer claims (recoverable: a
// manual cleanup, or a future pass that just finds nothing to trash)
// rather than a deleted directory the journal still points at.
func (m *Materializer) trashCollections(ctx context.Context, deleted []planner.DeletedExportedCollection) error {
	if err := m.Journal.SetStage(model.StageTrashingCollections); err != nil {
		return fmt.Errorf("materializer: set stage before trash collections: %w", err)
	}
	for i, dc := range deleted {
		if err := ctx.Err(); err != nil {
			return model.NewError("Materializer.trashCollections", model.ErrExportStopped, err)
		}
		if m.hasRemainingFiles(dc.CollectionID) {
			err := fmt.Errorf("collection %d still has exported files", dc.CollectionID)
			m.notify(ProgressUpdate{Phase: "trash_collections", Current: i + 1, Total: len(deleted), Path: dc.ExportName, Err: err})
			return model.NewError("Materializer.trashCollections", model.ErrCollectionNotEmpty, err)
		}

		dir := m.collectionDir(dc.ExportName)
		metaDir := m.metadataDir(dc.ExportName)

		if err := m.Journal.RemoveCollectionName(dc.CollectionID); err != nil {
			return fmt.Errorf("materializer: remove collection record %d: %w", dc.CollectionID, err)
		}

		if err := m.Gateway.DeleteFolder(ctx, metaDir, true); err != nil {
			m.log().Warn(ctx, "delete metadata dir failed", map[string]interface{}{"path": metaDir, "error": err.Error()})
		}
		if err := m.Gateway.DeleteFolder(ctx, dir, false); err != nil {
			_ = m.Journal.PutCollectionName(dc.CollectionID, dc.ExportName)
			m.notify(ProgressUpdate{Phase: "trash_collections", Current: i + 1, Total: len(deleted), Path: dir, Err: err})
			return model.NewError("Materializer.trashCollections", model.ErrCollectionNotEmpty, err)
		}
		m.notify(ProgressUpdate{Phase: "trash_collections", Current: i + 1, Total: len(deleted), Path: dir})
	}
	return nil
}

// hasRemainingFiles reports whether the journal still tracks any
// exported file under collectionID, per §4.5's "no remaining file
// entries" precondition for trashing a collection.
func (m *Materializer) hasRemainingFiles(collectionID int64) bool {
	for _, uidStr := range m.Journal.KnownFileUIDs() {
		if model.ParseFileUID(uidStr).CollectionID == collectionID {
			return true
		}
	}
	return false
}
