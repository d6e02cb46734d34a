package materializer

import (
	"context"
	"fmt"

	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/planner"
)

// renameCollections moves each collection's export directory to its new
// name. Record-then-rename: the journal is updated with the new name
// before the directory is touched, so a crash leaves at worst a journal
// entry pointing at a directory that doesn't exist yet under that name,
// never a renamed directory the journal doesn't know about. A later run
// does not redo such a rename: the journal already holds the new name,
// so the planner plans no rename for that collection.
func (m *Materializer) renameCollections(ctx context.Context, renames []planner.RenamedCollection) error {
	if err := m.Journal.SetStage(model.StageRenamingCollections); err != nil {
		return fmt.Errorf("materializer: set stage before rename: %w", err)
	}
	for i, r := range renames {
		if err := ctx.Err(); err != nil {
			return model.NewError("Materializer.renameCollections", model.ErrExportStopped, err)
		}
		newDir := m.Allocator.Allocate("collections", r.NewName)
		oldPath := m.collectionDir(r.OldName)
		newPath := m.collectionDir(newDir)

		if err := m.Journal.PutCollectionName(r.CollectionID, newDir); err != nil {
			m.Allocator.Release("collections", newDir)
			return fmt.Errorf("materializer: record renamed collection %d: %w", r.CollectionID, err)
		}

		if err := m.Gateway.Rename(ctx, oldPath, newPath); err != nil {
			_ = m.Journal.PutCollectionName(r.CollectionID, r.OldName)
			m.Allocator.Release("collections", newDir)
			m.notify(ProgressUpdate{Phase: "rename", Current: i + 1, Total: len(renames), Path: newPath, Err: err})
			return model.NewError("Materializer.renameCollections", model.ErrUpdateExportedRecordFailed, err)
		}
		m.notify(ProgressUpdate{Phase: "rename", Current: i + 1, Total: len(renames), Path: newPath})
	}
	return nil
}
