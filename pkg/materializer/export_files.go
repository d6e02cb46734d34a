package materializer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/planner"
	"github.com/mirrorkit/photomirror/pkg/ratelimit"
)

// exportFiles downloads and writes each planned file plus its metadata
// sidecar. Record-then-write throughout: the journal entry for a file
// (or a newly seen collection) is written before any bytes hit disk, so
// a crash mid-write leaves at worst a journal entry with no complete
// file behind it rather than an on-disk file the journal doesn't know
// about. A later run does not re-export such a file: the planner skips
// every UID the journal already tracks.
func (m *Materializer) exportFiles(ctx context.Context, files []planner.FileToExport) error {
	if err := m.Journal.SetStage(model.StageExportingFiles); err != nil {
		return fmt.Errorf("materializer: set stage before export files: %w", err)
	}
	for i, item := range files {
		if err := ctx.Err(); err != nil {
			return model.NewError("Materializer.exportFiles", model.ErrExportStopped, err)
		}
		uid := model.NewFileUID(item.File, item.Collection.ID)

		dirName, ok := m.Journal.CollectionName(item.Collection.ID)
		if !ok {
			dirName = m.Allocator.Allocate("collections", item.Collection.Name)
			if err := m.Journal.PutCollectionName(item.Collection.ID, dirName); err != nil {
				m.Allocator.Release("collections", dirName)
				return fmt.Errorf("materializer: record new collection %d: %w", item.Collection.ID, err)
			}
			if _, err := m.Gateway.CheckExistsAndCreateDir(ctx, m.collectionDir(dirName)); err != nil {
				_ = m.Journal.RemoveCollectionName(item.Collection.ID)
				m.Allocator.Release("collections", dirName)
				return model.NewError("Materializer.exportFiles", model.ErrExportFolderDoesNotExist, err)
			}
			if _, err := m.Gateway.CheckExistsAndCreateDir(ctx, m.metadataDir(dirName)); err != nil {
				return model.NewError("Materializer.exportFiles", model.ErrExportFolderDoesNotExist, err)
			}
		}
		dir := m.collectionDir(dirName)
		metaDir := m.metadataDir(dirName)
		nsKey := collectionDirKey(item.Collection.ID)

		rawReader, _, err := m.Downloader.Download(ctx, item.File)
		if err != nil {
			m.notify(ProgressUpdate{Phase: "export_files", Current: i + 1, Total: len(files), Path: item.File.Title, Err: err})
			return model.NewError("Materializer.exportFiles", model.ErrEtagMissing, err)
		}
		reader := ratelimit.NewReadCloser(ctx, rawReader, m.Bandwidth)

		if item.File.Type == model.FileTypeLivePhoto {
			err = m.exportLivePhoto(ctx, reader, dir, metaDir, nsKey, uid, item.File)
		} else {
			err = m.exportSingle(ctx, reader, dir, metaDir, nsKey, uid, item.File)
		}
		reader.Close()
		if err != nil {
			m.notify(ProgressUpdate{Phase: "export_files", Current: i + 1, Total: len(files), Path: item.File.Title, Err: err})
			return err
		}
		m.notify(ProgressUpdate{Phase: "export_files", Current: i + 1, Total: len(files), Path: dir})
	}
	return nil
}

func (m *Materializer) exportSingle(ctx context.Context, r io.Reader, dir, metaDir, nsKey string, uid model.FileUID, f model.File) error {
	name := m.Allocator.Allocate(nsKey, f.Title)
	rec := journal.Record{Kind: model.KindSingle, Name: name}

	if err := m.Journal.PutFileRecord(uid, rec); err != nil {
		m.Allocator.Release(nsKey, name)
		return fmt.Errorf("materializer: record exported file %s: %w", uid, err)
	}

	if err := m.writeSidecar(ctx, metaDir, name, f); err != nil {
		_ = m.Journal.RemoveFileRecord(uid)
		m.Allocator.Release(nsKey, name)
		return model.NewError("Materializer.exportSingle", model.ErrUpdateExportedRecordFailed, err)
	}

	path := filepath.Join(dir, name)
	if _, err := m.Gateway.SaveStreamToDisk(ctx, path, r); err != nil {
		_ = m.deleteSidecar(ctx, metaDir, name)
		_ = m.Journal.RemoveFileRecord(uid)
		m.Allocator.Release(nsKey, name)
		return model.NewError("Materializer.exportSingle", model.ErrUpdateExportedRecordFailed, err)
	}

	if m.Exif != nil {
		if err := m.Exif.UpdateExif(ctx, path, f); err != nil {
			m.log().Warn(ctx, "exif update failed", map[string]interface{}{"path": path, "error": err.Error()})
		}
	}
	return nil
}

func (m *Materializer) exportLivePhoto(ctx context.Context, r io.Reader, dir, metaDir, nsKey string, uid model.FileUID, f model.File) error {
	imageR, videoR, err := m.LiveDecoder.Split(ctx, r)
	if err != nil {
		return model.NewError("Materializer.exportLivePhoto", model.ErrExportRecordJSONParsingFailed, err)
	}
	defer imageR.Close()
	defer videoR.Close()

	base := titleBase(f.Title)
	imgName := m.Allocator.Allocate(nsKey, base+".jpg")
	vidName := m.Allocator.Allocate(nsKey, base+".mov")
	imgPath := filepath.Join(dir, imgName)
	vidPath := filepath.Join(dir, vidName)
	rec := journal.Record{Kind: model.KindLive, Image: imgName, Video: vidName}

	rollback := func() {
		_ = m.Journal.RemoveFileRecord(uid)
		m.Allocator.Release(nsKey, imgName)
		m.Allocator.Release(nsKey, vidName)
	}

	if err := m.Journal.PutFileRecord(uid, rec); err != nil {
		m.Allocator.Release(nsKey, imgName)
		m.Allocator.Release(nsKey, vidName)
		return fmt.Errorf("materializer: record exported file %s: %w", uid, err)
	}

	// Written sequentially, in the order the journal entry names them,
	// so a failure at any step knows exactly what to unwind: image
	// sidecar, image bytes, video sidecar, video bytes.
	if err := m.writeSidecar(ctx, metaDir, imgName, f); err != nil {
		rollback()
		return model.NewError("Materializer.exportLivePhoto", model.ErrUpdateExportedRecordFailed, err)
	}
	if _, err := m.Gateway.SaveStreamToDisk(ctx, imgPath, imageR); err != nil {
		_ = m.deleteSidecar(ctx, metaDir, imgName)
		rollback()
		return model.NewError("Materializer.exportLivePhoto", model.ErrUpdateExportedRecordFailed, err)
	}
	if err := m.writeSidecar(ctx, metaDir, vidName, f); err != nil {
		_ = m.Gateway.DeleteFile(ctx, imgPath)
		_ = m.deleteSidecar(ctx, metaDir, imgName)
		rollback()
		return model.NewError("Materializer.exportLivePhoto", model.ErrUpdateExportedRecordFailed, err)
	}
	if _, err := m.Gateway.SaveStreamToDisk(ctx, vidPath, videoR); err != nil {
		_ = m.deleteSidecar(ctx, metaDir, vidName)
		_ = m.Gateway.DeleteFile(ctx, imgPath)
		_ = m.deleteSidecar(ctx, metaDir, imgName)
		rollback()
		return model.NewError("Materializer.exportLivePhoto", model.ErrUpdateExportedRecordFailed, err)
	}

	return nil
}

func (m *Materializer) writeSidecar(ctx context.Context, metaDir, name string, f model.File) error {
	data, err := sidecarJSON(name, f)
	if err != nil {
		return err
	}
	return m.Gateway.SaveFileToDisk(ctx, filepath.Join(metaDir, name+".json"), data)
}

func (m *Materializer) deleteSidecar(ctx context.Context, metaDir, name string) error {
	return m.Gateway.DeleteFile(ctx, filepath.Join(metaDir, name+".json"))
}

func titleBase(title string) string {
	ext := filepath.Ext(title)
	if ext == "" {
		return title
	}
	return title[:len(title)-len(ext)]
}
