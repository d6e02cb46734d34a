// Package materializer executes a planner.Plan against the filesystem,
// in the fixed order Rename -> TrashFiles -> ExportFiles ->
// TrashCollections, recording each item in the journal before its
// filesystem mutation (record-then-write), so the disk never holds an
// exported item the journal does not know about. A crash between the
// record and the mutation can leave a journal entry that the disk does
// not match; each phase's doc says what that leaves behind.
//
// Grounded on pkg/sync/pipeline.go's processTask/copyFile/updateFile
// (mutate filesystem, then update tracked state) and pkg/sync/worker.go's
// progressReader; progress callbacks here fire once per item, without
// byte-level throttling.
package materializer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mirrorkit/photomirror/pkg/fsgateway"
	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/logging"
	"github.com/mirrorkit/photomirror/pkg/namealloc"
	"github.com/mirrorkit/photomirror/pkg/planner"
	"github.com/mirrorkit/photomirror/pkg/ratelimit"
	"github.com/mirrorkit/photomirror/pkg/remote"
)

// ProgressUpdate describes one unit of materializer work completing, for
// CLI progress bars and metrics.
type ProgressUpdate struct {
	Phase   string
	Current int
	Total   int
	Path    string
	Err     error
}

// Materializer turns a Plan into filesystem mutations plus journal
// updates.
type Materializer struct {
	Gateway     fsgateway.FsGateway
	Journal     *journal.Journal
	Allocator   *namealloc.NameAllocator
	Downloader  remote.Downloader
	Exif        remote.ExifUpdater
	LiveDecoder remote.LivePhotoDecoder
	ExportRoot  string
	Logger      logging.Logger
	OnProgress  func(ProgressUpdate)

	// Bandwidth throttles every download when set, the same token-bucket
	// Reader the teacher used to cap transfer speed. Nil means unlimited.
	Bandwidth *ratelimit.Limiter
}

// New constructs a Materializer. Logger defaults to a NullLogger if nil.
func New(gw fsgateway.FsGateway, j *journal.Journal, alloc *namealloc.NameAllocator, dl remote.Downloader, exif remote.ExifUpdater, live remote.LivePhotoDecoder, exportRoot string) *Materializer {
	return &Materializer{
		Gateway:     gw,
		Journal:     j,
		Allocator:   alloc,
		Downloader:  dl,
		Exif:        exif,
		LiveDecoder: live,
		ExportRoot:  exportRoot,
		Logger:      logging.NewNullLogger(),
	}
}

func (m *Materializer) notify(u ProgressUpdate) {
	if m.OnProgress != nil {
		m.OnProgress(u)
	}
}

func (m *Materializer) log() logging.Logger {
	if m.Logger == nil {
		return logging.NewNullLogger()
	}
	return m.Logger
}

// Run executes plan's four phases in order, stopping at the first
// phase-level error. runID correlates log lines and the journal's
// LastRunID with this materialization pass.
func (m *Materializer) Run(ctx context.Context, plan *planner.Plan, runID uuid.UUID) error {
	if err := m.Journal.SetLastRunID(runID); err != nil {
		return fmt.Errorf("materializer: record run id: %w", err)
	}

	if err := m.renameCollections(ctx, plan.RenamedCollections); err != nil {
		return err
	}
	if err := m.trashFiles(ctx, plan.RemovedFileUIDs); err != nil {
		return err
	}
	if err := m.exportFiles(ctx, plan.FilesToExport); err != nil {
		return err
	}
	if err := m.trashCollections(ctx, plan.DeletedExportedCollections); err != nil {
		return err
	}
	return nil
}

func (m *Materializer) collectionDir(name string) string {
	return filepath.Join(m.ExportRoot, name)
}

func (m *Materializer) metadataDir(collectionName string) string {
	return filepath.Join(m.collectionDir(collectionName), "metadata")
}

// trashDir is the root of the Trash tree, which mirrors the relative
// path structure of removed items (e.g. Trash/Vacation/F1.jpg) rather
// than flattening everything into one directory.
func (m *Materializer) trashDir() string {
	return filepath.Join(m.ExportRoot, "Trash")
}
