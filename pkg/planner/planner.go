// Package planner diffs the remote inventory against the journal's
// record of what has already been mirrored, producing the four ordered
// work lists the materializer executes: renamed collections, removed
// files, files to export, and collections to delete. Planner does no
// I/O and mutates no shared state — it is a pure function of its
// inputs, so it is exhaustively unit testable without a filesystem or
// network.
//
// Grounded on pkg/sync/pipeline.go's scanDestination/scanSourceAndQueue
// map-diff approach, generalized from (source tree vs dest tree) to
// (remote inventory vs journal) and widened from one list to four.
package planner

import (
	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/namealloc"
)

// RenamedCollection describes a collection whose remote name changed
// since it was last exported. NewName is the bare remote
// user_facing_name; the materializer, not the planner, allocates the
// collision-free directory name at rename time.
type RenamedCollection struct {
	CollectionID int64
	OldName      string
	NewName      string
}

// FileToExport pairs a remote File with the Collection it should be
// exported into.
type FileToExport struct {
	File       model.File
	Collection model.Collection
}

// DeletedExportedCollection is a collection that no longer exists
// remotely (or was emptied of files) and whose local export folder
// should be trashed.
type DeletedExportedCollection struct {
	CollectionID int64
	ExportName   string
}

// Plan is the materializer's ordered work list for one reconciliation
// pass.
type Plan struct {
	RenamedCollections         []RenamedCollection
	RemovedFileUIDs            []model.FileUID
	FilesToExport              []FileToExport
	DeletedExportedCollections []DeletedExportedCollection
}

// IsEmpty reports whether the plan has no work at all, letting the
// scheduler skip a materializer run entirely.
func (p *Plan) IsEmpty() bool {
	return len(p.RenamedCollections) == 0 &&
		len(p.RemovedFileUIDs) == 0 &&
		len(p.FilesToExport) == 0 &&
		len(p.DeletedExportedCollections) == 0
}

// Planner computes a Plan from a remote inventory snapshot and a
// journal. It carries no allocator and no other mutable collaborator:
// every Plan call is a pure read of its arguments.
type Planner struct{}

// New returns a Planner.
func New() *Planner {
	return &Planner{}
}

// Plan diffs collections/filesByCollection (the remote inventory, with
// deleted collections/files already filtered out by the caller) against
// j, returning the four work lists in the fixed application order.
func (p *Planner) Plan(j *journal.Journal, collections []model.Collection, filesByCollection map[int64][]model.File) *Plan {
	plan := &Plan{}

	remoteCollectionIDs := make(map[int64]struct{}, len(collections))
	for _, c := range collections {
		remoteCollectionIDs[c.ID] = struct{}{}

		if existing, ok := j.CollectionName(c.ID); ok {
			comparable := existing
			if title, hadSuffix := namealloc.StripSuffix(existing); hadSuffix {
				comparable = title
			}
			if comparable != c.Name {
				plan.RenamedCollections = append(plan.RenamedCollections, RenamedCollection{
					CollectionID: c.ID,
					OldName:      existing,
					NewName:      c.Name,
				})
			}
		}
	}

	for _, idStr := range j.KnownCollectionIDs() {
		id := parseCollectionID(idStr)
		if _, stillRemote := remoteCollectionIDs[id]; stillRemote {
			if files := filesByCollection[id]; len(files) > 0 {
				continue
			}
		}
		name, _ := j.CollectionName(id)
		plan.DeletedExportedCollections = append(plan.DeletedExportedCollections, DeletedExportedCollection{
			CollectionID: id,
			ExportName:   name,
		})
	}

	desiredUIDs := make(map[string]struct{})
	for _, c := range collections {
		for _, f := range filesByCollection[c.ID] {
			uid := model.NewFileUID(f, c.ID)
			desiredUIDs[uid.String()] = struct{}{}
			if _, known := j.FileRecord(uid); !known {
				plan.FilesToExport = append(plan.FilesToExport, FileToExport{File: f, Collection: c})
			}
		}
	}

	for _, known := range j.KnownFileUIDs() {
		if _, stillDesired := desiredUIDs[known]; !stillDesired {
			plan.RemovedFileUIDs = append(plan.RemovedFileUIDs, model.ParseFileUID(known))
		}
	}

	return plan
}
