// Package model holds the data types shared across the export engine:
// the remote inventory shape (File, Collection), the identifiers derived
// from it, and the export pipeline's stage enum.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// FileType categorizes the payload a File carries.
type FileType int

const (
	FileTypeImage FileType = iota
	FileTypeVideo
	FileTypeLivePhoto
)

func (t FileType) String() string {
	switch t {
	case FileTypeImage:
		return "image"
	case FileTypeVideo:
		return "video"
	case FileTypeLivePhoto:
		return "live_photo"
	default:
		return "unknown"
	}
}

// File is one remote asset as reported by the InventoryProvider.
type File struct {
	ID           int64
	CollectionID int64
	OwnerID      int64
	Type         FileType
	Title        string
	Hash         string
	UpdationTime int64 // microseconds since epoch, per remote convention
	IsDeleted    bool

	// Metadata sidecar fields (all microsecond epoch timestamps at the
	// source). ModificationTimeUs of zero means absent, in which case the
	// sidecar falls back to CreationTimeUs. Latitude/Longitude are nil
	// when the remote has no geo data for the file.
	CreationTimeUs     int64
	ModificationTimeUs int64
	Caption            string
	Latitude           *float64
	Longitude          *float64
}

// Collection is a remote album/folder grouping Files.
type Collection struct {
	ID        int64
	OwnerID   int64
	Name      string
	IsDeleted bool
}

// FileUID is the stable identity of a File within a Collection, used as
// the journal's primary key. Two Files with the same ID in different
// Collections (the same asset shared into multiple albums) get distinct
// FileUIDs because each collection gets its own export copy.
type FileUID struct {
	FileID       int64
	CollectionID int64
	UpdationTime int64
}

// String renders the canonical on-disk-independent identity used as a
// journal map key: "{file_id}_{collection_id}_{updation_time}".
func (u FileUID) String() string {
	return fmt.Sprintf("%d_%d_%d", u.FileID, u.CollectionID, u.UpdationTime)
}

// NewFileUID derives a FileUID from a File, pinned to a specific
// collection (a File may appear in more than one Collection).
func NewFileUID(f File, collectionID int64) FileUID {
	return FileUID{FileID: f.ID, CollectionID: collectionID, UpdationTime: f.UpdationTime}
}

// ParseFileUID reverses FileUID.String, returning the zero value if s is
// malformed. Used by callers that only have the journal's string keys,
// not the originating File.
func ParseFileUID(s string) FileUID {
	parts := strings.SplitN(s, "_", 3)
	if len(parts) != 3 {
		return FileUID{}
	}
	fileID, _ := strconv.ParseInt(parts[0], 10, 64)
	collectionID, _ := strconv.ParseInt(parts[1], 10, 64)
	updationTime, _ := strconv.ParseInt(parts[2], 10, 64)
	return FileUID{FileID: fileID, CollectionID: collectionID, UpdationTime: updationTime}
}

// ExportStage tracks where a run left off, so a crash mid-export resumes
// instead of restarting. A run is in progress iff StageInit < stage <
// StageFinished.
//
// The numeric order here follows the materializer's actual fixed
// execution order (rename -> trash files -> export files -> trash
// collections), not the phase names' alphabetic/declaration order in the
// original source, since "stage never decreases within a run" only holds
// if the values increase in the order the phases really run.
type ExportStage int

const (
	StageInit ExportStage = iota
	StageMigration
	StageStarting
	StageRenamingCollections
	StageTrashingFiles
	StageExportingFiles
	StageTrashingCollections
	StageFinished
)

func (s ExportStage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageMigration:
		return "migration"
	case StageStarting:
		return "starting"
	case StageRenamingCollections:
		return "renaming_collection_folders"
	case StageTrashingFiles:
		return "trashing_deleted_files"
	case StageExportingFiles:
		return "exporting_files"
	case StageTrashingCollections:
		return "trashing_deleted_collections"
	case StageFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// InProgress reports whether s marks a run that started but has not yet
// reached its terminal stage.
func (s ExportStage) InProgress() bool {
	return s > StageInit && s < StageFinished
}

// FileNameKind discriminates a journal record's shape, resolving the
// spec's live-photo ambiguity explicitly rather than by sniffing whether
// the stored name happens to parse as JSON.
type FileNameKind int

const (
	KindSingle FileNameKind = iota
	KindLive
)
