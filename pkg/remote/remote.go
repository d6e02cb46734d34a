// Package remote defines the external collaborators the export engine
// depends on but does not implement: the remote inventory, file
// download, EXIF/metadata update, live-photo splitting, the local
// "something changed" event bus, and the small persistent stores for
// settings and the current user. These are narrow verb interfaces in the
// style of the teacher's storage.Backend and compare.Comparator.
package remote

import (
	"context"
	"io"

	"github.com/mirrorkit/photomirror/pkg/model"
)

// InventoryProvider reports the remote library's current File and
// Collection listings.
type InventoryProvider interface {
	ListCollections(ctx context.Context) ([]model.Collection, error)
	ListFiles(ctx context.Context, collectionID int64) ([]model.File, error)
}

// Downloader fetches a File's bytes. The returned size may be -1 if
// unknown in advance.
type Downloader interface {
	Download(ctx context.Context, f model.File) (io.ReadCloser, int64, error)
}

// ExifUpdater applies the remote's metadata (capture time, GPS, etc.) to
// an already-written local file.
type ExifUpdater interface {
	UpdateExif(ctx context.Context, localPath string, f model.File) error
}

// LivePhotoDecoder splits a combined live-photo payload into its still
// image and motion video components.
type LivePhotoDecoder interface {
	Split(ctx context.Context, r io.Reader) (image io.ReadCloser, video io.ReadCloser, err error)
}

// EventBus is the local signal source for continuous export: something
// that tells the scheduler "files changed, reconcile again."
type EventBus interface {
	Subscribe(event string, fn func()) (unsubscribe func())
	Publish(event string)
}

// Event names published on the EventBus.
const (
	EventLocalFilesUpdated = "local_files_updated"
	EventRemoteSyncDone    = "remote_sync_done"
)

// SettingsStore persists small key/value user preferences (export root,
// continuous-export flag) independent of pkg/config's YAML file, mirroring
// the remote client's settings database.
type SettingsStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// CurrentUserStore resolves which remote account the export runs as.
type CurrentUserStore interface {
	CurrentUserID(ctx context.Context) (int64, error)
}
