// Package fsgateway abstracts the platform filesystem operations the
// materializer needs, so the pipeline never calls os.* directly. The
// narrow verb-interface shape follows the teacher's storage.Backend.
package fsgateway

import (
	"context"
	"io"
)

// FsGateway is the platform filesystem abstraction used by the
// materializer and the name allocator.
type FsGateway interface {
	// SelectDirectory prompts the user (in an interactive context) for an
	// export root. Headless callers should supply a gateway that returns
	// a fixed path instead.
	SelectDirectory(ctx context.Context) (string, error)

	// Exists reports whether path exists, regardless of type.
	Exists(ctx context.Context, path string) (bool, error)

	// CheckExistsAndCreateDir creates path (and parents) if it does not
	// already exist, returning whether it already existed.
	CheckExistsAndCreateDir(ctx context.Context, path string) (existed bool, err error)

	// Rename renames oldPath to newPath within the same volume.
	Rename(ctx context.Context, oldPath, newPath string) error

	// MoveFile moves a single file into (possibly) a different
	// directory tree, creating destination parents as needed.
	MoveFile(ctx context.Context, srcPath, destPath string) error

	// DeleteFile removes a single file. Missing files are not an error.
	DeleteFile(ctx context.Context, path string) error

	// DeleteFolder removes a directory. Non-empty directories are an
	// error unless force is set.
	DeleteFolder(ctx context.Context, path string, force bool) error

	// SaveFileToDisk writes data to path, creating parent directories as
	// needed.
	SaveFileToDisk(ctx context.Context, path string, data []byte) error

	// SaveStreamToDisk streams r to path without buffering the whole
	// payload in memory, returning the number of bytes written.
	SaveStreamToDisk(ctx context.Context, path string, r io.Reader) (int64, error)

	// ReadTextFile reads a small text file (journal, sidecar) in full.
	ReadTextFile(ctx context.Context, path string) ([]byte, error)

	// ListDir lists the immediate children of path (not recursive).
	ListDir(ctx context.Context, path string) ([]string, error)
}
