// Package storage reads raw PCM input and writes encoded Ogg output through
// a FileStore, so the same command can work on local files or objects in an
// S3-compatible bucket.
//
// A location string selects the backend:
//
//	recording.pcm              local file, relative to the working directory
//	/var/audio/out.ogg         local file
//	s3://bucket/prefix/out.ogg object in bucket
//	-                          stdin or stdout, handled by the caller
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file for reading.
	// The caller must close the returned ReadCloser when done.
	// If the file does not exist, an error wrapping os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing. The file becomes visible,
	// replacing any previous one, only when the writer is closed.
	// The caller must close the returned WriteCloser to flush data.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file.
	// If the file does not exist, Delete returns nil (idempotent).
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// ContentType returns the MIME type stored alongside a file, chosen by
// extension.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".pcm", ".raw":
		return "audio/pcm"
	case ".wav":
		return "audio/wav"
	}
	return "application/octet-stream"
}

// ErrAborted is the upload error reported after Abort.
var ErrAborted = errors.New("storage: write aborted")

// Abort discards a writer returned by FileStore.Write without making the
// file visible. Writers that cannot abort are closed instead.
func Abort(w io.WriteCloser) error {
	if a, ok := w.(interface{ Abort() error }); ok {
		return a.Abort()
	}
	return w.Close()
}
