package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local implements FileStore on top of the local filesystem.
// All paths are resolved relative to the configured root directory.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir.
// The directory is created (with parents) if it does not already exist.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute root directory.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Read opens the named file for reading.
func (l *Local) Read(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(l.resolve(path))
}

// Write creates a temporary file next to the target and renames it into
// place on Close, so readers never see a half-written stream.
func (l *Local) Write(_ context.Context, path string) (io.WriteCloser, error) {
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(full), "."+filepath.Base(full)+".*")
	if err != nil {
		return nil, err
	}
	return &localWriter{File: f, target: full}, nil
}

// Delete removes the named file. If the file does not exist, Delete
// returns nil (idempotent).
func (l *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(l.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether the named file exists.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

type localWriter struct {
	*os.File
	target string
	closed bool
}

func (w *localWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.File.Close(); err != nil {
		os.Remove(w.File.Name())
		return err
	}
	if err := os.Chmod(w.File.Name(), 0o644); err != nil {
		os.Remove(w.File.Name())
		return err
	}
	if err := os.Rename(w.File.Name(), w.target); err != nil {
		os.Remove(w.File.Name())
		return err
	}
	return nil
}

// Abort removes the temporary file. The target is left untouched.
func (w *localWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.File.Close()
	return os.Remove(w.File.Name())
}

var _ FileStore = (*Local)(nil)
