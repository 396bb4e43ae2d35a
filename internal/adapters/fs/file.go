// Package fs provides local file system artifacts.
package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

var _ domain.ReadWriter = (*File)(nil)

// File is an artifact backed by a path on the local file system.
type File struct {
	id   string
	path string
}

// NewFile returns a File whose identity is path itself.
func NewFile(path string) *File {
	return &File{id: path, path: path}
}

// ID returns the path the file was declared with.
func (f *File) ID() string {
	return f.id
}

// Path returns the location of the file on disk.
func (f *File) Path() string {
	return f.path
}

// Exists reports whether the file is present. Any stat failure other than
// "not found" is returned as an error.
func (f *File) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(f.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to stat file"), "path", f.path)
	}
	return true, nil
}

// Read returns the content of the file.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read file"), "path", f.path)
	}
	return data, nil
}

// Write replaces the content of the file, creating parent directories as needed.
func (f *File) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create parent directory"), "path", f.path)
	}
	//nolint:gosec // Artifacts are meant to be readable by other tools.
	if err := os.WriteFile(f.path, data, filePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write file"), "path", f.path)
	}
	return nil
}
