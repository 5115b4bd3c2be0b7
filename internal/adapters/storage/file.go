package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore reads documents from a directory tree.
type FileStore struct {
	fsys fs.FS
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{fsys: os.DirFS(dir)}
}

// NewFSStore creates a FileStore over an arbitrary fs.FS.
func NewFSStore(fsys fs.FS) *FileStore {
	return &FileStore{fsys: fsys}
}

// Read implements Store.
func (s *FileStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	b, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}
