// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const defaultStateDir = ".paper-digest"

// FileStore keeps each namespace in <dir>/<namespace>.json. Writes go to a
// temporary file first and are renamed into place, so a crash mid-write
// leaves the previous value intact.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = defaultStateDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(ns string) string {
	return filepath.Join(s.dir, ns+".json")
}

// Read returns the namespace contents. A missing file is ok=false, not an error.
func (s *FileStore) Read(_ context.Context, ns string) ([]byte, bool, error) {
	if err := validNamespace(ns); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(ns))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", s.path(ns), err)
	}
	return data, true, nil
}

// Write atomically replaces the namespace contents.
func (s *FileStore) Write(_ context.Context, ns string, data []byte) error {
	if err := validNamespace(ns); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+ns+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path(ns)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path(ns), err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }
