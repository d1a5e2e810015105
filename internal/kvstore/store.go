// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kvstore persists small named blobs (the seen-set and the result
// cache) across runs. A namespace maps to exactly one value; writers replace
// the whole value.
//
// Backends: a directory of JSON files (default), a SQLite table, a Cloud
// Storage bucket, and an in-memory map for tests and dry runs.
package kvstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Store reads and writes raw namespace values. Read reports ok=false when
// the namespace has never been written. Callers treat every error as
// recoverable.
type Store interface {
	Read(ctx context.Context, namespace string) (data []byte, ok bool, err error)
	Write(ctx context.Context, namespace string, data []byte) error
	Close() error
}

// namespaceRe restricts namespaces to names that are safe as file names,
// object names, and SQL keys.
var namespaceRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func validNamespace(ns string) error {
	if !namespaceRe.MatchString(ns) {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	return nil
}

// Open returns the backend selected by cfg.Backend. An empty backend
// selects the file store.
func Open(ctx context.Context, cfg types.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case types.StoreFile, "":
		return NewFileStore(cfg.Dir)
	case types.StoreSQLite:
		return NewSQLiteStore(cfg.Dir)
	case types.StoreGCS:
		return NewGCSStore(ctx, cfg.Bucket, cfg.Prefix)
	case types.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}
