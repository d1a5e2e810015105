// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kvstore

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Values are copied on the way in
// and out so callers cannot mutate stored bytes.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte

	// ReadErr and WriteErr, when set, are returned by every Read or Write.
	ReadErr  error
	WriteErr error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Read(_ context.Context, ns string) ([]byte, bool, error) {
	if err := validNamespace(ns); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, false, s.ReadErr
	}
	v, ok := s.values[ns]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Write(_ context.Context, ns string, data []byte) error {
	if err := validNamespace(ns); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.values[ns] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
