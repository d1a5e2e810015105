// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seen tracks paper identifiers that discovery has already offered,
// so later runs never re-offer them. The set is persisted as a JSON object
// of id -> RFC 3339 timestamp under the "seen_papers" namespace.
package seen

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/kvstore"
)

// Namespace is the kvstore namespace holding the seen set.
const Namespace = "seen_papers"

// Set is a durable set of identifiers with their last-seen time.
type Set struct {
	mu    sync.RWMutex
	store kvstore.Store
	log   *zap.Logger
	seen  map[string]time.Time
}

// Load reads the seen set from store. A missing, unreadable, or corrupt
// value yields an empty set and a warning; Load never fails.
func Load(ctx context.Context, store kvstore.Store, log *zap.Logger) *Set {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Set{store: store, log: log, seen: make(map[string]time.Time)}

	data, ok, err := store.Read(ctx, Namespace)
	if err != nil {
		log.Warn("reading seen set, starting fresh", zap.Error(err))
		return s
	}
	if !ok {
		return s
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("seen set is corrupt, starting fresh", zap.Error(err))
		return s
	}
	for id, ts := range raw {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			// Keep the id: membership matters more than the timestamp.
			log.Debug("unparseable seen timestamp", zap.String("id", id), zap.String("value", ts))
		}
		s.seen[id] = t
	}
	return s
}

// Contains reports whether id has been marked.
func (s *Set) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[id]
	return ok
}

// MarkAll records every id as seen at time at. Re-marking an id overwrites
// its timestamp.
func (s *Set) MarkAll(ids []string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		s.seen[id] = at
	}
}

// LastSeen returns the time id was last marked.
func (s *Set) LastSeen(id string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.seen[id]
	return t, ok
}

// Len returns the number of identifiers in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Flush writes the set back to the store.
func (s *Set) Flush(ctx context.Context) error {
	s.mu.RLock()
	raw := make(map[string]string, len(s.seen))
	for id, t := range s.seen {
		raw[id] = t.UTC().Format(time.RFC3339Nano)
	}
	s.mu.RUnlock()

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling seen set: %w", err)
	}
	if err := s.store.Write(ctx, Namespace, data); err != nil {
		return fmt.Errorf("writing seen set: %w", err)
	}
	return nil
}
