// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores fully summarized papers so repeated runs never pay
// for the same summary twice. Entries live in the "paper_cache" namespace
// as a JSON object keyed by paper ID.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/kvstore"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Namespace is the kvstore namespace holding cached items.
const Namespace = "paper_cache"

// Cache is a write-through map of paper ID to summarized Item. It is safe
// for concurrent use; Put serializes both the map update and the store
// write.
type Cache struct {
	mu    sync.Mutex
	store kvstore.Store
	log   *zap.Logger
	items map[string]types.Item
}

// Load reads the cache from store. A missing, unreadable, or corrupt value
// yields an empty cache and a warning.
func Load(ctx context.Context, store kvstore.Store, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cache{store: store, log: log, items: make(map[string]types.Item)}

	data, ok, err := store.Read(ctx, Namespace)
	if err != nil {
		log.Warn("reading paper cache, starting empty", zap.Error(err))
		return c
	}
	if !ok {
		return c
	}
	if err := json.Unmarshal(data, &c.items); err != nil {
		log.Warn("paper cache is corrupt, starting empty", zap.Error(err))
		c.items = make(map[string]types.Item)
	}
	return c
}

// Has reports whether id is cached.
func (c *Cache) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[id]
	return ok
}

// Get returns the cached item for id.
func (c *Cache) Get(id string) (types.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	return it, ok
}

// Put stores item, replacing any entry with the same ID, and persists the
// cache. The in-memory entry is kept even when the store write fails.
func (c *Cache) Put(ctx context.Context, item types.Item) error {
	if item.ID == "" {
		return fmt.Errorf("cache put: item has no ID")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[item.ID] = item
	data, err := json.Marshal(c.items)
	if err != nil {
		return fmt.Errorf("marshaling paper cache: %w", err)
	}
	if err := c.store.Write(ctx, Namespace, data); err != nil {
		return fmt.Errorf("writing paper cache: %w", err)
	}
	return nil
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns all cached items sorted by ID.
func (c *Cache) Items() []types.Item {
	c.mu.Lock()
	out := make([]types.Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
