// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/paper-digest/internal/kvstore"
	"github.com/pdiddy/paper-digest/pkg/types"
)

func summarized(id string) types.Item {
	return types.Item{
		ID:           id,
		Title:        "Paper " + id,
		Authors:      []string{"A. Author"},
		Published:    time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		PDFURL:       "https://arxiv.org/pdf/" + id,
		Summary:      "### Summary\nfindings",
		SummarizedAt: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestPutGetHas(t *testing.T) {
	ctx := context.Background()
	c := Load(ctx, kvstore.NewMemoryStore(), nil)

	assert.False(t, c.Has("2505.00001"))
	_, ok := c.Get("2505.00001")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, summarized("2505.00001")))
	assert.True(t, c.Has("2505.00001"))
	got, ok := c.Get("2505.00001")
	require.True(t, ok)
	assert.Equal(t, "Paper 2505.00001", got.Title)
	assert.True(t, got.HasSummary())
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	c := Load(ctx, kvstore.NewMemoryStore(), nil)

	first := summarized("x")
	require.NoError(t, c.Put(ctx, first))
	second := first
	second.Summary = "### Summary\nrevised"
	require.NoError(t, c.Put(ctx, second))

	got, _ := c.Get("x")
	assert.Equal(t, "### Summary\nrevised", got.Summary)
	assert.Equal(t, 1, c.Len())
}

func TestPutRejectsMissingID(t *testing.T) {
	c := Load(context.Background(), kvstore.NewMemoryStore(), nil)
	assert.Error(t, c.Put(context.Background(), types.Item{Title: "no id"}))
}

func TestSurvivesReload(t *testing.T) {
	ctx := context.Background()
	store, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	c := Load(ctx, store, nil)
	require.NoError(t, c.Put(ctx, summarized("2505.00001")))
	require.NoError(t, c.Put(ctx, summarized("2505.00002")))

	reloaded := Load(ctx, store, nil)
	assert.Equal(t, 2, reloaded.Len())
	got, ok := reloaded.Get("2505.00002")
	require.True(t, ok)
	assert.True(t, got.Published.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"A. Author"}, got.Authors)
}

func TestLoadCorruptStoreIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Write(ctx, Namespace, []byte(`[1,2,3]`)))

	core, logs := observer.New(zap.WarnLevel)
	c := Load(ctx, store, zap.New(core))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("corrupt").Len())

	// The cache is still usable after recovering.
	require.NoError(t, c.Put(ctx, summarized("a")))
	assert.True(t, c.Has("a"))
}

func TestPutKeepsEntryOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	store.WriteErr = errors.New("bucket unavailable")

	c := Load(ctx, store, nil)
	err := c.Put(ctx, summarized("a"))
	assert.ErrorIs(t, err, store.WriteErr)
	assert.True(t, c.Has("a"))
}

func TestConcurrentPut(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	c := Load(ctx, store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Put(ctx, summarized(fmt.Sprintf("id-%02d", i))))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, c.Len())
	reloaded := Load(ctx, store, nil)
	assert.Equal(t, 20, reloaded.Len(), "last write must contain every entry")

	items := c.Items()
	assert.Equal(t, "id-00", items[0].ID)
	assert.Equal(t, "id-19", items[19].ID)
}
