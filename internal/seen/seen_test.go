// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/paper-digest/internal/kvstore"
)

func TestMarkAndContains(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, kvstore.NewMemoryStore(), nil)

	assert.False(t, s.Contains("2301.07041"))
	s.MarkAll([]string{"2301.07041", "2301.99999", ""}, time.Now())
	assert.True(t, s.Contains("2301.07041"))
	assert.True(t, s.Contains("2301.99999"))
	assert.False(t, s.Contains(""), "empty ids are ignored")
	assert.Equal(t, 2, s.Len())
}

func TestMarkAllLastWriteWins(t *testing.T) {
	s := Load(context.Background(), kvstore.NewMemoryStore(), nil)
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	s.MarkAll([]string{"a"}, t1)
	s.MarkAll([]string{"a"}, t2)

	got, ok := s.LastSeen("a")
	require.True(t, ok)
	assert.True(t, got.Equal(t2))
	assert.Equal(t, 1, s.Len())
}

func TestFlushAndReload(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	at := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	s := Load(ctx, store, nil)
	s.MarkAll([]string{"2506.00001", "2506.00002"}, at)
	require.NoError(t, s.Flush(ctx))

	data, ok, err := store.Read(ctx, Namespace)
	require.NoError(t, err)
	require.True(t, ok)
	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2025-06-02T08:00:00Z", raw["2506.00001"])

	reloaded := Load(ctx, store, nil)
	assert.True(t, reloaded.Contains("2506.00002"))
	got, _ := reloaded.LastSeen("2506.00001")
	assert.True(t, got.Equal(at))
}

func TestLoadRecoversFromBadStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		store func() *kvstore.MemoryStore
	}{
		{
			name: "corrupt json",
			store: func() *kvstore.MemoryStore {
				s := kvstore.NewMemoryStore()
				require.NoError(t, s.Write(ctx, Namespace, []byte("{not json")))
				return s
			},
		},
		{
			name: "read error",
			store: func() *kvstore.MemoryStore {
				s := kvstore.NewMemoryStore()
				s.ReadErr = errors.New("permission denied")
				return s
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			s := Load(ctx, tt.store(), zap.New(core))
			assert.Equal(t, 0, s.Len())
			assert.Equal(t, 1, logs.Len(), "expected one warning")
		})
	}
}

func TestLoadKeepsIDsWithBadTimestamps(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Write(ctx, Namespace, []byte(`{"a":"yesterday","b":"2025-01-01T00:00:00Z"}`)))

	s := Load(ctx, store, nil)
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
}

func TestFlushWriteError(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	store.WriteErr = errors.New("quota exceeded")

	s := Load(ctx, store, nil)
	s.MarkAll([]string{"a"}, time.Now())
	err := s.Flush(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.WriteErr)
	assert.True(t, s.Contains("a"), "in-memory state survives a failed flush")
}
