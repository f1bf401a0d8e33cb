// ABOUTME: Tests for the Badger and Redis stores
// ABOUTME: Redis runs against miniredis
package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	require.NoError(t, store.Set(ctx, "k", []byte("v2")))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStoreInMemory(t *testing.T) {
	store, err := OpenBadgerStore("")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	exerciseStore(t, store)
}

func TestBadgerStoreOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	store, err := OpenBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "k", []byte("kept")))
	require.NoError(t, store.Close())

	reopened, err := OpenBadgerStore(dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(mr.Addr(), "")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), SnapshotKey, []byte("x")))
	assert.True(t, mr.Exists(DefaultRedisPrefix+SnapshotKey))
}

func TestOpenStore(t *testing.T) {
	store, err := OpenStore(StoreConfig{Backend: BackendBadger})
	require.NoError(t, err)
	_ = store.Close()

	_, err = OpenStore(StoreConfig{Backend: BackendRedis})
	assert.Error(t, err, "redis needs an address")

	_, err = OpenStore(StoreConfig{Backend: "etcd"})
	assert.Error(t, err)
}
