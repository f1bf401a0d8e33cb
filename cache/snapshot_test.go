// ABOUTME: Tests for the snapshot slot
// ABOUTME: Covers the persisted layout, the freshness boundary and best-effort writes
package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/salesdash/clock"
	"github.com/harperreed/salesdash/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPayload = `{"ok":true,"dailyTrend":[{"date":"2025-01-01","sales":5}],"custom":{"x":1}}`

func newTestSnapshot(t *testing.T) (*Snapshot, *clock.Fake, Store) {
	t.Helper()
	store, err := OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewSnapshot(store, WithClock(fake)), fake, store
}

func parsePayload(t *testing.T) *models.Payload {
	t.Helper()
	p, err := models.ParsePayload([]byte(testPayload))
	require.NoError(t, err)
	return p
}

func TestSnapshotPersistedLayout(t *testing.T) {
	snap, fake, store := newTestSnapshot(t)
	ctx := context.Background()

	filters := models.Filters{TeamLead: "Ana"}
	filters.SetDays(30)
	snap.Write(ctx, parsePayload(t), filters)

	raw, err := store.Get(ctx, SnapshotKey)
	require.NoError(t, err)

	var layout map[string]any
	require.NoError(t, json.Unmarshal(raw, &layout))
	assert.Equal(t, float64(fake.Now().UnixMilli()), layout["timestamp"])
	assert.Equal(t, "days=30&teamlead=Ana", layout["filters"])
	data, ok := layout["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "custom", "unmodelled sections survive caching")
}

func TestSnapshotReadRoundTrip(t *testing.T) {
	snap, fake, _ := newTestSnapshot(t)
	ctx := context.Background()

	assert.Nil(t, snap.Read(ctx), "empty slot")

	snap.Write(ctx, parsePayload(t), models.DefaultFilters())
	fake.Advance(10 * time.Minute)

	entry := snap.Read(ctx)
	require.NotNil(t, entry)
	assert.True(t, entry.Payload.Succeeded())
	assert.Equal(t, 10*time.Minute, snap.Age(entry))

	filters, err := entry.RequestFilters()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFilters(), filters)
}

func TestSnapshotFreshnessBoundary(t *testing.T) {
	snap, fake, _ := newTestSnapshot(t)
	ctx := context.Background()

	snap.Write(ctx, parsePayload(t), models.DefaultFilters())

	fake.Advance(DefaultFreshness - time.Millisecond)
	assert.NotNil(t, snap.Read(ctx), "one millisecond inside the window")

	fake.Advance(time.Millisecond)
	assert.Nil(t, snap.Read(ctx), "exactly at the window")

	entry, err := snap.Peek(ctx)
	require.NoError(t, err)
	assert.False(t, snap.IsFresh(entry))
}

func TestSnapshotSingleSlot(t *testing.T) {
	snap, _, _ := newTestSnapshot(t)
	ctx := context.Background()

	snap.Write(ctx, parsePayload(t), models.Filters{Person: "Bo"})
	snap.Write(ctx, parsePayload(t), models.Filters{Person: "Cy"})

	entry := snap.Read(ctx)
	require.NotNil(t, entry)
	assert.Equal(t, "person=Cy", entry.Filters)
}

func TestSnapshotReadRejectsCorruptEntry(t *testing.T) {
	snap, _, store := newTestSnapshot(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, SnapshotKey, []byte("{not json")))
	assert.Nil(t, snap.Read(ctx))

	require.NoError(t, store.Set(ctx, SnapshotKey, []byte(`{"timestamp":1}`)))
	assert.Nil(t, snap.Read(ctx))
}

func TestSnapshotClear(t *testing.T) {
	snap, _, _ := newTestSnapshot(t)
	ctx := context.Background()

	snap.Write(ctx, parsePayload(t), models.DefaultFilters())
	require.NoError(t, snap.Clear(ctx))

	_, err := snap.Peek(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingStore) Set(context.Context, string, []byte) error   { return errors.New("quota exceeded") }
func (failingStore) Delete(context.Context, string) error        { return errors.New("disk gone") }
func (failingStore) Close() error                                { return nil }

func TestSnapshotFailuresAreSwallowed(t *testing.T) {
	snap := NewSnapshot(failingStore{})
	ctx := context.Background()

	assert.NotPanics(t, func() {
		snap.Write(ctx, parsePayload(t), models.DefaultFilters())
	})
	assert.Nil(t, snap.Read(ctx))
}
