package wal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
)

func testWAL() (*WAL, storage.Store) {
	cfg := DefaultConfig()
	cfg.MinBatchThreshold = 2
	cfg.MaxBatchThreshold = 4
	store := storage.NewMemoryStore()
	return New("users", store, cfg), store
}

func makeEvent(id string, ts int64) *model.Event {
	return &model.Event{ID: id, Ts: ts, Op: model.OpCreate, Target: "users:1", After: map[string]any{"name": "alice"}}
}

func TestAppend_Backpressure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPendingEvents = 2
	cfg.MinBatchThreshold = 100
	w := New("users", storage.NewMemoryStore(), cfg)
	ctx := context.Background()

	require.NoError(t, w.Append(ctx, makeEvent("1", 1)))
	require.NoError(t, w.Append(ctx, makeEvent("2", 2)))

	err := w.Append(ctx, makeEvent("3", 3))
	var bpErr *errs.BackpressureError
	require.ErrorAs(t, err, &bpErr)
	assert.Equal(t, 2, bpErr.CurrentSize)
	assert.Equal(t, 2, bpErr.MaxSize)
}

func TestFlush_WritesSegmentAndClearsQueue(t *testing.T) {
	w, store := testWAL()
	ctx := context.Background()

	require.NoError(t, w.Append(ctx, makeEvent("1", 1)))
	require.NoError(t, w.Append(ctx, makeEvent("2", 2)))
	require.NoError(t, w.Flush(ctx))

	w.mu.Lock()
	pendingLen := len(w.pending)
	w.mu.Unlock()
	assert.Zero(t, pendingLen)

	manifest, _, err := loadManifest(ctx, store, "users")
	require.NoError(t, err)
	require.Len(t, manifest.Segments, 1)
	assert.Equal(t, 2, manifest.Segments[0].Count)

	exists, err := store.Exists(ctx, manifest.Segments[0].Path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFlush_NoOpWhenEmpty(t *testing.T) {
	w, store := testWAL()
	require.NoError(t, w.Flush(context.Background()))
	manifest, _, err := loadManifest(context.Background(), store, "users")
	require.NoError(t, err)
	assert.Empty(t, manifest.Segments)
}

func TestCompact_MergesSmallSegments(t *testing.T) {
	w, store := testWAL()
	w.cfg.CompactionMinBatches = 2
	w.cfg.CompactionTarget = 100
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Append(ctx, makeEvent(string(rune('a'+i)), int64(i))))
		require.NoError(t, w.Flush(ctx))
	}

	require.NoError(t, w.Compact(ctx))

	manifest, _, err := loadManifest(ctx, store, "users")
	require.NoError(t, err)
	require.Len(t, manifest.Segments, 1)
	assert.Equal(t, 3, manifest.Segments[0].Count)
}

func TestArchive_DryRunDoesNotMutate(t *testing.T) {
	w, store := testWAL()
	ctx := context.Background()
	w.cfg.ArchiveAfterDays = 0

	old := makeEvent("old", time.Now().AddDate(0, 0, -1).UnixMilli())
	require.NoError(t, w.Append(ctx, old))
	require.NoError(t, w.Flush(ctx))

	actions, err := w.Archive(ctx, true)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	manifest, _, err := loadManifest(ctx, store, "users")
	require.NoError(t, err)
	assert.Len(t, manifest.Segments, 1)
}

func TestArchive_ThenRestore(t *testing.T) {
	w, store := testWAL()
	ctx := context.Background()
	w.cfg.ArchiveAfterDays = 0

	require.NoError(t, w.Append(ctx, makeEvent("1", time.Now().AddDate(0, 0, -2).UnixMilli())))
	require.NoError(t, w.Flush(ctx))

	actions, err := w.Archive(ctx, false)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	manifestAfterArchive, _, err := loadManifest(ctx, store, "users")
	require.NoError(t, err)
	assert.Empty(t, manifestAfterArchive.Segments)

	require.NoError(t, w.Restore(ctx, actions[0].ArchivePath))

	manifestAfterRestore, _, err := loadManifest(ctx, store, "users")
	require.NoError(t, err)
	require.Len(t, manifestAfterRestore.Segments, 1)

	exists, err := store.Exists(ctx, actions[0].ArchivePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAdaptiveThreshold_ScalesWithArrivalRate(t *testing.T) {
	w, _ := testWAL()
	w.mu.Lock()
	low := w.adaptiveThreshold()
	for i := 0; i < 10; i++ {
		w.arrivals = append(w.arrivals, time.Now())
	}
	high := w.adaptiveThreshold()
	w.mu.Unlock()

	assert.LessOrEqual(t, low, high)
}
