package mutation

import (
	"sync"
	"testing"
	"time"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	docs map[string]*model.Entity
}

func newMemStore() *memStore { return &memStore{docs: map[string]*model.Entity{}} }

func (s *memStore) Get(id string) (*model.Entity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[id]
	if !ok {
		return nil, false, nil
	}
	return e.Clone(), true, nil
}

func (s *memStore) Put(e *model.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[e.ID] = e.Clone()
	return nil
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestCreate_StampsAuditFieldsAndVersion(t *testing.T) {
	store := newMemStore()
	ex := NewExecutor(store, "alice")
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ex.SetClock(fixedClock(ts))

	e, err := ex.Create("users", "person", map[string]any{"name": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e.Version)
	assert.Equal(t, "alice", e.CreatedBy)
	assert.Equal(t, ts, e.CreatedAt)
	assert.Equal(t, "Bob", e.Fields["name"])
}

func TestUpdate_SetUnsetIncInFixedOrder(t *testing.T) {
	store := newMemStore()
	ex := NewExecutor(store, "alice")
	e, err := ex.Create("users", "person", map[string]any{
		"profile": map[string]any{"city": "NYC", "age": float64(1)},
		"temp":    "drop me",
	})
	require.NoError(t, err)

	res, err := ex.Update(e.ID, UpdateSpec{
		Set:   map[string]any{"profile": map[string]any{"age": float64(10)}},
		Unset: []string{"temp"},
		Inc:   map[string]any{"profile.visits": float64(1)}, // non-existent numeric key: inits at 0+1
	}, UpdateOptions{})
	require.NoError(t, err)

	profile := res.Entity.Fields["profile"].(map[string]any)
	assert.Equal(t, "NYC", profile["city"], "deep-merge should preserve sibling keys")
	assert.Equal(t, float64(10), profile["age"], "deep-merge should overwrite the updated key")
	_, hasTemp := res.Entity.Fields["temp"]
	assert.False(t, hasTemp, "$unset should remove the key")
	assert.Equal(t, float64(1), res.Entity.Fields["profile.visits"])
	assert.Equal(t, uint64(2), res.Entity.Version)
}

func TestUpdate_IncLeavesNonNumericFieldUntouched(t *testing.T) {
	store := newMemStore()
	ex := NewExecutor(store, "alice")
	e, err := ex.Create("users", "person", map[string]any{"name": "Bob"})
	require.NoError(t, err)

	res, err := ex.Update(e.ID, UpdateSpec{Inc: map[string]any{"name": float64(1)}}, UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Bob", res.Entity.Fields["name"])
}

func TestUpdate_ExpectedVersionMismatchConflicts(t *testing.T) {
	store := newMemStore()
	ex := NewExecutor(store, "alice")
	e, err := ex.Create("users", "person", map[string]any{})
	require.NoError(t, err)

	wrong := e.Version + 5
	_, err = ex.Update(e.ID, UpdateSpec{Set: map[string]any{"x": 1}}, UpdateOptions{ExpectedVersion: &wrong})
	require.Error(t, err)
	var vc *errs.VersionConflictError
	require.ErrorAs(t, err, &vc)
}

func TestUpdate_UpsertCreatesWithUnknownType(t *testing.T) {
	store := newMemStore()
	ex := NewExecutor(store, "alice")

	res, err := ex.Update("users/does-not-exist", UpdateSpec{Set: map[string]any{"name": "New"}}, UpdateOptions{Upsert: true})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "unknown", res.Entity.Type)
	assert.Equal(t, uint64(1), res.Entity.Version)
	assert.Equal(t, "New", res.Entity.Fields["name"])
}

func TestUpdate_WithoutUpsertOnMissingIsNotFound(t *testing.T) {
	store := newMemStore()
	ex := NewExecutor(store, "alice")
	_, err := ex.Update("users/missing", UpdateSpec{Set: map[string]any{"x": 1}}, UpdateOptions{})
	require.Error(t, err)
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestDeleteThenRestore(t *testing.T) {
	store := newMemStore()
	ex := NewExecutor(store, "alice")
	e, err := ex.Create("users", "person", map[string]any{"name": "Bob"})
	require.NoError(t, err)

	count, err := ex.Delete(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = ex.Delete(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "second delete of the same entity should report zero")

	restored, err := ex.Restore(e.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, "Bob", restored.Fields["name"])
	assert.Equal(t, uint64(3), restored.Version, "version bumps on create, delete, and restore")
}

func TestReadOnly_RejectsEveryWritePath(t *testing.T) {
	store := newMemStore()
	ex := NewExecutor(store, "alice")
	e, err := ex.Create("users", "person", map[string]any{})
	require.NoError(t, err)
	ex.SetReadOnly(true)

	_, err = ex.Create("users", "person", map[string]any{})
	assertReadOnly(t, err)

	_, err = ex.BulkCreate("users", "person", []map[string]any{{}})
	assertReadOnly(t, err)

	_, err = ex.Update(e.ID, UpdateSpec{Set: map[string]any{"x": 1}}, UpdateOptions{})
	assertReadOnly(t, err)

	_, err = ex.Delete(e.ID)
	assertReadOnly(t, err)

	_, err = ex.Restore(e.ID)
	assertReadOnly(t, err)
}

func assertReadOnly(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var ro *errs.ReadOnlyError
	require.ErrorAs(t, err, &ro)
}
