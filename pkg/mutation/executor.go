package mutation

import (
	"time"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/model"
)

// Store is the minimal read/write surface Executor needs from whatever
// backs a namespace; the facade wires this to the table committer's
// current-state view.
type Store interface {
	Get(id string) (*model.Entity, bool, error)
	Put(e *model.Entity) error
}

// UpdateSpec is the fixed-order set of update operators applied to one
// entity: $set (deep-merge), $unset (remove key), $inc (numeric-only)
// (spec §4.9).
type UpdateSpec struct {
	Set   map[string]any
	Unset []string
	Inc   map[string]any
	// Type supplies $type when Update creates an entity via upsert and
	// the caller didn't already set one through Set.
	Type string
}

// UpdateOptions configures one Update call.
type UpdateOptions struct {
	// ExpectedVersion, when set, must match the stored version or the
	// update fails with VersionConflictError (spec §4.9).
	ExpectedVersion *uint64
	// Upsert creates the entity at id when it doesn't already exist
	// (spec §4.9).
	Upsert bool
}

// UpdateResult reports the entity Update produced and whether it was
// newly created via upsert.
type UpdateResult struct {
	Entity  *model.Entity
	Created bool
}

// Executor applies create/update/delete/restore mutations for one
// namespace, enforcing the read-only guard and audit stamping from the
// configured actor and clock (spec §4.9, §4.8 "Read-only mode").
type Executor struct {
	store    Store
	actor    string
	clock    func() time.Time
	readOnly bool
}

// NewExecutor returns an Executor writing through store, stamping
// audit fields with actor.
func NewExecutor(store Store, actor string) *Executor {
	return &Executor{store: store, actor: actor, clock: time.Now}
}

// SetReadOnly toggles the read-only guard every write method checks.
func (ex *Executor) SetReadOnly(ro bool) { ex.readOnly = ro }

// SetClock overrides the clock Executor stamps audit fields from;
// tests use this for deterministic timestamps.
func (ex *Executor) SetClock(clock func() time.Time) { ex.clock = clock }

func (ex *Executor) now() time.Time {
	if ex.clock != nil {
		return ex.clock()
	}
	return time.Now()
}

// CheckWritable returns ReadOnlyError when the executor is read-only.
// Exported so callers implementing the other read-only-guarded write
// paths named in spec §4.8 (bulkCreate, setSchema) can share the same
// policy without duplicating it.
func (ex *Executor) CheckWritable(operation string) error {
	if ex.readOnly {
		return &errs.ReadOnlyError{Operation: operation}
	}
	return nil
}

// Create inserts a new entity of entityType in namespace, minting a
// fresh $id.
func (ex *Executor) Create(namespace, entityType string, fields map[string]any) (*model.Entity, error) {
	if err := ex.CheckWritable("create"); err != nil {
		return nil, err
	}
	return ex.create(namespace, entityType, fields)
}

// BulkCreate inserts every item in items as a new entity, stopping at
// the first store error (spec §4.8: bulkCreate is read-only-guarded
// the same as the other write paths).
func (ex *Executor) BulkCreate(namespace, entityType string, items []map[string]any) ([]*model.Entity, error) {
	if err := ex.CheckWritable("bulkCreate"); err != nil {
		return nil, err
	}
	out := make([]*model.Entity, 0, len(items))
	for _, fields := range items {
		e, err := ex.create(namespace, entityType, fields)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (ex *Executor) create(namespace, entityType string, fields map[string]any) (*model.Entity, error) {
	now := ex.now()
	e := &model.Entity{
		ID:        model.NewEntityID(namespace),
		Type:      entityType,
		Version:   1,
		CreatedAt: now,
		CreatedBy: ex.actor,
		UpdatedAt: now,
		UpdatedBy: ex.actor,
		Fields:    cloneFields(fields),
	}
	if err := ex.store.Put(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update applies spec's operators to the entity named id, in order
// $set, $unset, $inc, enforcing ExpectedVersion and, when Upsert is
// set, creating the entity at id if it's absent (spec §4.9).
func (ex *Executor) Update(id string, spec UpdateSpec, opts UpdateOptions) (*UpdateResult, error) {
	if err := ex.CheckWritable("update"); err != nil {
		return nil, err
	}

	existing, found, err := ex.store.Get(id)
	if err != nil {
		return nil, err
	}

	if !found {
		if !opts.Upsert {
			return nil, &errs.NotFoundError{What: "entity", ID: id}
		}
		return ex.upsertCreate(id, spec)
	}

	if opts.ExpectedVersion != nil && *opts.ExpectedVersion != existing.Version {
		return nil, &errs.VersionConflictError{
			EntityID: id, ExpectedVersion: *opts.ExpectedVersion, ActualVersion: existing.Version,
		}
	}

	e := existing.Clone()
	applyOps(e, spec)
	e.Version++
	e.UpdatedAt = ex.now()
	e.UpdatedBy = ex.actor
	if err := ex.store.Put(e); err != nil {
		return nil, err
	}
	return &UpdateResult{Entity: e}, nil
}

func (ex *Executor) upsertCreate(id string, spec UpdateSpec) (*UpdateResult, error) {
	typ := spec.Type
	if typ == "" {
		typ = "unknown"
	}
	now := ex.now()
	e := &model.Entity{
		ID:        id,
		Type:      typ,
		Version:   1,
		CreatedAt: now,
		CreatedBy: ex.actor,
		UpdatedAt: now,
		UpdatedBy: ex.actor,
		Fields:    map[string]any{},
	}
	applyOps(e, spec)
	if err := ex.store.Put(e); err != nil {
		return nil, err
	}
	return &UpdateResult{Entity: e, Created: true}, nil
}

// Delete soft-deletes the entity named id, stamping deletedAt/By. A
// second delete of an already-deleted (or absent) entity returns 0
// (spec §4.9).
func (ex *Executor) Delete(id string) (int, error) {
	if err := ex.CheckWritable("delete"); err != nil {
		return 0, err
	}
	existing, found, err := ex.store.Get(id)
	if err != nil {
		return 0, err
	}
	if !found || existing.IsDeleted() {
		return 0, nil
	}
	now := ex.now()
	e := existing.Clone()
	e.DeletedAt = &now
	e.DeletedBy = ex.actor
	e.Version++
	e.UpdatedAt = now
	e.UpdatedBy = ex.actor
	if err := ex.store.Put(e); err != nil {
		return 0, err
	}
	return 1, nil
}

// Restore clears deletedAt/By on the entity named id, preserving every
// other field and bumping version (spec §4.9).
func (ex *Executor) Restore(id string) (*model.Entity, error) {
	if err := ex.CheckWritable("restore"); err != nil {
		return nil, err
	}
	existing, found, err := ex.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &errs.NotFoundError{What: "entity", ID: id}
	}
	if !existing.IsDeleted() {
		return existing, nil
	}
	e := existing.Clone()
	e.DeletedAt = nil
	e.DeletedBy = ""
	e.Version++
	e.UpdatedAt = ex.now()
	e.UpdatedBy = ex.actor
	if err := ex.store.Put(e); err != nil {
		return nil, err
	}
	return e, nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
