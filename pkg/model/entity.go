package model

import "time"

// Reserved top-level entity fields (spec §3).
const (
	FieldID        = "$id"
	FieldType      = "$type"
	FieldName      = "name"
	FieldCreatedAt = "createdAt"
	FieldCreatedBy = "createdBy"
	FieldUpdatedAt = "updatedAt"
	FieldUpdatedBy = "updatedBy"
	FieldDeletedAt = "deletedAt"
	FieldDeletedBy = "deletedBy"
	FieldVersion   = "version"
	FieldData      = "$data"
)

// CoreFields lists every reserved attribute that is always injected into
// an entity and never dropped by schema evolution (spec §3 invariants).
var CoreFields = []string{
	FieldID, FieldType, FieldName,
	FieldCreatedAt, FieldCreatedBy,
	FieldUpdatedAt, FieldUpdatedBy,
	FieldDeletedAt, FieldDeletedBy,
	FieldVersion,
}

// IsCoreField reports whether name is one of the always-present reserved fields.
func IsCoreField(name string) bool {
	for _, f := range CoreFields {
		if f == name {
			return true
		}
	}
	return false
}

// Entity is ParqueDB's polymorphic record type. Reserved attributes are
// pulled out as named fields for convenient access; everything else
// (arbitrary user fields) lives in Fields.
type Entity struct {
	ID        string         `json:"$id"`
	Type      string         `json:"$type"`
	Name      string         `json:"name,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	CreatedBy string         `json:"createdBy,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
	UpdatedBy string         `json:"updatedBy,omitempty"`
	DeletedAt *time.Time     `json:"deletedAt,omitempty"`
	DeletedBy string         `json:"deletedBy,omitempty"`
	Version   uint64         `json:"version"`
	Fields    map[string]any `json:"-"`
}

// Clone returns a deep-enough copy of e: scalar fields are copied by
// value and Fields is a fresh map with cloned nested maps/slices.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	out := *e
	if e.DeletedAt != nil {
		t := *e.DeletedAt
		out.DeletedAt = &t
	}
	out.Fields = cloneValue(e.Fields).(map[string]any)
	return &out
}

// IsDeleted reports whether the entity is currently soft-deleted.
func (e *Entity) IsDeleted() bool {
	return e != nil && e.DeletedAt != nil
}

// ToMap flattens the entity into a single map, reserved fields included,
// the representation the query matcher and mutation executor operate on.
func (e *Entity) ToMap() map[string]any {
	m := make(map[string]any, len(e.Fields)+len(CoreFields))
	for k, v := range e.Fields {
		m[k] = v
	}
	m[FieldID] = e.ID
	m[FieldType] = e.Type
	if e.Name != "" {
		m[FieldName] = e.Name
	}
	m[FieldCreatedAt] = e.CreatedAt
	if e.CreatedBy != "" {
		m[FieldCreatedBy] = e.CreatedBy
	}
	m[FieldUpdatedAt] = e.UpdatedAt
	if e.UpdatedBy != "" {
		m[FieldUpdatedBy] = e.UpdatedBy
	}
	if e.DeletedAt != nil {
		m[FieldDeletedAt] = *e.DeletedAt
	}
	if e.DeletedBy != "" {
		m[FieldDeletedBy] = e.DeletedBy
	}
	m[FieldVersion] = e.Version
	return m
}

// EntityFromMap reconstructs an Entity from a flattened map produced by ToMap
// (or decoded from storage), splitting reserved fields back out.
func EntityFromMap(m map[string]any) *Entity {
	e := &Entity{Fields: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case FieldID:
			e.ID, _ = v.(string)
		case FieldType:
			e.Type, _ = v.(string)
		case FieldName:
			e.Name, _ = v.(string)
		case FieldCreatedAt:
			e.CreatedAt = asTime(v)
		case FieldCreatedBy:
			e.CreatedBy, _ = v.(string)
		case FieldUpdatedAt:
			e.UpdatedAt = asTime(v)
		case FieldUpdatedBy:
			e.UpdatedBy, _ = v.(string)
		case FieldDeletedAt:
			t := asTime(v)
			e.DeletedAt = &t
		case FieldDeletedBy:
			e.DeletedBy, _ = v.(string)
		case FieldVersion:
			e.Version = asUint64(v)
		default:
			e.Fields[k] = v
		}
	}
	return e
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

func asUint64(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	case float64:
		return uint64(n)
	}
	return 0
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}
