package parquetio

import (
	"time"

	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/variant"
)

// ToRow converts an Entity into the map[string]any shape the dynamic
// schema expects, applying shredding per shredFields: those user
// fields become top-level byte-array columns (Variant-encoded) and
// are removed from $data. Values of Go nil are elided, matching the
// "undefined is elided" rule (spec §4.6).
func ToRow(e *model.Entity, shredFields []string) map[string]any {
	shred := make(map[string]bool, len(shredFields))
	for _, f := range shredFields {
		shred[f] = true
	}

	row := map[string]any{
		model.FieldID:        e.ID,
		model.FieldType:      e.Type,
		model.FieldCreatedAt: timeOrZero(e.CreatedAt),
		model.FieldUpdatedAt: timeOrZero(e.UpdatedAt),
		model.FieldVersion:   int64(e.Version),
	}
	if e.Name != "" {
		row[model.FieldName] = e.Name
	}
	if e.CreatedBy != "" {
		row[model.FieldCreatedBy] = e.CreatedBy
	}
	if e.UpdatedBy != "" {
		row[model.FieldUpdatedBy] = e.UpdatedBy
	}
	if e.DeletedAt != nil {
		row[model.FieldDeletedAt] = e.DeletedAt.UTC()
	}
	if e.DeletedBy != "" {
		row[model.FieldDeletedBy] = e.DeletedBy
	}

	rest := make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		if v == nil {
			continue
		}
		if shred[k] {
			row[k] = variant.Encode(variant.FromAny(v))
			continue
		}
		rest[k] = v
	}
	if len(rest) > 0 {
		row[model.FieldData] = variant.Encode(variant.FromAny(rest))
	}

	return row
}

// FromRow reconstructs an Entity from a row map, decoding $data and
// overlaying shredded columns. A present-but-null shredded column is
// treated as absent rather than merged as a null value (spec §4.6).
func FromRow(row map[string]any, shredFields []string) *model.Entity {
	e := &model.Entity{Fields: map[string]any{}}

	if v, ok := row[model.FieldID].(string); ok {
		e.ID = v
	}
	if v, ok := row[model.FieldType].(string); ok {
		e.Type = v
	}
	if v, ok := row[model.FieldName].(string); ok {
		e.Name = v
	}
	if v, ok := row[model.FieldCreatedAt]; ok {
		e.CreatedAt = asTimeValue(v)
	}
	if v, ok := row[model.FieldCreatedBy].(string); ok {
		e.CreatedBy = v
	}
	if v, ok := row[model.FieldUpdatedAt]; ok {
		e.UpdatedAt = asTimeValue(v)
	}
	if v, ok := row[model.FieldUpdatedBy].(string); ok {
		e.UpdatedBy = v
	}
	if v, ok := row[model.FieldDeletedAt]; ok {
		t := asTimeValue(v)
		if !t.IsZero() {
			e.DeletedAt = &t
		}
	}
	if v, ok := row[model.FieldDeletedBy].(string); ok {
		e.DeletedBy = v
	}
	if v, ok := row[model.FieldVersion].(int64); ok {
		e.Version = uint64(v)
	}

	if raw, ok := row[model.FieldData].([]byte); ok && len(raw) > 0 {
		val, _, err := variant.Decode(raw)
		if err == nil {
			if m, ok := val.ToAny().(map[string]any); ok {
				for k, v := range m {
					e.Fields[k] = v
				}
			}
		}
	}

	for _, f := range shredFields {
		raw, ok := row[f].([]byte)
		if !ok || len(raw) == 0 {
			continue
		}
		val, _, err := variant.Decode(raw)
		if err != nil {
			continue
		}
		e.Fields[f] = val.ToAny()
	}

	return e
}

func asTimeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	default:
		return time.Time{}
	}
}
