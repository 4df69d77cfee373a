package parquetio

import (
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/parquedb/parquedb/pkg/model"
)

// BuildSchema constructs the Parquet schema for a collection: the
// fixed core columns, $data for un-shredded fields, and one additional
// top-level column per shredField. shredFields are typed as optional
// byte-array columns holding the Variant encoding of the field's
// value, so a shredded column still supports any value shape while
// participating in row-group statistics and predicate pushdown.
func BuildSchema(shredFields []string) *parquet.Schema {
	group := parquet.Group{
		model.FieldID:        parquet.String(),
		model.FieldType:      parquet.String(),
		model.FieldName:      parquet.Optional(parquet.String()),
		model.FieldCreatedAt: parquet.Timestamp(parquet.Microsecond),
		model.FieldCreatedBy: parquet.Optional(parquet.String()),
		model.FieldUpdatedAt: parquet.Timestamp(parquet.Microsecond),
		model.FieldUpdatedBy: parquet.Optional(parquet.String()),
		model.FieldDeletedAt: parquet.Optional(parquet.Timestamp(parquet.Microsecond)),
		model.FieldDeletedBy: parquet.Optional(parquet.String()),
		model.FieldVersion:   parquet.Int(64),
		model.FieldData:      parquet.Optional(parquet.Leaf(parquet.ByteArrayType)),
	}
	for _, f := range shredFields {
		if _, reserved := group[f]; reserved {
			continue
		}
		group[f] = parquet.Optional(parquet.Leaf(parquet.ByteArrayType))
	}
	return parquet.NewSchema("entity", group)
}

func timeOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}
