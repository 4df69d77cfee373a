package parquetio

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/variant"
)

// BuildEventSchema returns the fixed Parquet schema for WAL segments.
// Before/After are Variant-encoded blobs since an event's payload
// shape varies per target type.
func BuildEventSchema() *parquet.Schema {
	return parquet.NewSchema("event", parquet.Group{
		"id":       parquet.String(),
		"ts":       parquet.Int(64),
		"op":       parquet.String(),
		"target":   parquet.String(),
		"before":   parquet.Optional(parquet.Leaf(parquet.ByteArrayType)),
		"after":    parquet.Optional(parquet.Leaf(parquet.ByteArrayType)),
		"actor":    parquet.Optional(parquet.String()),
		"metadata": parquet.Optional(parquet.Leaf(parquet.ByteArrayType)),
	})
}

func eventToRow(e *model.Event) map[string]any {
	row := map[string]any{
		"id":     e.ID,
		"ts":     e.Ts,
		"op":     string(e.Op),
		"target": e.Target,
	}
	if e.Actor != "" {
		row["actor"] = e.Actor
	}
	if len(e.Before) > 0 {
		row["before"] = variant.Encode(variant.FromAny(map[string]any(e.Before)))
	}
	if len(e.After) > 0 {
		row["after"] = variant.Encode(variant.FromAny(map[string]any(e.After)))
	}
	if e.Metadata != nil {
		row["metadata"] = variant.Encode(variant.FromAny(map[string]any{
			"schemaVersion": int64(e.Metadata.SchemaVersion),
			"upgradedFrom":  int64(e.Metadata.UpgradedFrom),
		}))
	}
	return row
}

func rowToEvent(row map[string]any) *model.Event {
	e := &model.Event{}
	if v, ok := row["id"].(string); ok {
		e.ID = v
	}
	if v, ok := row["ts"].(int64); ok {
		e.Ts = v
	}
	if v, ok := row["op"].(string); ok {
		e.Op = model.Op(v)
	}
	if v, ok := row["target"].(string); ok {
		e.Target = v
	}
	if v, ok := row["actor"].(string); ok {
		e.Actor = v
	}
	if raw, ok := row["before"].([]byte); ok && len(raw) > 0 {
		if val, _, err := variant.Decode(raw); err == nil {
			if m, ok := val.ToAny().(map[string]any); ok {
				e.Before = m
			}
		}
	}
	if raw, ok := row["after"].([]byte); ok && len(raw) > 0 {
		if val, _, err := variant.Decode(raw); err == nil {
			if m, ok := val.ToAny().(map[string]any); ok {
				e.After = m
			}
		}
	}
	if raw, ok := row["metadata"].([]byte); ok && len(raw) > 0 {
		if val, _, err := variant.Decode(raw); err == nil {
			if m, ok := val.ToAny().(map[string]any); ok {
				meta := &model.EventMetadata{}
				if v, ok := m["schemaVersion"].(int64); ok {
					meta.SchemaVersion = int(v)
				}
				if v, ok := m["upgradedFrom"].(int64); ok {
					meta.UpgradedFrom = int(v)
				}
				e.Metadata = meta
			}
		}
	}
	return e
}

// WriteEventSegment serializes a batch of events to w as one Parquet
// row group, using LZ4 raw compression (spec §4.3).
func WriteEventSegment(w io.Writer, events []*model.Event) error {
	schema := BuildEventSchema()
	pw := parquet.NewWriter(w, schema, parquet.Compression(&parquet.Lz4Raw))

	rows := make([]parquet.Row, 0, len(events))
	for _, e := range events {
		rows = append(rows, schema.Deconstruct(nil, eventToRow(e)))
	}
	if len(rows) > 0 {
		if _, err := pw.WriteRows(rows); err != nil {
			_ = pw.Close()
			return err
		}
	}
	return pw.Close()
}

// ReadEventSegment reconstructs every event stored in the Parquet file
// backed by r.
func ReadEventSegment(r io.ReaderAt, size int64) ([]*model.Event, error) {
	schema := BuildEventSchema()
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, err
	}

	var events []*model.Event
	for _, rg := range file.RowGroups() {
		rows := rg.Rows()
		buf := make([]parquet.Row, 128)
		for {
			n, err := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				var m map[string]any
				if rerr := schema.Reconstruct(&m, buf[i]); rerr != nil {
					_ = rows.Close()
					return nil, rerr
				}
				events = append(events, rowToEvent(m))
			}
			if err != nil {
				if err == io.EOF {
					break
				}
				_ = rows.Close()
				return nil, err
			}
			if n == 0 {
				break
			}
		}
		if cerr := rows.Close(); cerr != nil {
			return nil, cerr
		}
	}
	return events, nil
}
