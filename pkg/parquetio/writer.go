package parquetio

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/parquedb/parquedb/pkg/model"
)

// WriteSegment serializes entities as one Parquet row group to w,
// using LZ4 raw as the write codec (spec §4.6), and returns the
// row-group statistics for the written batch.
func WriteSegment(w io.Writer, entities []*model.Entity, shredFields []string) (*RowGroupStats, error) {
	schema := BuildSchema(shredFields)
	pw := parquet.NewWriter(w, schema, parquet.Compression(&parquet.Lz4Raw))

	rows := make([]parquet.Row, 0, len(entities))
	for _, e := range entities {
		row := ToRow(e, shredFields)
		rows = append(rows, schema.Deconstruct(nil, row))
	}
	if len(rows) > 0 {
		if _, err := pw.WriteRows(rows); err != nil {
			_ = pw.Close()
			return nil, err
		}
	}
	if err := pw.Close(); err != nil {
		return nil, err
	}

	return computeStats(entities, shredFields), nil
}
