package parquetio

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/parquedb/parquedb/pkg/model"
)

// ReadSegment reconstructs every entity stored in the Parquet file
// backed by r (spec §4.6 read path: decode $data, overlay shredded
// columns).
func ReadSegment(r io.ReaderAt, size int64, shredFields []string) ([]*model.Entity, error) {
	schema := BuildSchema(shredFields)
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, err
	}

	var entities []*model.Entity
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
				entities = append(entities, FromRow(m, shredFields))
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

	return entities, nil
}
