package parquetio

import (
	"time"

	"github.com/parquedb/parquedb/pkg/model"
)

// ColumnStats holds the min/max/null-count statistics maintained for
// one column of a row group (spec §4.6). Min/Max are nil when the
// column type doesn't support ordering or every value was null.
type ColumnStats struct {
	Min       any
	Max       any
	NullCount int
}

// RowGroupStats summarizes one row group's columns for predicate
// pushdown during query planning.
type RowGroupStats struct {
	RowCount int
	Columns  map[string]*ColumnStats
}

func newRowGroupStats() *RowGroupStats {
	return &RowGroupStats{Columns: map[string]*ColumnStats{}}
}

func (s *RowGroupStats) observe(col string, v any) {
	cs, ok := s.Columns[col]
	if !ok {
		cs = &ColumnStats{}
		s.Columns[col] = cs
	}
	if v == nil {
		cs.NullCount++
		return
	}
	switch v.(type) {
	case string, int64, float64, time.Time:
	default:
		return // not orderable by less: Min/Max are left untouched
	}
	if cs.Min == nil || less(v, cs.Min) {
		cs.Min = v
	}
	if cs.Max == nil || less(cs.Max, v) {
		cs.Max = v
	}
}

func less(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case int64:
		bv, ok := b.(int64)
		return ok && av < bv
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Before(bv)
	default:
		return false
	}
}

// ComputeStats is the exported entry point callers outside this package
// use to derive a row group's statistics directly from its entities
// (e.g. an in-memory query.Source), ahead of a parquet round trip.
func ComputeStats(entities []*model.Entity, shredFields []string) *RowGroupStats {
	return computeStats(entities, shredFields)
}

// computeStats derives per-row statistics for the core orderable
// columns directly from entities, ahead of Variant/shredded encoding.
func computeStats(entities []*model.Entity, shredFields []string) *RowGroupStats {
	stats := newRowGroupStats()
	stats.RowCount = len(entities)
	for _, e := range entities {
		stats.observe(model.FieldID, e.ID)
		stats.observe(model.FieldType, e.Type)
		stats.observe(model.FieldCreatedAt, timeOrZero(e.CreatedAt))
		stats.observe(model.FieldUpdatedAt, timeOrZero(e.UpdatedAt))
		stats.observe(model.FieldVersion, int64(e.Version))
		for _, f := range shredFields {
			v, ok := e.Fields[f]
			if !ok {
				stats.observe(f, nil)
				continue
			}
			stats.observe(f, v)
		}
	}
	return stats
}
