package query

import (
	"testing"

	"github.com/parquedb/parquedb/pkg/parquetio"
)

func statsFor(col string, min, max any) *parquetio.RowGroupStats {
	return &parquetio.RowGroupStats{
		RowCount: 10,
		Columns:  map[string]*parquetio.ColumnStats{col: {Min: min, Max: max}},
	}
}

func TestRowGroupMightMatch_EqualityWithinRange(t *testing.T) {
	stats := statsFor("age", float64(10), float64(50))
	if !RowGroupMightMatch(map[string]any{"age": float64(25)}, stats) {
		t.Fatal("expected in-range equality to match")
	}
	if RowGroupMightMatch(map[string]any{"age": float64(100)}, stats) {
		t.Fatal("expected out-of-range equality to be pruned")
	}
}

func TestRowGroupMightMatch_ComparisonOperators(t *testing.T) {
	stats := statsFor("age", float64(10), float64(50))

	if RowGroupMightMatch(map[string]any{"age": map[string]any{"$gt": float64(50)}}, stats) {
		t.Fatal("expected $gt beyond max to be pruned")
	}
	if !RowGroupMightMatch(map[string]any{"age": map[string]any{"$gt": float64(5)}}, stats) {
		t.Fatal("expected $gt below max to possibly match")
	}
	if RowGroupMightMatch(map[string]any{"age": map[string]any{"$lt": float64(10)}}, stats) {
		t.Fatal("expected $lt at min to be pruned")
	}
}

func TestRowGroupMightMatch_InChecksAnyValue(t *testing.T) {
	stats := statsFor("age", float64(10), float64(50))
	cond := map[string]any{"age": map[string]any{"$in": []any{float64(1), float64(20)}}}
	if !RowGroupMightMatch(cond, stats) {
		t.Fatal("expected $in with one in-range value to match")
	}
	condOut := map[string]any{"age": map[string]any{"$in": []any{float64(1), float64(2)}}}
	if RowGroupMightMatch(condOut, stats) {
		t.Fatal("expected $in with no in-range values to be pruned")
	}
}

func TestRowGroupMightMatch_MissingStatsIncludesConservatively(t *testing.T) {
	stats := &parquetio.RowGroupStats{Columns: map[string]*parquetio.ColumnStats{}}
	if !RowGroupMightMatch(map[string]any{"unindexed": "x"}, stats) {
		t.Fatal("expected column with no stats to be included conservatively")
	}
}

func TestRowGroupMightMatch_AndOr(t *testing.T) {
	stats := statsFor("age", float64(10), float64(50))
	and := map[string]any{"$and": []any{
		map[string]any{"age": float64(25)},
		map[string]any{"age": map[string]any{"$gt": float64(100)}},
	}}
	if RowGroupMightMatch(and, stats) {
		t.Fatal("expected $and to prune when one clause is out of range")
	}

	or := map[string]any{"$or": []any{
		map[string]any{"age": float64(25)},
		map[string]any{"age": float64(1000)},
	}}
	if !RowGroupMightMatch(or, stats) {
		t.Fatal("expected $or to pass when one clause is in range")
	}
}

func TestRequiredColumns_CollectsFilterAndProjection(t *testing.T) {
	filter := map[string]any{
		"$and": []any{
			map[string]any{"age": map[string]any{"$gt": float64(1)}},
			map[string]any{"status": "active"},
		},
	}
	cols := RequiredColumns(filter, []string{"name"})
	want := map[string]bool{"age": true, "status": true, "name": true}
	if len(cols) != len(want) {
		t.Fatalf("got %v, want keys %v", cols, want)
	}
	for _, c := range cols {
		if !want[c] {
			t.Fatalf("unexpected column %q", c)
		}
	}
}
