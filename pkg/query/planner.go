package query

import (
	"strings"

	"github.com/parquedb/parquedb/pkg/parquetio"
)

// RowGroupMightMatch reports whether a row group could possibly satisfy
// filter, consulting column statistics for pushdown (spec §4.8). It
// errs toward "might match": operators it can't prune against
// (regex, $ne, $exists, ...), missing stats, and $not/$nor/$text all
// return true rather than risk skipping a row group that matches.
func RowGroupMightMatch(filter map[string]any, stats *parquetio.RowGroupStats) bool {
	if stats == nil {
		return true
	}
	for key, cond := range filter {
		switch key {
		case "$and":
			for _, sub := range subFilters(cond) {
				if !RowGroupMightMatch(sub, stats) {
					return false
				}
			}
		case "$or":
			subs := subFilters(cond)
			if len(subs) == 0 {
				continue
			}
			possible := false
			for _, sub := range subs {
				if RowGroupMightMatch(sub, stats) {
					possible = true
					break
				}
			}
			if !possible {
				return false
			}
		case "$nor", "$not", "$text":
			continue
		default:
			if !fieldMightMatch(key, cond, stats) {
				return false
			}
		}
	}
	return true
}

func fieldMightMatch(field string, cond any, stats *parquetio.RowGroupStats) bool {
	cs, ok := stats.Columns[field]
	if !ok || cs == nil || (cs.Min == nil && cs.Max == nil) {
		return true // missing or hasStats=false: include conservatively
	}

	opMap, isOpMap := cond.(map[string]any)
	if !isOpMap || !hasOperatorKey(opMap) {
		return valueWithinRange(cond, cs)
	}

	for op, arg := range opMap {
		switch op {
		case "$eq":
			if !valueWithinRange(arg, cs) {
				return false
			}
		case "$gt":
			if cs.Max != nil {
				if cmp, ok := compareValues(cs.Max, arg); ok && cmp <= 0 {
					return false
				}
			}
		case "$gte":
			if cs.Max != nil {
				if cmp, ok := compareValues(cs.Max, arg); ok && cmp < 0 {
					return false
				}
			}
		case "$lt":
			if cs.Min != nil {
				if cmp, ok := compareValues(cs.Min, arg); ok && cmp >= 0 {
					return false
				}
			}
		case "$lte":
			if cs.Min != nil {
				if cmp, ok := compareValues(cs.Min, arg); ok && cmp > 0 {
					return false
				}
			}
		case "$in":
			arr, ok := toSlice(arg)
			if !ok {
				continue
			}
			possible := false
			for _, v := range arr {
				if valueWithinRange(v, cs) {
					possible = true
					break
				}
			}
			if !possible {
				return false
			}
		}
	}
	return true
}

func valueWithinRange(v any, cs *parquetio.ColumnStats) bool {
	if cs.Min != nil {
		if cmp, ok := compareValues(v, cs.Min); ok && cmp < 0 {
			return false
		}
	}
	if cs.Max != nil {
		if cmp, ok := compareValues(v, cs.Max); ok && cmp > 0 {
			return false
		}
	}
	return true
}

// RequiredColumns collects the field names a filter and a projection
// reference, the set a caller would restrict a columnar read to.
func RequiredColumns(filter map[string]any, includeProjection []string) []string {
	seen := map[string]bool{}
	collectFilterColumns(filter, seen)
	for _, f := range includeProjection {
		seen[f] = true
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	return out
}

func collectFilterColumns(filter map[string]any, seen map[string]bool) {
	for key, cond := range filter {
		if strings.HasPrefix(key, "$") {
			for _, sub := range subFilters(cond) {
				collectFilterColumns(sub, seen)
			}
			continue
		}
		seen[key] = true
	}
}
