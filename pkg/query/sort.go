package query

import "sort"

// SortField is one key of a multi-field sort spec; Desc corresponds to
// the "desc"/-1 direction, false to "asc"/1 (spec §4.8).
type SortField struct {
	Field string
	Desc  bool
}

// SortDocs stably sorts docs by fields in order, with nulls and
// missing values always sorting last regardless of direction
// (spec §4.8: "nulls and undefined sort last").
func SortDocs(docs []map[string]any, fields []SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			a, b := docs[i][f.Field], docs[j][f.Field]
			if (a == nil) != (b == nil) {
				return b == nil // a null sorts after a value in either direction
			}
			cmp := compareSortValues(a, b)
			if cmp == 0 {
				continue
			}
			if f.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareSortValues(a, b any) int {
	aNil, bNil := a == nil, b == nil
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return 1
	case bNil:
		return -1
	}
	if cmp, ok := compareValues(a, b); ok {
		return cmp
	}
	return 0
}
