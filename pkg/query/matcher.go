package query

import "strings"

// Match reports whether doc — a flattened entity map as produced by
// model.Entity.ToMap — satisfies filter (spec §4.8). $text is ignored
// here: callers route it to the FTS index ahead of calling Match and
// intersect the candidate set separately.
func Match(filter map[string]any, doc map[string]any) bool {
	for key, cond := range filter {
		switch key {
		case "$text":
			continue
		case "$and":
			for _, sub := range subFilters(cond) {
				if !Match(sub, doc) {
					return false
				}
			}
		case "$or":
			subs := subFilters(cond)
			if len(subs) == 0 {
				continue
			}
			matched := false
			for _, sub := range subs {
				if Match(sub, doc) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		case "$nor":
			for _, sub := range subFilters(cond) {
				if Match(sub, doc) {
					return false
				}
			}
		case "$not":
			if sub, ok := cond.(map[string]any); ok && Match(sub, doc) {
				return false
			}
		default:
			val, present := doc[key]
			if !matchField(val, present, cond) {
				return false
			}
		}
	}
	return true
}

func subFilters(cond any) []map[string]any {
	switch v := cond.(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, it := range v {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// matchField evaluates one field's clause: either a direct equality
// value or an operator map ({$gt: 5, $lt: 10}, all of which must hold).
func matchField(value any, present bool, cond any) bool {
	opMap, ok := cond.(map[string]any)
	if !ok || !hasOperatorKey(opMap) {
		return equalValues(value, cond)
	}

	var regexOptions string
	if o, ok := opMap["$options"]; ok {
		regexOptions, _ = o.(string)
	}

	for op, arg := range opMap {
		switch op {
		case "$options":
			continue
		case "$eq":
			if !equalValues(value, arg) {
				return false
			}
		case "$ne":
			if equalValues(value, arg) {
				return false
			}
		case "$gt":
			if cmp, ok := compareValues(value, arg); !ok || cmp <= 0 {
				return false
			}
		case "$gte":
			if cmp, ok := compareValues(value, arg); !ok || cmp < 0 {
				return false
			}
		case "$lt":
			if cmp, ok := compareValues(value, arg); !ok || cmp >= 0 {
				return false
			}
		case "$lte":
			if cmp, ok := compareValues(value, arg); !ok || cmp > 0 {
				return false
			}
		case "$in":
			if !containsAny(arg, value) {
				return false
			}
		case "$nin":
			if containsAny(arg, value) {
				return false
			}
		case "$exists":
			want, _ := arg.(bool)
			if present != want {
				return false
			}
		case "$regex":
			pattern, _ := arg.(string)
			s, isStr := value.(string)
			if !isStr {
				return false
			}
			re, err := CompileSafeRegex(pattern, regexOptions)
			if err != nil || !re.MatchString(s) {
				return false
			}
		case "$startsWith":
			s, isStr := value.(string)
			prefix, _ := arg.(string)
			if !isStr || !strings.HasPrefix(s, prefix) {
				return false
			}
		case "$endsWith":
			s, isStr := value.(string)
			suffix, _ := arg.(string)
			if !isStr || !strings.HasSuffix(s, suffix) {
				return false
			}
		case "$contains":
			s, isStr := value.(string)
			sub, _ := arg.(string)
			if !isStr || !strings.Contains(s, sub) {
				return false
			}
		case "$all":
			if !matchAll(value, arg) {
				return false
			}
		case "$size":
			if !matchSize(value, arg) {
				return false
			}
		default:
			// Unknown operator: no predicate to apply, no reason to reject.
		}
	}
	return true
}

func hasOperatorKey(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func containsAny(set any, value any) bool {
	arr, ok := toSlice(set)
	if !ok {
		return false
	}
	for _, v := range arr {
		if equalValues(value, v) {
			return true
		}
	}
	return false
}

func matchAll(value any, want any) bool {
	haystack, ok := toSlice(value)
	if !ok {
		return false
	}
	needles, ok := toSlice(want)
	if !ok {
		return false
	}
	for _, n := range needles {
		found := false
		for _, h := range haystack {
			if equalValues(h, n) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchSize(value any, want any) bool {
	arr, ok := toSlice(value)
	if !ok {
		return false
	}
	n, ok := toFloat(want)
	if !ok {
		return false
	}
	return float64(len(arr)) == n
}

// toSlice expects the []any shape encoding/json produces for arrays;
// callers building filters programmatically should use that shape too.
func toSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case nil:
		return nil, false
	default:
		return nil, false
	}
}
