package mutation

import "github.com/parquedb/parquedb/pkg/model"

// applyOps runs spec's operators against e.Fields in the fixed order
// $set, $unset, $inc (spec §4.9).
func applyOps(e *model.Entity, spec UpdateSpec) {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	if len(spec.Set) > 0 {
		deepMerge(e.Fields, spec.Set)
	}
	for _, k := range spec.Unset {
		delete(e.Fields, k)
	}
	for k, v := range spec.Inc {
		delta, ok := toFloat(v)
		if !ok {
			continue
		}
		existing, present := e.Fields[k]
		if !present {
			e.Fields[k] = delta
			continue
		}
		cur, ok := toFloat(existing)
		if !ok {
			continue // $inc is numeric-only; a non-numeric field is left untouched
		}
		e.Fields[k] = cur + delta
	}
}

// deepMerge writes every key of src into dst, recursing into nested
// maps on both sides instead of overwriting them wholesale ($set
// "deep-merge", spec §4.9).
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				deepMerge(dv, sv)
				continue
			}
		}
		dst[k] = v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
