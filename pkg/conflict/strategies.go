package conflict

import "fmt"

// Ours always keeps the local side's value.
func Ours() Strategy {
	return func(c *Conflict) Resolution {
		return Resolution{ResolvedValue: c.Ours.Value, Strategy: "ours"}
	}
}

// Theirs always keeps the remote side's value.
func Theirs() Strategy {
	return func(c *Conflict) Resolution {
		return Resolution{ResolvedValue: c.Theirs.Value, Strategy: "theirs"}
	}
}

// Latest picks the side with the greater ts; ties go to ours (spec §4.12).
func Latest() Strategy {
	return func(c *Conflict) Resolution {
		if c.Theirs.TS > c.Ours.TS {
			return Resolution{ResolvedValue: c.Theirs.Value, Strategy: "latest"}
		}
		return Resolution{ResolvedValue: c.Ours.Value, Strategy: "latest"}
	}
}

// Manual marks the conflict as requiring a human decision without
// picking a value.
func Manual() Strategy {
	return func(c *Conflict) Resolution {
		return Resolution{Strategy: "manual", RequiresManualResolution: true}
	}
}

// FallbackChain tries each strategy in order, keeping the first
// resolution that doesn't require manual resolution. If every strategy
// in the chain requires manual resolution, the last one's result wins.
func FallbackChain(strategies ...Strategy) Strategy {
	return func(c *Conflict) Resolution {
		var last Resolution
		for _, s := range strategies {
			last = s(c)
			if !last.RequiresManualResolution {
				return last
			}
		}
		return last
	}
}

// FieldMap dispatches to byField[c.Field] when present, falling back to
// def otherwise.
func FieldMap(byField map[string]Strategy, def Strategy) Strategy {
	return func(c *Conflict) Resolution {
		if s, ok := byField[c.Field]; ok {
			return s(c)
		}
		return def(c)
	}
}

// PreferPredicate picks Ours when pred(c) is true, Theirs otherwise.
func PreferPredicate(pred func(c *Conflict) bool) Strategy {
	return func(c *Conflict) Resolution {
		if pred(c) {
			return Resolution{ResolvedValue: c.Ours.Value, Strategy: "predicate"}
		}
		return Resolution{ResolvedValue: c.Theirs.Value, Strategy: "predicate"}
	}
}

// PreferNonNull keeps whichever side's value is non-nil. When both
// sides are nil, or both are non-nil (a genuine value conflict, not a
// null-vs-value one), it defers to manual resolution.
func PreferNonNull() Strategy {
	return func(c *Conflict) Resolution {
		oursNil, theirsNil := c.Ours.Value == nil, c.Theirs.Value == nil
		switch {
		case oursNil && !theirsNil:
			return Resolution{ResolvedValue: c.Theirs.Value, Strategy: "prefer-non-null"}
		case theirsNil && !oursNil:
			return Resolution{ResolvedValue: c.Ours.Value, Strategy: "prefer-non-null"}
		default:
			return Resolution{Strategy: "prefer-non-null", RequiresManualResolution: true}
		}
	}
}

// StringConcat joins both sides' string values with sep. Non-string
// values defer to manual resolution.
func StringConcat(sep string) Strategy {
	return func(c *Conflict) Resolution {
		ours, ok1 := c.Ours.Value.(string)
		theirs, ok2 := c.Theirs.Value.(string)
		if !ok1 || !ok2 {
			return Resolution{Strategy: "string-concat", RequiresManualResolution: true,
				Explanation: "both sides must be strings to concatenate"}
		}
		return Resolution{ResolvedValue: ours + sep + theirs, Strategy: "string-concat"}
	}
}

// ArrayUnionMerge merges both sides' slices, deduplicating by the
// fmt.Sprint representation of each element and preserving ours' order
// first. Non-slice values defer to manual resolution.
func ArrayUnionMerge() Strategy {
	return func(c *Conflict) Resolution {
		ours, ok1 := toSlice(c.Ours.Value)
		theirs, ok2 := toSlice(c.Theirs.Value)
		if !ok1 || !ok2 {
			return Resolution{Strategy: "array-union-merge", RequiresManualResolution: true,
				Explanation: "both sides must be arrays to merge"}
		}
		seen := map[string]bool{}
		merged := make([]any, 0, len(ours)+len(theirs))
		for _, v := range append(append([]any{}, ours...), theirs...) {
			key := fmt.Sprint(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, v)
		}
		return Resolution{ResolvedValue: merged, Strategy: "array-union-merge"}
	}
}

func toSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}
