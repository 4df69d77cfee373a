package query

// Projection selects which fields a result document carries: Include
// lists fields to keep (all else dropped), Exclude lists fields to
// drop (all else kept). The two are never combined; an empty
// Projection returns documents unchanged (spec §4.8).
type Projection struct {
	Include []string
	Exclude []string
}

// IsEmpty reports whether p would leave a document unmodified.
func (p Projection) IsEmpty() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// Apply returns the projected view of doc. Fields named in Include but
// absent from doc are silently omitted (spec §4.8).
func (p Projection) Apply(doc map[string]any) map[string]any {
	if p.IsEmpty() {
		return doc
	}
	out := make(map[string]any, len(doc))
	if len(p.Include) > 0 {
		for _, f := range p.Include {
			if v, ok := doc[f]; ok {
				out[f] = v
			}
		}
		return out
	}
	excluded := make(map[string]bool, len(p.Exclude))
	for _, f := range p.Exclude {
		excluded[f] = true
	}
	for k, v := range doc {
		if !excluded[k] {
			out[k] = v
		}
	}
	return out
}
