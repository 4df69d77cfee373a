package conflict

import (
	"fmt"
	"reflect"
)

// DetectFieldConflicts compares base/ours/theirs field maps for one
// entity and returns one concurrent_update Conflict per key where both
// sides diverged from base in different, mutually incompatible ways
// (spec §4.12).
func DetectFieldConflicts(entityID string, base, ours, theirs map[string]any, oursMeta, theirsMeta Side) []*Conflict {
	keys := map[string]struct{}{}
	for k := range ours {
		keys[k] = struct{}{}
	}
	for k := range theirs {
		keys[k] = struct{}{}
	}

	var out []*Conflict
	for k := range keys {
		baseVal, oursVal, theirsVal := base[k], ours[k], theirs[k]
		if equal(oursVal, theirsVal) {
			continue // both sides agree, no conflict
		}
		if equal(baseVal, oursVal) || equal(baseVal, theirsVal) {
			continue // only one side actually changed the field
		}
		o, t := oursMeta, theirsMeta
		o.Value, o.Exists = oursVal, true
		t.Value, t.Exists = theirsVal, true
		out = append(out, &Conflict{
			ID:       fmt.Sprintf("%s/%s", entityID, k),
			Kind:     ConcurrentUpdate,
			EntityID: entityID,
			Field:    k,
			Base:     baseVal,
			Ours:     o,
			Theirs:   t,
		})
	}
	return out
}

// DetectDeleteUpdate reports a delete_update conflict when one side
// deleted the entity while the other updated one of its fields (spec
// §4.12).
func DetectDeleteUpdate(entityID string, oursDeleted, theirsDeleted bool, oursMeta, theirsMeta Side) *Conflict {
	if oursDeleted == theirsDeleted {
		return nil
	}
	oursMeta.Value, theirsMeta.Value = oursDeleted, theirsDeleted
	return &Conflict{
		ID:       fmt.Sprintf("%s/__deleted__", entityID),
		Kind:     DeleteUpdate,
		EntityID: entityID,
		Field:    "__deleted__",
		Ours:     oursMeta,
		Theirs:   theirsMeta,
	}
}

// DetectCreateCreate reports a create_create conflict when two sides
// independently created an entity at the same id with different
// content and no common base exists yet (spec §4.12).
func DetectCreateCreate(entityID string, ours, theirs map[string]any, oursMeta, theirsMeta Side) *Conflict {
	if equal(ours, theirs) {
		return nil
	}
	oursMeta.Value, theirsMeta.Value = ours, theirs
	return &Conflict{
		ID:       fmt.Sprintf("%s/__created__", entityID),
		Kind:     CreateCreate,
		EntityID: entityID,
		Ours:     oursMeta,
		Theirs:   theirsMeta,
	}
}

func equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
