package replay

import "github.com/parquedb/parquedb/pkg/model"

// Upgrader mutates an event's Before/After payloads in place to bring
// it from its recorded schema version to Version(), stamping
// metadata.schemaVersion (and, for field renames, upgradedFrom) as it
// goes (spec §4.4).
type Upgrader interface {
	Version() int
	Upgrade(e *model.Event)
}

// FieldRenameUpgrader rewrites keys in Before/After per an old->new
// mapping, the upgrader shape spec §4.4 names explicitly.
type FieldRenameUpgrader struct {
	ToVersion int
	Renames   map[string]string
}

// Version returns the schema version this upgrader produces.
func (u *FieldRenameUpgrader) Version() int { return u.ToVersion }

// Upgrade renames matching keys in e.Before and e.After and stamps
// metadata.upgradedFrom with the event's prior version.
func (u *FieldRenameUpgrader) Upgrade(e *model.Event) {
	from := schemaVersion(e)
	e.Before = renameKeys(e.Before, u.Renames)
	e.After = renameKeys(e.After, u.Renames)
	if e.Metadata == nil {
		e.Metadata = &model.EventMetadata{}
	}
	e.Metadata.SchemaVersion = u.ToVersion
	e.Metadata.UpgradedFrom = from
}

func renameKeys(m map[string]any, renames map[string]string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nk, ok := renames[k]; ok {
			out[nk] = v
			continue
		}
		out[k] = v
	}
	return out
}
