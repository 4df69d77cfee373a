package model

// FieldType enumerates the primitive column types a Schema field may declare (spec §3).
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInt       FieldType = "int"
	FieldTypeLong      FieldType = "long"
	FieldTypeFloat     FieldType = "float"
	FieldTypeDouble    FieldType = "double"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeBinary    FieldType = "binary"
	FieldTypeTimestamp FieldType = "timestamp"
)

// SchemaField describes one column of a Schema.
type SchemaField struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Nullable    bool      `json:"nullable,omitempty"`
	RenamedFrom string    `json:"renamedFrom,omitempty"`
}

// Schema describes the column layout of a namespace (spec §3).
type Schema struct {
	Name    string        `json:"name"`
	Version int           `json:"version,omitempty"`
	Fields  []SchemaField `json:"fields"`
}

// coreSchemaFields are always injected into a Schema and never dropped by evolution.
var coreSchemaFields = []SchemaField{
	{Name: FieldID, Type: FieldTypeString, Required: true},
	{Name: FieldType, Type: FieldTypeString, Required: true},
	{Name: FieldName, Type: FieldTypeString},
	{Name: FieldCreatedAt, Type: FieldTypeTimestamp, Required: true},
	{Name: FieldCreatedBy, Type: FieldTypeString},
	{Name: FieldUpdatedAt, Type: FieldTypeTimestamp, Required: true},
	{Name: FieldUpdatedBy, Type: FieldTypeString},
	{Name: FieldDeletedAt, Type: FieldTypeTimestamp, Nullable: true},
	{Name: FieldDeletedBy, Type: FieldTypeString, Nullable: true},
	{Name: FieldVersion, Type: FieldTypeLong, Required: true},
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (SchemaField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

// WithCoreFields returns a copy of s with every core field present,
// injecting any that are missing. Core fields are never removed (spec §3 invariant).
func (s *Schema) WithCoreFields() *Schema {
	out := &Schema{Name: s.Name, Version: s.Version}
	seen := make(map[string]bool, len(s.Fields))
	out.Fields = append(out.Fields, s.Fields...)
	for _, f := range out.Fields {
		seen[f.Name] = true
	}
	for _, cf := range coreSchemaFields {
		if !seen[cf.Name] {
			out.Fields = append(out.Fields, cf)
		}
	}
	return out
}

// Evolve applies a set of field changes (additions, renames) on top of s,
// producing a new Schema. Core fields survive unconditionally. A field
// present in updates with RenamedFrom set replaces the field of that
// old name (scenario in spec §8.2).
func (s *Schema) Evolve(updates []SchemaField) *Schema {
	out := &Schema{Name: s.Name, Version: s.Version + 1}

	renamedAway := make(map[string]bool)
	for _, u := range updates {
		if u.RenamedFrom != "" {
			renamedAway[u.RenamedFrom] = true
		}
	}

	for _, f := range s.Fields {
		if renamedAway[f.Name] {
			continue
		}
		out.Fields = append(out.Fields, f)
	}

	byName := make(map[string]int, len(out.Fields))
	for i, f := range out.Fields {
		byName[f.Name] = i
	}
	for _, u := range updates {
		if i, ok := byName[u.Name]; ok {
			out.Fields[i] = u
		} else {
			out.Fields = append(out.Fields, u)
			byName[u.Name] = len(out.Fields) - 1
		}
	}

	return out.WithCoreFields()
}

// IndexType enumerates the kinds of secondary index the engine supports (spec §3, §4.5).
type IndexType string

const (
	IndexTypeHash   IndexType = "hash"
	IndexTypeFTS    IndexType = "fts"
	IndexTypeVector IndexType = "vector"
)

// IndexFieldRef names one field an index is built over.
type IndexFieldRef struct {
	Path string `json:"path"`
}

// IndexDefinition describes a secondary index (spec §3).
type IndexDefinition struct {
	Name    string          `json:"name"`
	Type    IndexType       `json:"type"`
	Fields  []IndexFieldRef `json:"fields"`
	Options map[string]any  `json:"options,omitempty"`
}
