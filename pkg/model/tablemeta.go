package model

// Snapshot is an immutable commit of a table's data files with a parent
// pointer (spec §3, the "table Snapshot", not to be confused with
// EntitySnapshot).
type Snapshot struct {
	SnapshotID       int64  `json:"snapshot-id"`
	ParentSnapshotID int64  `json:"parent-snapshot-id,omitempty"`
	TimestampMs      int64  `json:"timestamp-ms"`
	ManifestList     string `json:"manifest-list"`
}

// PartitionSpec is a placeholder for Iceberg-style partition specs; the
// core does not partition data today but the field is carried so
// metadata round-trips losslessly and future partitioning has a slot.
type PartitionSpec struct {
	SpecID int64          `json:"spec-id"`
	Fields []PartitionSpecField `json:"fields,omitempty"`
}

// PartitionSpecField names one partition transform.
type PartitionSpecField struct {
	SourceID  int64  `json:"source-id"`
	Name      string `json:"name"`
	Transform string `json:"transform"`
}

// TableMetadata is the Iceberg-shaped per-namespace metadata document
// (spec §3). version-hint.text points at the path of the current one.
type TableMetadata struct {
	FormatVersion      int             `json:"format-version"`
	Location           string          `json:"location"`
	Schemas            []Schema        `json:"schemas"`
	CurrentSchemaIndex int             `json:"current-schema-id"`
	PartitionSpecs     []PartitionSpec `json:"partition-specs"`
	Snapshots          []Snapshot      `json:"snapshots"`
	CurrentSnapshotID  int64           `json:"current-snapshot-id"`
}

// CurrentSchema returns the schema TableMetadata currently uses.
func (m *TableMetadata) CurrentSchema() *Schema {
	if len(m.Schemas) == 0 {
		return nil
	}
	idx := m.CurrentSchemaIndex
	if idx < 0 || idx >= len(m.Schemas) {
		idx = len(m.Schemas) - 1
	}
	return &m.Schemas[idx]
}

// CurrentSnapshot returns the Snapshot matching CurrentSnapshotID, if any.
func (m *TableMetadata) CurrentSnapshot() (Snapshot, bool) {
	for _, s := range m.Snapshots {
		if s.SnapshotID == m.CurrentSnapshotID {
			return s, true
		}
	}
	return Snapshot{}, false
}

// MaxSnapshotID returns the largest snapshot-id present, or 0 if none.
func (m *TableMetadata) MaxSnapshotID() int64 {
	var max int64
	for _, s := range m.Snapshots {
		if s.SnapshotID > max {
			max = s.SnapshotID
		}
	}
	return max
}

// ValidateSnapshotChain checks the acyclic-parent invariant from spec §3:
// every non-initial snapshot has exactly one parent which exists, and
// parent IDs are strictly smaller than their child's.
func (m *TableMetadata) ValidateSnapshotChain() error {
	byID := make(map[int64]Snapshot, len(m.Snapshots))
	for _, s := range m.Snapshots {
		byID[s.SnapshotID] = s
	}
	for _, s := range m.Snapshots {
		if s.ParentSnapshotID == 0 {
			continue // initial snapshot
		}
		parent, ok := byID[s.ParentSnapshotID]
		if !ok {
			return &ChainError{SnapshotID: s.SnapshotID, Reason: "parent snapshot not found"}
		}
		if parent.SnapshotID >= s.SnapshotID {
			return &ChainError{SnapshotID: s.SnapshotID, Reason: "parent snapshot-id is not strictly smaller"}
		}
	}
	return nil
}

// ChainError reports a broken snapshot-chain invariant.
type ChainError struct {
	SnapshotID int64
	Reason     string
}

func (e *ChainError) Error() string {
	return "model: snapshot chain invalid at " + itoa(e.SnapshotID) + ": " + e.Reason
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
