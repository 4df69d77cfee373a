package model

// CollectionState summarizes one collection's content for a DatabaseState (spec §3).
type CollectionState struct {
	DataHash   string `json:"dataHash"`
	SchemaHash string `json:"schemaHash"`
	RowCount   int64  `json:"rowCount"`
}

// RelationshipState summarizes the forward/reverse relationship manifests.
type RelationshipState struct {
	ForwardHash string `json:"forwardHash"`
	ReverseHash string `json:"reverseHash"`
}

// EventLogPosition marks a point in the WAL a DatabaseState was captured at.
type EventLogPosition struct {
	SegmentID int `json:"segmentId"`
	Offset    int `json:"offset"`
}

// DatabaseState is the content a Commit points at (spec §3).
type DatabaseState struct {
	Collections   map[string]CollectionState `json:"collections"`
	Relationships RelationshipState          `json:"relationships"`
	EventLog      EventLogPosition           `json:"eventLogPosition"`
}

// Commit is a content-addressed record linking a DatabaseState to its
// parents (spec §3). Hash is computed by the branch package over the
// canonicalized {state, parents, message, author, timestamp}.
type Commit struct {
	Hash      string        `json:"hash"`
	Parents   []string      `json:"parents"`
	Message   string        `json:"message"`
	Author    string        `json:"author"`
	Timestamp int64         `json:"timestamp"`
	State     DatabaseState `json:"state"`
}

// HashableCommit is the subset of Commit fields that feed the content hash,
// exported separately so the hash input is explicit and stable regardless
// of how Commit itself evolves.
type HashableCommit struct {
	State     DatabaseState `json:"state"`
	Parents   []string      `json:"parents"`
	Message   string        `json:"message"`
	Author    string        `json:"author"`
	Timestamp int64         `json:"timestamp"`
}
