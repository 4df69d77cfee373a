package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/parquedb/parquedb/pkg/log"
	"github.com/parquedb/parquedb/pkg/metrics"
	"github.com/rs/zerolog"
)

// ChangeKind classifies one row group against its previously stored
// checksum (spec §4.5: "Change detection").
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// RowRecord is one row available for (re)indexing within a changed row group.
type RowRecord struct {
	DocID     string
	RowOffset uint64
	Value     any
}

// RowGroupChange describes one row group's classification, plus the
// data a listener needs to react to it: OldDocIDs for groups being
// removed or replaced, NewRows for groups being added or replaced
// (spec §4.5: "for modified, remove docs in that row group and
// re-insert from the new data").
type RowGroupChange struct {
	RowGroup  int
	Kind      ChangeKind
	OldDocIDs []string
	NewRows   []RowRecord
}

// RowGroupReader supplies the current rows of a row group so listeners
// can reindex it after an added/modified classification.
type RowGroupReader interface {
	ReadRowGroup(rowGroup int) ([]RowRecord, error)
}

// Listener reacts to row-group changes for one persisted index (hash,
// bloom, vector, fts). Remap is invoked separately, after compaction
// renumbers row groups (spec §4.5: "Row-group remapping").
type Listener interface {
	Name() string
	Apply(change RowGroupChange) error
	Remap(mapping map[int]int)
}

// ErrorHandler observes an error raised by a listener's Apply call.
// Any panic or error ErrorHandler itself raises is ignored (spec §9).
type ErrorHandler func(err error, change RowGroupChange, listenerName string)

// AggregateError collects every listener error from one Apply/Remap
// pass, for callers running with ThrowOnListenerError enabled (spec §9).
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "index: no errors"
	}
	return fmt.Sprintf("index: %d listener error(s), first: %v", len(e.Errors), e.Errors[0])
}

// Manager orchestrates row-group change detection and fan-out to the
// registered per-index listeners for one namespace (spec §4.5, §9).
type Manager struct {
	mu            sync.Mutex
	namespace     string
	logger        zerolog.Logger
	listeners     []Listener
	checksums     map[int]string
	docIDsByGroup map[int][]string

	// OnError is invoked once per listener error. The default policy
	// logs a warning and swallows the error (spec §9).
	OnError ErrorHandler
	// ThrowOnListenerError, when set, makes Apply/Remap return an
	// AggregateError after every listener has run (spec §9).
	ThrowOnListenerError bool
}

// NewManager returns an empty Manager for namespace ns.
func NewManager(ns string) *Manager {
	m := &Manager{
		namespace:     ns,
		logger:        log.WithNamespace(ns),
		checksums:     map[int]string{},
		docIDsByGroup: map[int][]string{},
	}
	m.OnError = m.defaultOnError
	return m
}

func (m *Manager) defaultOnError(err error, change RowGroupChange, listenerName string) {
	m.logger.Warn().Err(err).Str("listener", listenerName).Int("rowGroup", change.RowGroup).
		Str("change", string(change.Kind)).Msg("index listener error")
}

// Register adds l to the set of listeners notified by Apply and Remap.
func (m *Manager) Register(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// DiffChecksums classifies every row group in current against stored,
// sorted by row group for deterministic iteration (spec §4.5).
func DiffChecksums(stored, current map[int]string) []RowGroupChange {
	var changes []RowGroupChange
	for rg, sum := range current {
		if old, ok := stored[rg]; !ok {
			changes = append(changes, RowGroupChange{RowGroup: rg, Kind: ChangeAdded})
		} else if old != sum {
			changes = append(changes, RowGroupChange{RowGroup: rg, Kind: ChangeModified})
		}
	}
	for rg := range stored {
		if _, ok := current[rg]; !ok {
			changes = append(changes, RowGroupChange{RowGroup: rg, Kind: ChangeRemoved})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].RowGroup < changes[j].RowGroup })
	return changes
}

// Apply diffs current checksums against the last checksums seen for
// this namespace, reads the new data for added/modified row groups via
// reader, and notifies every registered listener. It then remembers
// current as the new baseline. Returns an *AggregateError when
// ThrowOnListenerError is set and at least one listener failed.
func (m *Manager) Apply(current map[int]string, reader RowGroupReader) error {
	m.mu.Lock()
	changes := DiffChecksums(m.checksums, current)
	listeners := append([]Listener(nil), m.listeners...)
	docIDsByGroup := m.docIDsByGroup
	m.mu.Unlock()

	var errs []error
	for i := range changes {
		ch := &changes[i]
		ch.OldDocIDs = docIDsByGroup[ch.RowGroup]

		if ch.Kind != ChangeRemoved {
			rows, err := reader.ReadRowGroup(ch.RowGroup)
			if err != nil {
				errs = append(errs, err)
				metrics.IndexListenerErrorsTotal.WithLabelValues(m.namespace).Inc()
				continue
			}
			ch.NewRows = rows
		}

		for _, l := range listeners {
			timer := metrics.NewTimer()
			err := l.Apply(*ch)
			timer.ObserveDurationVec(metrics.IndexUpdateDuration, m.namespace, l.Name())
			metrics.IndexRowGroupsChanged.WithLabelValues(m.namespace, l.Name(), string(ch.Kind)).Inc()
			if err != nil {
				m.safeOnError(err, *ch, l.Name())
				metrics.IndexListenerErrorsTotal.WithLabelValues(m.namespace).Inc()
				errs = append(errs, err)
			}
		}
	}

	m.mu.Lock()
	m.checksums = cloneChecksums(current)
	newDocIDs := make(map[int][]string, len(current))
	for i := range changes {
		if changes[i].Kind == ChangeRemoved {
			continue
		}
		ids := make([]string, len(changes[i].NewRows))
		for j, r := range changes[i].NewRows {
			ids[j] = r.DocID
		}
		newDocIDs[changes[i].RowGroup] = ids
	}
	for rg, ids := range docIDsByGroup {
		if _, changed := newDocIDs[rg]; changed {
			continue
		}
		if _, stillPresent := current[rg]; stillPresent {
			newDocIDs[rg] = ids
		}
	}
	m.docIDsByGroup = newDocIDs
	m.mu.Unlock()

	if m.ThrowOnListenerError && len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Remap rewrites row-group numbers across every registered listener
// after compaction renumbers row groups, then updates this Manager's
// own bookkeeping the same way (spec §4.5).
func (m *Manager) Remap(mapping map[int]int) error {
	m.mu.Lock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("index: listener %s panicked during remap: %v", l.Name(), r)
				}
			}()
			l.Remap(mapping)
			return nil
		}()
		if err != nil {
			m.safeOnError(err, RowGroupChange{}, l.Name())
			errs = append(errs, err)
		}
	}

	m.mu.Lock()
	remapped := map[int]string{}
	for rg, sum := range m.checksums {
		if newRG, ok := mapping[rg]; ok {
			remapped[newRG] = sum
		}
	}
	m.checksums = remapped
	remappedDocIDs := map[int][]string{}
	for rg, ids := range m.docIDsByGroup {
		if newRG, ok := mapping[rg]; ok {
			remappedDocIDs[newRG] = ids
		}
	}
	m.docIDsByGroup = remappedDocIDs
	m.mu.Unlock()

	if m.ThrowOnListenerError && len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// safeOnError invokes m.OnError, ignoring any panic it raises itself
// (spec §9: "exceptions inside onError itself are ignored").
func (m *Manager) safeOnError(err error, change RowGroupChange, listenerName string) {
	defer func() { _ = recover() }()
	if m.OnError != nil {
		m.OnError(err, change, listenerName)
	}
}

func cloneChecksums(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
