package parquedb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/parquedb/parquedb/pkg/index"
	"github.com/parquedb/parquedb/pkg/index/bloom"
	"github.com/parquedb/parquedb/pkg/index/fts"
	"github.com/parquedb/parquedb/pkg/index/hashindex"
	"github.com/parquedb/parquedb/pkg/index/vector"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/mutation"
	"github.com/parquedb/parquedb/pkg/parquetio"
	"github.com/parquedb/parquedb/pkg/query"
)

// Table is one namespace's working set plus its secondary indexes. It
// implements mutation.Store and query.Source directly against an
// in-memory map, so every write re-diffs and re-applies the single row
// group it holds (spec §4.5's incremental maintenance collapses to "the
// whole table changed" at this scale, which is the same code path a
// multi-row-group parquet table exercises per group).
type Table struct {
	mu        sync.RWMutex
	namespace string
	schema    *model.Schema
	entities  map[string]*model.Entity
	order     []string // insertion order, gives each doc a stable RowOffset

	hashIndexes   map[string]*hashindex.Index
	vectorIndexes map[string]*vector.Index
	ftsIndexes    map[string]*fts.Index
	blooms        map[string]*bloom.RowGroupBlooms
	managers      map[string]*index.Manager // one per indexed field

	lastChecksum string
}

// NewTable creates an empty Table for namespace, building one
// hash/bloom index per field referenced by a hash IndexDefinition, one
// HNSW index per vector IndexDefinition, and one BM25 index per fts
// IndexDefinition (spec §4.5).
func NewTable(namespace string, schema *model.Schema, indexes []model.IndexDefinition) *Table {
	t := &Table{
		namespace:     namespace,
		schema:        schema,
		entities:      map[string]*model.Entity{},
		hashIndexes:   map[string]*hashindex.Index{},
		vectorIndexes: map[string]*vector.Index{},
		ftsIndexes:    map[string]*fts.Index{},
		blooms:        map[string]*bloom.RowGroupBlooms{},
		managers:      map[string]*index.Manager{},
	}
	for _, def := range indexes {
		for _, fieldRef := range def.Fields {
			t.attachIndex(def.Type, fieldRef.Path)
		}
	}
	return t
}

func (t *Table) attachIndex(typ model.IndexType, field string) {
	mgr := t.managers[field]
	if mgr == nil {
		mgr = index.NewManager(t.namespace)
		t.managers[field] = mgr
	}
	switch typ {
	case model.IndexTypeHash:
		hi := hashindex.New()
		t.hashIndexes[field] = hi
		mgr.Register(&index.HashListener{Field: field, Index: hi})
		bl := bloom.NewRowGroupBlooms(1024, 0.01)
		t.blooms[field] = bl
		mgr.Register(&index.BloomListener{Field: field, Blooms: bl})
	case model.IndexTypeVector:
		vi := vector.New(vector.DefaultConfig())
		t.vectorIndexes[field] = vi
		mgr.Register(&index.VectorListener{Field: field, Index: vi})
	case model.IndexTypeFTS:
		fi := fts.New(fts.DefaultConfig())
		t.ftsIndexes[field] = fi
		mgr.Register(&index.FTSListener{Field: field, Index: fi})
	}
}

// --- mutation.Store ---

func (t *Table) Get(id string) (*model.Entity, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entities[id]
	if !ok {
		return nil, false, nil
	}
	return e.Clone(), true, nil
}

func (t *Table) Put(e *model.Entity) error {
	t.mu.Lock()
	if _, exists := t.entities[e.ID]; !exists {
		t.order = append(t.order, e.ID)
	}
	t.entities[e.ID] = e.Clone()
	t.mu.Unlock()
	return t.reindex()
}

var _ mutation.Store = (*Table)(nil)

// --- query.Source ---

func (t *Table) RowGroups() []query.RowGroupMeta {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.order) == 0 {
		return nil
	}
	return []query.RowGroupMeta{{Index: 0, Stats: t.computeStatsLocked()}}
}

func (t *Table) ReadRowGroup(idx int) ([]*model.Entity, error) {
	if idx != 0 {
		return nil, fmt.Errorf("parquedb: no such row group %d", idx)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*model.Entity, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.entities[id].Clone())
	}
	return out, nil
}

func (t *Table) GetByID(id string) (*model.Entity, bool, error) {
	return t.Get(id)
}

var _ query.Source = (*Table)(nil)

// --- query.TextSearcher ---

// SearchText unions the hits from every fts-indexed field (spec §4.8's
// $text routes through whichever full-text indexes the schema defines).
func (t *Table) SearchText(q string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := map[string]bool{}
	var ids []string
	for _, fi := range t.ftsIndexes {
		for _, r := range fi.Search(q) {
			if !seen[r.Ref.DocID] {
				seen[r.Ref.DocID] = true
				ids = append(ids, r.Ref.DocID)
			}
		}
	}
	return ids
}

// --- index maintenance ---

// reindex recomputes the table's single checksum and, if it changed,
// replays the row group through every field's index.Manager (spec
// §4.5). Deletes aren't distinguished from updates at this granularity:
// any mutation marks the whole row group modified.
func (t *Table) reindex() error {
	t.mu.Lock()
	checksum := t.computeChecksumLocked()
	changed := checksum != t.lastChecksum
	t.lastChecksum = checksum
	t.mu.Unlock()
	if !changed {
		return nil
	}
	current := map[int]string{0: checksum}
	for field, mgr := range t.managers {
		reader := &fieldRowGroupReader{table: t, field: field}
		if err := mgr.Apply(current, reader); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) computeChecksumLocked() string {
	ids := make([]string, 0, len(t.order))
	ids = append(ids, t.order...)
	sort.Strings(ids)
	h := ""
	for _, id := range ids {
		h += fmt.Sprintf("%s@%d;", id, t.entities[id].Version)
	}
	return h
}

func (t *Table) computeStatsLocked() *parquetio.RowGroupStats {
	fieldSet := map[string]struct{}{}
	entities := make([]*model.Entity, 0, len(t.order))
	for _, id := range t.order {
		e := t.entities[id]
		entities = append(entities, e)
		for f := range e.Fields {
			fieldSet[f] = struct{}{}
		}
	}
	fields := make([]string, 0, len(fieldSet))
	for f := range fieldSet {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return parquetio.ComputeStats(entities, fields)
}

// fieldRowGroupReader extracts one field's value per document, the
// shape index.Listener implementations expect (spec §4.5).
type fieldRowGroupReader struct {
	table *Table
	field string
}

func (r *fieldRowGroupReader) ReadRowGroup(rowGroup int) ([]index.RowRecord, error) {
	if rowGroup != 0 {
		return nil, nil
	}
	r.table.mu.RLock()
	defer r.table.mu.RUnlock()
	out := make([]index.RowRecord, 0, len(r.table.order))
	for offset, id := range r.table.order {
		e := r.table.entities[id]
		var value any
		if r.field == model.FieldID {
			value = e.ID
		} else {
			value = e.Fields[r.field]
		}
		out = append(out, index.RowRecord{DocID: id, RowOffset: uint64(offset), Value: value})
	}
	return out, nil
}
