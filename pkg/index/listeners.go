package index

import (
	"fmt"

	"github.com/parquedb/parquedb/pkg/index/bloom"
	"github.com/parquedb/parquedb/pkg/index/fts"
	"github.com/parquedb/parquedb/pkg/index/hashindex"
	"github.com/parquedb/parquedb/pkg/index/vector"
)

func toUint16Map(mapping map[int]int) map[uint16]uint16 {
	out := make(map[uint16]uint16, len(mapping))
	for k, v := range mapping {
		out[uint16(k)] = uint16(v)
	}
	return out
}

// HashListener adapts a hashindex.Index to Listener, keying entries by
// the row's field value formatted as a string (spec §4.5).
type HashListener struct {
	Field string
	Index *hashindex.Index
}

func (l *HashListener) Name() string { return "hash:" + l.Field }

func (l *HashListener) Apply(change RowGroupChange) error {
	switch change.Kind {
	case ChangeRemoved:
		for _, id := range change.OldDocIDs {
			l.Index.RemoveDoc(id)
		}
	case ChangeModified:
		for _, id := range change.OldDocIDs {
			l.Index.RemoveDoc(id)
		}
		fallthrough
	case ChangeAdded:
		for _, row := range change.NewRows {
			if row.Value == nil {
				continue
			}
			l.Index.Put(fmt.Sprint(row.Value), hashindex.Pointer{
				RowGroup:  uint16(change.RowGroup),
				RowOffset: row.RowOffset,
				DocID:     row.DocID,
			})
		}
	}
	return nil
}

func (l *HashListener) Remap(mapping map[int]int) { l.Index.Remap(toUint16Map(mapping)) }

// BloomListener adapts a bloom.RowGroupBlooms to Listener.
type BloomListener struct {
	Field  string
	Blooms *bloom.RowGroupBlooms
}

func (l *BloomListener) Name() string { return "bloom:" + l.Field }

func (l *BloomListener) Apply(change RowGroupChange) error {
	if change.Kind == ChangeRemoved || change.Kind == ChangeModified {
		l.Blooms.RemoveGroup(change.RowGroup)
	}
	if change.Kind == ChangeRemoved {
		return nil
	}
	for _, row := range change.NewRows {
		if row.Value == nil {
			continue
		}
		l.Blooms.Add(change.RowGroup, []byte(fmt.Sprint(row.Value)))
	}
	return nil
}

// Remap renumbers the per-row-group filters; a filter whose row group
// has no entry in mapping is dropped, matching every other index type
// (spec §4.5). The global filter never needs remapping since it holds
// no row-group identity.
func (l *BloomListener) Remap(mapping map[int]int) {
	next := make(map[int]*bloom.Filter, len(l.Blooms.PerGroup))
	for rg, f := range l.Blooms.PerGroup {
		if newRG, ok := mapping[rg]; ok {
			next[newRG] = f
		}
	}
	l.Blooms.PerGroup = next
}

// VectorListener adapts a vector.Index (HNSW) to Listener.
type VectorListener struct {
	Field string
	Index *vector.Index
}

func (l *VectorListener) Name() string { return "vector:" + l.Field }

func (l *VectorListener) Apply(change RowGroupChange) error {
	switch change.Kind {
	case ChangeRemoved:
		for _, id := range change.OldDocIDs {
			l.Index.Remove(id)
		}
	case ChangeModified:
		for _, id := range change.OldDocIDs {
			l.Index.Remove(id)
		}
		fallthrough
	case ChangeAdded:
		for _, row := range change.NewRows {
			vec, ok := row.Value.([]float32)
			if !ok || len(vec) == 0 {
				continue
			}
			l.Index.Insert(vector.Ref{
				DocID:     row.DocID,
				RowGroup:  uint16(change.RowGroup),
				RowOffset: row.RowOffset,
			}, vec)
		}
	}
	return nil
}

func (l *VectorListener) Remap(mapping map[int]int) { l.Index.Remap(toUint16Map(mapping)) }

// FTSListener adapts an fts.Index (BM25) to Listener.
type FTSListener struct {
	Field string
	Index *fts.Index
}

func (l *FTSListener) Name() string { return "fts:" + l.Field }

func (l *FTSListener) Apply(change RowGroupChange) error {
	switch change.Kind {
	case ChangeRemoved:
		for _, id := range change.OldDocIDs {
			l.Index.Remove(id)
		}
	case ChangeModified:
		for _, id := range change.OldDocIDs {
			l.Index.Remove(id)
		}
		fallthrough
	case ChangeAdded:
		for _, row := range change.NewRows {
			text, ok := row.Value.(string)
			if !ok || text == "" {
				continue
			}
			l.Index.Add(fts.Ref{
				DocID:     row.DocID,
				RowGroup:  uint16(change.RowGroup),
				RowOffset: row.RowOffset,
			}, text)
		}
	}
	return nil
}

func (l *FTSListener) Remap(mapping map[int]int) { l.Index.Remap(toUint16Map(mapping)) }
