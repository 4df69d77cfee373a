package hashindex

import (
	"sync"

	"github.com/parquedb/parquedb/pkg/varint"
)

// Pointer locates one row carrying an indexed value.
type Pointer struct {
	RowGroup  uint16
	RowOffset uint64
	DocID     string
}

// Index is the in-memory hash index for one field (spec §4.5).
type Index struct {
	mu       sync.RWMutex
	buckets  map[uint32][]Pointer
	byDocID  map[string]map[uint32]bool // docID -> keyHashes it appears under, for removal
	version  uint64
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		buckets: make(map[uint32][]Pointer),
		byDocID: make(map[string]map[uint32]bool),
	}
}

// Put records that key maps to ptr. Put does not deduplicate; callers
// remove stale pointers for a docId before re-inserting on update.
func (ix *Index) Put(key string, ptr Pointer) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	h := varint.FNV1a32([]byte(key))
	ix.buckets[h] = append(ix.buckets[h], ptr)
	hashes, ok := ix.byDocID[ptr.DocID]
	if !ok {
		hashes = map[uint32]bool{}
		ix.byDocID[ptr.DocID] = hashes
	}
	hashes[h] = true
	ix.version++
}

// Lookup returns every pointer stored under key's hash. Candidates may
// include hash collisions from a different key; callers verify against
// the actual row value.
func (ix *Index) Lookup(key string) []Pointer {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	h := varint.FNV1a32([]byte(key))
	out := make([]Pointer, len(ix.buckets[h]))
	copy(out, ix.buckets[h])
	return out
}

// RemoveDoc deletes every pointer for docID across all buckets it was
// inserted under.
func (ix *Index) RemoveDoc(docID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	hashes, ok := ix.byDocID[docID]
	if !ok {
		return
	}
	for h := range hashes {
		kept := ix.buckets[h][:0]
		for _, p := range ix.buckets[h] {
			if p.DocID != docID {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(ix.buckets, h)
		} else {
			ix.buckets[h] = kept
		}
	}
	delete(ix.byDocID, docID)
	ix.version++
}

// Remap rewrites row-group numbers after compaction; entries whose
// current row group is absent from mapping are dropped (spec §4.5).
func (ix *Index) Remap(mapping map[uint16]uint16) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for h, ptrs := range ix.buckets {
		kept := ptrs[:0]
		for _, p := range ptrs {
			newRG, ok := mapping[p.RowGroup]
			if !ok {
				continue
			}
			p.RowGroup = newRG
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(ix.buckets, h)
		} else {
			ix.buckets[h] = kept
		}
	}
	ix.version++
}

// Version returns the monotonically increasing mutation counter.
func (ix *Index) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Len returns the total number of stored pointers.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, ptrs := range ix.buckets {
		n += len(ptrs)
	}
	return n
}
