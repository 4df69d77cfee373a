package bloom

import (
	"bytes"
	"hash/fnv"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// Filter is a single Bloom filter: add-only, possibly false-positive,
// never false-negative (spec §4.5, GLOSSARY).
type Filter struct {
	bits *bitset.BitSet
	m    uint
	k    uint
	n    uint
}

// CalculateOptimalParams returns the bit-array size m and hash-function
// count k that achieve false-positive rate fpr for n expected items,
// via the standard Bloom-filter sizing formulas (spec §4.5).
func CalculateOptimalParams(n uint, fpr float64) (m, k uint) {
	if n == 0 {
		n = 1
	}
	if fpr <= 0 || fpr >= 1 {
		fpr = 0.01
	}
	mf := -(float64(n) * math.Log(fpr)) / (math.Ln2 * math.Ln2)
	m = uint(math.Ceil(mf))
	if m < 1 {
		m = 1
	}
	kf := (mf / float64(n)) * math.Ln2
	k = uint(math.Round(kf))
	if k < 1 {
		k = 1
	}
	return m, k
}

// NewFilter sizes a new Filter for expectedItems at the given target
// false-positive rate.
func NewFilter(expectedItems uint, fpr float64) *Filter {
	m, k := CalculateOptimalParams(expectedItems, fpr)
	return &Filter{bits: bitset.New(m), m: m, k: k}
}

// Add inserts value into the filter.
func (f *Filter) Add(value []byte) {
	h1, h2 := baseHashes(value)
	for i := uint(0); i < f.k; i++ {
		f.bits.Set(f.index(h1, h2, i))
	}
	f.n++
}

// MightContain reports whether value may be a member: false means
// definitely absent, true means possibly present (spec §4.5).
func (f *Filter) MightContain(value []byte) bool {
	if f.bits == nil {
		return true // an empty/unsized filter can't rule anything out
	}
	h1, h2 := baseHashes(value)
	for i := uint(0); i < f.k; i++ {
		if !f.bits.Test(f.index(h1, h2, i)) {
			return false
		}
	}
	return true
}

// Count returns the number of items added.
func (f *Filter) Count() uint { return f.n }

func (f *Filter) index(h1, h2 uint64, i uint) uint {
	// Kirsch-Mitzenmacher double hashing: derive k indices from two
	// independent base hashes instead of k independent hash functions.
	combined := h1 + uint64(i)*h2
	return uint(combined % uint64(f.m))
}

func baseHashes(value []byte) (uint64, uint64) {
	h1 := fnv.New64a()
	h1.Write(value) //nolint:errcheck
	sum1 := h1.Sum64()

	h2 := fnv.New64a()
	h2.Write(value) //nolint:errcheck
	h2.Write([]byte{0xff})
	sum2 := h2.Sum64()

	return sum1, sum2
}

// MarshalBinary serializes the filter's header and bit array.
func (f *Filter) MarshalBinary() ([]byte, error) {
	bitsData, err := f.bits.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeUint(&buf, uint64(f.m))
	writeUint(&buf, uint64(f.k))
	writeUint(&buf, uint64(f.n))
	buf.Write(bitsData)
	return buf.Bytes(), nil
}

// UnmarshalBinary restores a filter previously produced by MarshalBinary.
func (f *Filter) UnmarshalBinary(data []byte) error {
	if len(data) < 24 {
		return errTruncated
	}
	f.m = uint(readUint(data[0:8]))
	f.k = uint(readUint(data[8:16]))
	f.n = uint(readUint(data[16:24]))
	f.bits = &bitset.BitSet{}
	return f.bits.UnmarshalBinary(data[24:])
}

// RowGroupBlooms bundles one global filter with a per-row-group filter
// so predicate pushdown can skip whole row groups before scanning
// (spec §4.5).
type RowGroupBlooms struct {
	Global     *Filter
	PerGroup   map[int]*Filter
	ExpectedN  uint
	TargetFPR  float64
}

// NewRowGroupBlooms returns an empty RowGroupBlooms sized for
// expectedItemsPerGroup per row group at the given false-positive rate.
func NewRowGroupBlooms(expectedItemsPerGroup uint, fpr float64) *RowGroupBlooms {
	return &RowGroupBlooms{
		Global:    NewFilter(expectedItemsPerGroup*8, fpr),
		PerGroup:  map[int]*Filter{},
		ExpectedN: expectedItemsPerGroup,
		TargetFPR: fpr,
	}
}

// Add records value as present in row group rg.
func (b *RowGroupBlooms) Add(rg int, value []byte) {
	b.Global.Add(value)
	f, ok := b.PerGroup[rg]
	if !ok {
		f = NewFilter(b.ExpectedN, b.TargetFPR)
		b.PerGroup[rg] = f
	}
	f.Add(value)
}

// MightContainRowGroup reports whether row group rg might contain value,
// consulting the global filter first to short-circuit misses cheaply.
func (b *RowGroupBlooms) MightContainRowGroup(rg int, value []byte) bool {
	if !b.Global.MightContain(value) {
		return false
	}
	f, ok := b.PerGroup[rg]
	if !ok {
		return true
	}
	return f.MightContain(value)
}

// RemoveGroup drops the filter for a row group that no longer exists
// (e.g. after compaction renumbers row groups).
func (b *RowGroupBlooms) RemoveGroup(rg int) {
	delete(b.PerGroup, rg)
}

func writeUint(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	buf.Write(b[:])
}

func readUint(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

var errTruncated = bitsetTruncatedError{}

type bitsetTruncatedError struct{}

func (bitsetTruncatedError) Error() string { return "bloom: truncated filter data" }
