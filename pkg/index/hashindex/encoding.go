package hashindex

import (
	"errors"
	"sort"

	"github.com/parquedb/parquedb/pkg/varint"
)

// ErrUnsupportedVersion is returned by Decode for a header version the
// loader does not recognize.
var ErrUnsupportedVersion = errors.New("hashindex: unsupported format version")

// keyedPointer pairs a pointer with the key hash it was filed under, the
// unit Encode/Decode operate on so callers don't need to re-derive hashes.
type keyedPointer struct {
	KeyHash uint32
	Pointer Pointer
}

// Snapshot flattens ix into keyed pointers for encoding.
func (ix *Index) Snapshot() []keyedPointer {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]keyedPointer, 0, len(ix.buckets))
	for h, ptrs := range ix.buckets {
		for _, p := range ptrs {
			out = append(out, keyedPointer{KeyHash: h, Pointer: p})
		}
	}
	return out
}

// Load replaces ix's contents with entries, as produced by Decode.
func (ix *Index) Load(entries []keyedPointer) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.buckets = make(map[uint32][]Pointer, len(entries))
	ix.byDocID = make(map[string]map[uint32]bool, len(entries))
	for _, e := range entries {
		ix.buckets[e.KeyHash] = append(ix.buckets[e.KeyHash], e.Pointer)
		hashes, ok := ix.byDocID[e.Pointer.DocID]
		if !ok {
			hashes = map[uint32]bool{}
			ix.byDocID[e.Pointer.DocID] = hashes
		}
		hashes[e.KeyHash] = true
	}
	ix.version++
}

// Encode serializes ix to the latest on-disk format (v3: key-hash
// grouped, delta-encoded row offsets within each group) per spec §4.7.
func (ix *Index) Encode() ([]byte, error) {
	return EncodeV3(ix.Snapshot())
}

// EncodeV1 writes the plain (no key hash) layout: a flat list of base
// entries, one after another, in the order given.
func EncodeV1(entries []keyedPointer) ([]byte, error) {
	buf := varint.Header{Version: 1, Flags: 0, EntryCount: uint32(len(entries))}.Encode()
	for _, e := range entries {
		var err error
		buf, err = varint.AppendEntry(buf, varint.Entry{
			RowGroup: e.Pointer.RowGroup, RowOffset: e.Pointer.RowOffset, DocID: []byte(e.Pointer.DocID),
		}, false)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// EncodeV2 writes the key-hash-prefixed flat layout: like v1 but every
// entry carries its 4-byte FNV-1a key hash so a loader can filter
// without grouping.
func EncodeV2(entries []keyedPointer) ([]byte, error) {
	buf := varint.Header{Version: 2, Flags: varint.FlagHasKeyHash, EntryCount: uint32(len(entries))}.Encode()
	for _, e := range entries {
		var err error
		buf, err = varint.AppendEntry(buf, varint.Entry{
			KeyHash: e.KeyHash, RowGroup: e.Pointer.RowGroup, RowOffset: e.Pointer.RowOffset, DocID: []byte(e.Pointer.DocID),
		}, true)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// EncodeV3 groups entries by key hash and delta-encodes row offsets
// within each group (ascending), the current compression-optimized
// format (spec §4.7 target: >=40% smaller than v1 for skewed keys).
// Wire shape per group: keyHash(4) | memberCount(varint) | members,
// where each member is rowGroup(u16) | rowOffsetDelta(varint) |
// docIdLen(u8) | docId.
func EncodeV3(entries []keyedPointer) ([]byte, error) {
	groups := map[uint32][]Pointer{}
	order := make([]uint32, 0)
	for _, e := range entries {
		if _, ok := groups[e.KeyHash]; !ok {
			order = append(order, e.KeyHash)
		}
		groups[e.KeyHash] = append(groups[e.KeyHash], e.Pointer)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	buf := varint.Header{Version: 3, Flags: varint.FlagHasKeyHash, EntryCount: uint32(len(entries))}.Encode()
	for _, h := range order {
		members := groups[h]
		sort.Slice(members, func(i, j int) bool { return members[i].RowOffset < members[j].RowOffset })

		var hb [4]byte
		putUint32LE(hb[:], h)
		buf = append(buf, hb[:]...)
		buf = varint.PutUvarint(buf, uint64(len(members)))

		var prevOffset uint64
		for _, m := range members {
			if len(m.DocID) > 255 {
				return nil, errors.New("hashindex: docId exceeds 255 bytes")
			}
			var rg [2]byte
			putUint16LE(rg[:], m.RowGroup)
			buf = append(buf, rg[:]...)
			buf = varint.PutUvarint(buf, m.RowOffset-prevOffset)
			prevOffset = m.RowOffset
			buf = append(buf, byte(len(m.DocID)))
			buf = append(buf, []byte(m.DocID)...)
		}
	}
	return buf, nil
}

// Decode dispatches on the header's format version and returns every
// stored keyed pointer, regardless of which version wrote the data
// (spec §4.7: "format versions 1/2/3 coexist; the loader dispatches on
// the first byte").
func Decode(data []byte) ([]keyedPointer, error) {
	hdr, err := varint.DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	rest := data[varint.HeaderSize:]
	switch hdr.Version {
	case 1:
		return decodeFlat(rest, int(hdr.EntryCount), false)
	case 2:
		return decodeFlat(rest, int(hdr.EntryCount), true)
	case 3:
		return decodeV3(rest, int(hdr.EntryCount))
	default:
		return nil, ErrUnsupportedVersion
	}
}

func decodeFlat(buf []byte, count int, withKeyHash bool) ([]keyedPointer, error) {
	out := make([]keyedPointer, 0, count)
	for i := 0; i < count; i++ {
		e, n, err := varint.ReadEntry(buf, withKeyHash)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		out = append(out, keyedPointer{
			KeyHash: e.KeyHash,
			Pointer: Pointer{RowGroup: e.RowGroup, RowOffset: e.RowOffset, DocID: string(e.DocID)},
		})
	}
	return out, nil
}

func decodeV3(buf []byte, count int) ([]keyedPointer, error) {
	out := make([]keyedPointer, 0, count)
	for len(out) < count {
		if len(buf) < 4 {
			return nil, varint.ErrTruncated
		}
		h := readUint32LE(buf[:4])
		buf = buf[4:]

		memberCount, n, err := varint.Uvarint(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]

		var prevOffset uint64
		for m := uint64(0); m < memberCount; m++ {
			if len(buf) < 2 {
				return nil, varint.ErrTruncated
			}
			rg := readUint16LE(buf[:2])
			buf = buf[2:]

			delta, n, err := varint.Uvarint(buf)
			if err != nil {
				return nil, err
			}
			buf = buf[n:]
			offset := prevOffset + delta
			prevOffset = offset

			if len(buf) < 1 {
				return nil, varint.ErrTruncated
			}
			docLen := int(buf[0])
			buf = buf[1:]
			if len(buf) < docLen {
				return nil, varint.ErrTruncated
			}
			docID := string(buf[:docLen])
			buf = buf[docLen:]

			out = append(out, keyedPointer{KeyHash: h, Pointer: Pointer{RowGroup: rg, RowOffset: offset, DocID: docID}})
		}
	}
	return out, nil
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func readUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putUint16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func readUint16LE(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
