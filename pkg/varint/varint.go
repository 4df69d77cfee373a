package varint

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
)

// ErrTruncated is returned when a varint or entry is cut off mid-read.
var ErrTruncated = errors.New("varint: truncated input")

// PutUvarint appends the LEB128-style base-128 continuation encoding of
// v to buf and returns the extended slice.
func PutUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// Uvarint reads a varint from buf, returning the value and the number
// of bytes consumed. It returns ErrTruncated if buf does not contain a
// complete varint.
func Uvarint(buf []byte) (uint64, int, error) {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, 0, ErrTruncated
	}
	return v, n, nil
}

// FNV1a32 hashes data with 32-bit FNV-1a, used to derive the canonical
// key hash persisted alongside entries that opt into the key-hash
// header flag.
func FNV1a32(data []byte) uint32 {
	h := fnv.New32a()
	h.Write(data) //nolint:errcheck // hash.Hash.Write never errors
	return h.Sum32()
}

// HeaderSize is the fixed size in bytes of the on-disk header (spec §4.7).
const HeaderSize = 6

// FlagHasKeyHash marks that every entry is prefixed with a 4-byte FNV-1a key hash.
const FlagHasKeyHash byte = 1 << 0

// Header is the 6-byte prefix of a persisted index file.
type Header struct {
	Version    byte
	Flags      byte
	EntryCount uint32
}

// HasKeyHash reports whether entries carry a leading key hash.
func (h Header) HasKeyHash() bool {
	return h.Flags&FlagHasKeyHash != 0
}

// Encode serializes the header to its 6-byte wire form.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.Version
	buf[1] = h.Flags
	binary.LittleEndian.PutUint32(buf[2:6], h.EntryCount)
	return buf
}

// DecodeHeader reads a Header from the start of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTruncated
	}
	return Header{
		Version:    buf[0],
		Flags:      buf[1],
		EntryCount: binary.LittleEndian.Uint32(buf[2:6]),
	}, nil
}

// Entry is one hash-index row reference (spec §4.7 base layout).
type Entry struct {
	KeyHash   uint32 // only meaningful when the header carries FlagHasKeyHash
	RowGroup  uint16
	RowOffset uint64
	DocID     []byte
}

// AppendEntry serializes e onto buf per the base layout, prefixing the
// key hash when withKeyHash is true.
func AppendEntry(buf []byte, e Entry, withKeyHash bool) ([]byte, error) {
	if len(e.DocID) > 255 {
		return nil, errors.New("varint: docId exceeds 255 bytes")
	}
	if withKeyHash {
		var hb [4]byte
		binary.LittleEndian.PutUint32(hb[:], e.KeyHash)
		buf = append(buf, hb[:]...)
	}
	var rg [2]byte
	binary.LittleEndian.PutUint16(rg[:], e.RowGroup)
	buf = append(buf, rg[:]...)
	buf = PutUvarint(buf, e.RowOffset)
	buf = append(buf, byte(len(e.DocID)))
	buf = append(buf, e.DocID...)
	return buf, nil
}

// ReadEntry parses one Entry from the start of buf, returning the
// number of bytes consumed.
func ReadEntry(buf []byte, withKeyHash bool) (Entry, int, error) {
	var e Entry
	pos := 0
	if withKeyHash {
		if len(buf) < 4 {
			return Entry{}, 0, ErrTruncated
		}
		e.KeyHash = binary.LittleEndian.Uint32(buf[:4])
		pos += 4
	}
	if len(buf) < pos+2 {
		return Entry{}, 0, ErrTruncated
	}
	e.RowGroup = binary.LittleEndian.Uint16(buf[pos : pos+2])
	pos += 2

	off, n, err := Uvarint(buf[pos:])
	if err != nil {
		return Entry{}, 0, err
	}
	e.RowOffset = off
	pos += n

	if len(buf) < pos+1 {
		return Entry{}, 0, ErrTruncated
	}
	docLen := int(buf[pos])
	pos++
	if len(buf) < pos+docLen {
		return Entry{}, 0, ErrTruncated
	}
	e.DocID = append([]byte(nil), buf[pos:pos+docLen]...)
	pos += docLen

	return e, pos, nil
}
