package variant

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/parquedb/parquedb/pkg/varint"
)

// Kind tags a Value's runtime type.
type Kind byte

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindBytes
	KindTimestamp
	KindList
	KindMap
)

// Value is the tagged sum type stored inside $data (spec §9).
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	Time  time.Time
	List  []Value
	Map   map[string]Value
}

func Null() Value                 { return Value{Kind: KindNull} }
func Bool(b bool) Value           { return Value{Kind: KindBool, Bool: b} }
func Int64(i int64) Value         { return Value{Kind: KindInt64, Int: i} }
func Float64(f float64) Value     { return Value{Kind: KindFloat64, Float: f} }
func String(s string) Value       { return Value{Kind: KindString, Str: s} }
func Bytes(b []byte) Value        { return Value{Kind: KindBytes, Bytes: b} }
func Timestamp(t time.Time) Value { return Value{Kind: KindTimestamp, Time: t} }
func List(v []Value) Value        { return Value{Kind: KindList, List: v} }
func Map(v map[string]Value) Value {
	return Value{Kind: KindMap, Map: v}
}

// FromAny converts a Go value (as produced by encoding/json or entity
// field maps) into a Value. Unsupported types are coerced to their
// fmt.Sprintf("%v") string form rather than erroring, since $data is
// best-effort storage for arbitrary user fields.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int:
		return Int64(int64(t))
	case int64:
		return Int64(t)
	case float64:
		return Float64(t)
	case float32:
		return Float64(float64(t))
	case string:
		return String(t)
	case []byte:
		return Bytes(t)
	case time.Time:
		return Timestamp(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromAny(e)
		}
		return List(out)
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = FromAny(e)
		}
		return Map(out)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// ToAny converts a Value back to a plain Go value suitable for JSON
// encoding or entity field maps.
func (v Value) ToAny() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt64:
		return v.Int
	case KindFloat64:
		return v.Float
	case KindString:
		return v.Str
	case KindBytes:
		return v.Bytes
	case KindTimestamp:
		return v.Time
	case KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

// Encode serializes v to its compact binary form.
func Encode(v Value) []byte {
	var buf []byte
	return encodeInto(buf, v)
}

func encodeInto(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case KindNull:
		// no payload
	case KindBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindInt64:
		buf = varint.PutUvarint(buf, zigzagEncode(v.Int))
	case KindFloat64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Float))
		buf = append(buf, b[:]...)
	case KindString:
		buf = appendLenPrefixed(buf, []byte(v.Str))
	case KindBytes:
		buf = appendLenPrefixed(buf, v.Bytes)
	case KindTimestamp:
		buf = varint.PutUvarint(buf, zigzagEncode(v.Time.UnixMicro()))
	case KindList:
		buf = varint.PutUvarint(buf, uint64(len(v.List)))
		for _, e := range v.List {
			buf = encodeInto(buf, e)
		}
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = varint.PutUvarint(buf, uint64(len(keys)))
		for _, k := range keys {
			buf = appendLenPrefixed(buf, []byte(k))
			buf = encodeInto(buf, v.Map[k])
		}
	}
	return buf
}

// Decode parses a Value from the start of buf, returning the number of
// bytes consumed.
func Decode(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, varint.ErrTruncated
	}
	kind := Kind(buf[0])
	pos := 1
	switch kind {
	case KindNull:
		return Null(), pos, nil
	case KindBool:
		if len(buf) < pos+1 {
			return Value{}, 0, varint.ErrTruncated
		}
		return Bool(buf[pos] != 0), pos + 1, nil
	case KindInt64:
		zz, n, err := varint.Uvarint(buf[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Int64(zigzagDecode(zz)), pos + n, nil
	case KindFloat64:
		if len(buf) < pos+8 {
			return Value{}, 0, varint.ErrTruncated
		}
		bits := binary.LittleEndian.Uint64(buf[pos : pos+8])
		return Float64(math.Float64frombits(bits)), pos + 8, nil
	case KindString:
		b, n, err := readLenPrefixed(buf[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return String(string(b)), pos + n, nil
	case KindBytes:
		b, n, err := readLenPrefixed(buf[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Bytes(b), pos + n, nil
	case KindTimestamp:
		zz, n, err := varint.Uvarint(buf[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Timestamp(time.UnixMicro(zigzagDecode(zz)).UTC()), pos + n, nil
	case KindList:
		count, n, err := varint.Uvarint(buf[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		pos += n
		items := make([]Value, 0, count)
		for i := uint64(0); i < count; i++ {
			item, n, err := Decode(buf[pos:])
			if err != nil {
				return Value{}, 0, err
			}
			items = append(items, item)
			pos += n
		}
		return List(items), pos, nil
	case KindMap:
		count, n, err := varint.Uvarint(buf[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		pos += n
		m := make(map[string]Value, count)
		for i := uint64(0); i < count; i++ {
			key, n, err := readLenPrefixed(buf[pos:])
			if err != nil {
				return Value{}, 0, err
			}
			pos += n
			val, n, err := Decode(buf[pos:])
			if err != nil {
				return Value{}, 0, err
			}
			pos += n
			m[string(key)] = val
		}
		return Map(m), pos, nil
	default:
		return Value{}, 0, fmt.Errorf("variant: unknown kind byte %d", kind)
	}
}

func appendLenPrefixed(buf []byte, b []byte) []byte {
	buf = varint.PutUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

func readLenPrefixed(buf []byte) ([]byte, int, error) {
	n, hn, err := varint.Uvarint(buf)
	if err != nil {
		return nil, 0, err
	}
	if uint64(len(buf)) < uint64(hn)+n {
		return nil, 0, varint.ErrTruncated
	}
	return buf[hn : uint64(hn)+n], hn + int(n), nil
}

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
