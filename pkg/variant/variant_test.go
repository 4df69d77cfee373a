package variant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	buf := Encode(v)
	got, n, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	return got
}

func TestValue_RoundTrip_Scalars(t *testing.T) {
	assert.Equal(t, Null(), roundTrip(t, Null()))
	assert.Equal(t, Bool(true), roundTrip(t, Bool(true)))
	assert.Equal(t, Bool(false), roundTrip(t, Bool(false)))
	assert.Equal(t, Int64(-42), roundTrip(t, Int64(-42)))
	assert.Equal(t, Int64(1<<40), roundTrip(t, Int64(1<<40)))
	assert.Equal(t, Float64(3.14159), roundTrip(t, Float64(3.14159)))
	assert.Equal(t, String("hello"), roundTrip(t, String("hello")))
	assert.Equal(t, Bytes([]byte{1, 2, 3}), roundTrip(t, Bytes([]byte{1, 2, 3})))
}

func TestValue_RoundTrip_Timestamp(t *testing.T) {
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got := roundTrip(t, Timestamp(ts))
	assert.True(t, ts.Equal(got.Time))
}

func TestValue_RoundTrip_List(t *testing.T) {
	v := List([]Value{Int64(1), String("two"), Bool(true), Null()})
	assert.Equal(t, v, roundTrip(t, v))
}

func TestValue_RoundTrip_Map(t *testing.T) {
	v := Map(map[string]Value{
		"a": Int64(1),
		"b": String("x"),
		"c": List([]Value{Int64(1), Int64(2)}),
	})
	assert.Equal(t, v, roundTrip(t, v))
}

func TestValue_RoundTrip_NestedMapInList(t *testing.T) {
	v := List([]Value{
		Map(map[string]Value{"k": Int64(1)}),
		Map(map[string]Value{"k": Int64(2)}),
	})
	assert.Equal(t, v, roundTrip(t, v))
}

func TestFromAny_ToAny_RoundTrip(t *testing.T) {
	in := map[string]any{
		"name":   "alice",
		"age":    int64(30),
		"active": true,
		"tags":   []any{"a", "b"},
	}
	v := FromAny(in)
	out := v.ToAny()
	assert.Equal(t, in["name"], out.(map[string]any)["name"])
	assert.Equal(t, in["active"], out.(map[string]any)["active"])
}

func TestEncode_MapKeysSortedDeterministic(t *testing.T) {
	v := Map(map[string]Value{"z": Int64(1), "a": Int64(2), "m": Int64(3)})
	a := Encode(v)
	b := Encode(v)
	assert.Equal(t, a, b)
}
