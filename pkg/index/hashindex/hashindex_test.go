package hashindex

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_PutAndLookup(t *testing.T) {
	ix := New()
	ix.Put("alice@example.com", Pointer{RowGroup: 0, RowOffset: 5, DocID: "users/1"})

	got := ix.Lookup("alice@example.com")
	require.Len(t, got, 1)
	assert.Equal(t, "users/1", got[0].DocID)

	assert.Empty(t, ix.Lookup("bob@example.com"))
}

func TestIndex_RemoveDoc(t *testing.T) {
	ix := New()
	ix.Put("k1", Pointer{RowGroup: 0, RowOffset: 1, DocID: "d1"})
	ix.Put("k2", Pointer{RowGroup: 0, RowOffset: 2, DocID: "d1"})
	ix.Put("k1", Pointer{RowGroup: 0, RowOffset: 3, DocID: "d2"})

	ix.RemoveDoc("d1")

	assert.Len(t, ix.Lookup("k1"), 1)
	assert.Equal(t, "d2", ix.Lookup("k1")[0].DocID)
	assert.Empty(t, ix.Lookup("k2"))
}

func TestIndex_Remap(t *testing.T) {
	ix := New()
	ix.Put("k1", Pointer{RowGroup: 0, RowOffset: 1, DocID: "d1"})
	ix.Put("k1", Pointer{RowGroup: 1, RowOffset: 2, DocID: "d2"})

	ix.Remap(map[uint16]uint16{0: 5})

	got := ix.Lookup("k1")
	require.Len(t, got, 1)
	assert.Equal(t, uint16(5), got[0].RowGroup)
	assert.Equal(t, "d1", got[0].DocID)
}

func TestEncodeDecode_RoundTrip_AllVersions(t *testing.T) {
	entries := []keyedPointer{
		{KeyHash: 42, Pointer: Pointer{RowGroup: 1, RowOffset: 100, DocID: "a"}},
		{KeyHash: 42, Pointer: Pointer{RowGroup: 1, RowOffset: 50, DocID: "b"}},
		{KeyHash: 7, Pointer: Pointer{RowGroup: 2, RowOffset: 9, DocID: "c"}},
	}

	for _, tc := range []struct {
		name   string
		encode func([]keyedPointer) ([]byte, error)
	}{
		{"v1", EncodeV1},
		{"v2", EncodeV2},
		{"v3", EncodeV3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.encode(entries)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			require.Len(t, got, len(entries))

			sortPointers := func(s []keyedPointer) {
				sort.Slice(s, func(i, j int) bool {
					if s[i].KeyHash != s[j].KeyHash {
						return s[i].KeyHash < s[j].KeyHash
					}
					return s[i].Pointer.RowOffset < s[j].Pointer.RowOffset
				})
			}
			want := append([]keyedPointer(nil), entries...)
			sortPointers(want)
			sortPointers(got)

			if tc.name == "v1" {
				// v1 carries no key hash; only pointer identity round-trips.
				for i := range want {
					assert.Equal(t, want[i].Pointer, got[i].Pointer)
				}
				return
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestIndex_EncodeLoadRoundTrip(t *testing.T) {
	ix := New()
	ix.Put("alice", Pointer{RowGroup: 0, RowOffset: 1, DocID: "users/1"})
	ix.Put("bob", Pointer{RowGroup: 1, RowOffset: 2, DocID: "users/2"})

	data, err := ix.Encode()
	require.NoError(t, err)

	entries, err := Decode(data)
	require.NoError(t, err)

	restored := New()
	restored.Load(entries)

	assert.Equal(t, ix.Lookup("alice"), restored.Lookup("alice"))
	assert.Equal(t, ix.Lookup("bob"), restored.Lookup("bob"))
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	data := append([]byte{99, 0, 0, 0, 0, 0})
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}
