package bloom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_AddThenMightContain(t *testing.T) {
	f := NewFilter(100, 0.01)
	f.Add([]byte("alice"))
	assert.True(t, f.MightContain([]byte("alice")))
}

func TestFilter_FalsePositiveRateNearTarget(t *testing.T) {
	const n = 1000
	const target = 0.01
	f := NewFilter(n, target)
	for i := 0; i < n; i++ {
		f.Add([]byte(fmt.Sprintf("key-%d", i)))
	}
	falsePositives := 0
	trials := 5000
	for i := 0; i < trials; i++ {
		if f.MightContain([]byte(fmt.Sprintf("absent-%d", i))) {
			falsePositives++
		}
	}
	rate := float64(falsePositives) / float64(trials)
	assert.Less(t, rate, target+0.03, "observed FPR %f should stay near target %f with margin", rate, target)
}

func TestFilter_MarshalRoundTrip(t *testing.T) {
	f := NewFilter(50, 0.05)
	f.Add([]byte("a"))
	f.Add([]byte("b"))

	data, err := f.MarshalBinary()
	require.NoError(t, err)

	var restored Filter
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.True(t, restored.MightContain([]byte("a")))
	assert.True(t, restored.MightContain([]byte("b")))
	assert.Equal(t, f.Count(), restored.Count())
}

func TestRowGroupBlooms_PrunesAbsentValue(t *testing.T) {
	b := NewRowGroupBlooms(10, 0.001)
	b.Add(0, []byte("x"))
	b.Add(1, []byte("y"))

	assert.True(t, b.MightContainRowGroup(0, []byte("x")))
	assert.False(t, b.MightContainRowGroup(1, []byte("x")))
}
