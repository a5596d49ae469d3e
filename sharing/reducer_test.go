package sharing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvidia-painless/sharer/clause"
)

func TestReducerPassThroughWithoutStrengthen(t *testing.T) {
	r := NewReducer(0, nil, 0)
	c := clause.NewFromLits([]int32{1, 2, 3}, 2, 0)
	ok := r.ImportClause(c)
	c.Release()
	require.True(t, ok)

	out := r.ExportClauses()
	require.Len(t, out, 1)
	assert.Equal(t, int32(3), out[0].Size)
	out[0].Release()
}

func TestReducerDropsBeyondCapacity(t *testing.T) {
	r := NewReducer(0, nil, 2)

	for i := 0; i < 3; i++ {
		c := clause.NewFromLits([]int32{1, 2}, 1, 0)
		ok := r.ImportClause(c)
		c.Release()
		if i < 2 {
			assert.True(t, ok, "clause %d should fit within capacity", i)
		} else {
			assert.False(t, ok, "clause %d should be dropped", i)
		}
	}

	assert.EqualValues(t, 1, r.Dropped())
	out := r.ExportClauses()
	require.Len(t, out, 2)
	for _, c := range out {
		c.Release()
	}
}

func TestReducerCapacityFreesUpAfterDrain(t *testing.T) {
	r := NewReducer(0, nil, 1)

	c1 := clause.NewFromLits([]int32{1, 2}, 1, 0)
	require.True(t, r.ImportClause(c1))
	c1.Release()

	c2 := clause.NewFromLits([]int32{3, 4}, 1, 0)
	require.False(t, r.ImportClause(c2))
	c2.Release()

	drained := r.ExportClauses()
	require.Len(t, drained, 1)
	drained[0].Release()

	c3 := clause.NewFromLits([]int32{5, 6}, 1, 0)
	require.True(t, r.ImportClause(c3))
	c3.Release()

	out := r.ExportClauses()
	require.Len(t, out, 1)
	out[0].Release()
	assert.EqualValues(t, 1, r.Dropped())
}
