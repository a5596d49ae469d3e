package clausedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvidia-painless/sharer/clause"
)

func TestVectorGiveSelectionAscendingBySize(t *testing.T) {
	db := NewVector(0)
	require.True(t, db.AddClause(clause.NewFromLits([]int32{1, 2, 3, 4}, 4, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{1, 2}, 2, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{5, 6, 7}, 3, 0)))

	selected, literals := db.GiveSelection(100)
	require.Len(t, selected, 3)
	assert.Equal(t, 9, literals)
	assert.Equal(t, int32(2), selected[0].Size)
	assert.Equal(t, int32(3), selected[1].Size)
	assert.Equal(t, int32(4), selected[2].Size)
}

// TestVectorGiveSelectionOverBudget is scenario 3: sizes {2,2,3,4}, budget
// 5 literals selects only the two size-2 clauses.
func TestVectorGiveSelectionOverBudget(t *testing.T) {
	db := NewVector(0)
	require.True(t, db.AddClause(clause.NewFromLits([]int32{1, 2}, 2, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{3, 4}, 2, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{5, 6, 7}, 3, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{8, 9, 10, 11}, 4, 0)))

	selected, literals := db.GiveSelection(5)
	require.Len(t, selected, 2)
	assert.Equal(t, 4, literals)
	for _, c := range selected {
		assert.Equal(t, int32(2), c.Size)
	}
	assert.Equal(t, 2, db.GetSize())
}

func TestVectorRejectsOversized(t *testing.T) {
	db := NewVector(3)
	ok := db.AddClause(clause.NewFromLits([]int32{1, 2, 3, 4}, 4, 0))
	assert.False(t, ok)
	assert.Equal(t, 0, db.GetSize())
}

func TestVectorFIFOWithinSize(t *testing.T) {
	db := NewVector(0)
	first := clause.NewFromLits([]int32{1, 2}, 2, 0)
	second := clause.NewFromLits([]int32{3, 4}, 2, 0)
	require.True(t, db.AddClause(first))
	require.True(t, db.AddClause(second))

	c, ok := db.GiveOneClause()
	require.True(t, ok)
	assert.Same(t, first, c)

	c, ok = db.GiveOneClause()
	require.True(t, ok)
	assert.Same(t, second, c)
}

func TestVectorDeleteClauses(t *testing.T) {
	db := NewVector(0)
	require.True(t, db.AddClause(clause.NewFromLits([]int32{1, 2}, 2, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{3, 4, 5}, 3, 0)))
	db.DeleteClauses(3)
	assert.Equal(t, 1, db.GetSize())
	sizes := db.GetSizes()
	require.True(t, len(sizes) > 2)
	assert.Equal(t, 0, sizes[3])
	assert.Equal(t, 1, sizes[2])
}

func TestVectorTotalSizesAccumulates(t *testing.T) {
	db := NewVector(0)
	require.True(t, db.AddClause(clause.NewFromLits([]int32{1, 2}, 2, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{3, 4}, 2, 0)))
	db.GetClauses()
	totals := db.TotalSizes()
	require.True(t, len(totals) > 2)
	assert.Equal(t, int64(2), totals[2])
}
