package clausedb

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvidia-painless/sharer/clause"
)

func TestLockFreeGiveSelectionOverBudget(t *testing.T) {
	db := NewLockFree(0)
	require.True(t, db.AddClause(clause.NewFromLits([]int32{1, 2}, 2, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{3, 4}, 2, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{5, 6, 7}, 3, 0)))
	require.True(t, db.AddClause(clause.NewFromLits([]int32{8, 9, 10, 11}, 4, 0)))

	selected, literals := db.GiveSelection(5)
	require.Len(t, selected, 2)
	assert.Equal(t, 4, literals)
	assert.Equal(t, 2, db.GetSize())
}

func TestLockFreeRejectsOversized(t *testing.T) {
	db := NewLockFree(3)
	ok := db.AddClause(clause.NewFromLits([]int32{1, 2, 3, 4}, 4, 0))
	assert.False(t, ok)
	assert.Equal(t, 0, db.GetSize())
}

// TestLockFreeConcurrentAddAndDrain exercises the "lock-free database"
// contract directly: one goroutine per producer calling AddClause while a
// single consumer goroutine repeatedly calls GiveOneClause, run under
// -race. Growing buckets past its initial capacity mid-run is exactly the
// scenario the pointer-slice fix in bucketFor/bumpTotal protects.
func TestLockFreeConcurrentAddAndDrain(t *testing.T) {
	db := NewLockFree(0)
	const producers = 32
	const perProducer = 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				size := int32(1 + (p+i)%64)
				lits := make([]int32, size)
				for j := range lits {
					lits[j] = int32(j + 1)
				}
				db.AddClause(clause.NewFromLits(lits, 2, int32(p)))
			}
		}(p)
	}

	done := make(chan struct{})
	bgDrained := make(chan int)
	drained := 0
	go func() {
		n := 0
		for {
			select {
			case <-done:
				bgDrained <- n
				return
			default:
			}
			if _, ok := db.GiveOneClause(); ok {
				n++
			}
		}
	}()

	wg.Wait()
	for {
		if _, ok := db.GiveOneClause(); !ok {
			break
		}
		drained++
	}
	close(done)
	drained += <-bgDrained

	assert.Equal(t, producers*perProducer, drained)
	assert.Equal(t, 0, db.GetSize())
}

func TestLockFreeTotalSizesUnderGrowth(t *testing.T) {
	db := NewLockFree(0)
	var wg sync.WaitGroup
	for p := 0; p < 16; p++ {
		wg.Add(1)
		go func(size int32) {
			defer wg.Done()
			lits := make([]int32, size)
			for j := range lits {
				lits[j] = int32(j + 1)
			}
			db.AddClause(clause.NewFromLits(lits, 2, 0))
		}(int32(p + 1))
	}
	wg.Wait()

	totals := db.TotalSizes()
	sum := int64(0)
	for _, v := range totals {
		sum += v
	}
	assert.Equal(t, int64(16), sum)
}
