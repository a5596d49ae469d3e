package clause

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromLits(t *testing.T) {
	c := NewFromLits([]int32{1, -2, 3}, 2, 7)
	require.Equal(t, int32(3), c.Size)
	require.Equal(t, int32(1), c.Refs())
	require.Equal(t, int32(2), c.LBD.Load())
	require.Equal(t, int32(7), c.From)
}

func TestChecksumOrderIndependent(t *testing.T) {
	a := NewFromLits([]int32{1, -2, 3}, 0, -1)
	b := NewFromLits([]int32{3, 1, -2}, 0, -1)
	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestSetLBDNeverRaises(t *testing.T) {
	c := NewFromLits([]int32{1, 2}, 8, -1)
	c.SetLBD(6)
	assert.Equal(t, int32(6), c.LBD.Load())
	c.SetLBD(9)
	assert.Equal(t, int32(6), c.LBD.Load(), "lbd must never be raised by SetLBD")
}

// TestRefcountConcurrent exercises P1/P8: refs never go negative and a
// balanced sequence of Increase/Release leaves refs == 0.
func TestRefcountConcurrent(t *testing.T) {
	c := NewFromLits([]int32{1, 2, 3}, 1, -1)
	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		c.Increase(1)
	}
	wg.Add(n + 1) // n extra holders + the original ref
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			c.Release()
		}()
	}
	go func() {
		defer wg.Done()
		c.Release()
	}()
	wg.Wait()
	assert.Equal(t, int32(0), c.Refs())
}

func TestReleaseBelowZeroPanics(t *testing.T) {
	c := NewFromLits([]int32{1}, 0, -1)
	c.Release()
	assert.Panics(t, func() { c.Release() })
}

func TestEqualUnorderedSets(t *testing.T) {
	assert.True(t, Equal([]int32{1, 2, 3}, []int32{3, 2, 1}))
	assert.False(t, Equal([]int32{1, 2}, []int32{1, 2, 3}))
}
