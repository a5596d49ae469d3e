package gsharing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/global"
	"github.com/nvidia-painless/sharer/ptransport"
	"github.com/nvidia-painless/sharer/term"
)

func peerTo(peers []ptransport.Peer, rank int) ptransport.Peer {
	for _, p := range peers {
		if p.Rank() == rank {
			return p
		}
	}
	return nil
}

func TestTopologyBinaryTreeShape(t *testing.T) {
	parent, hasParent, children := Topology(0, 5)
	assert.False(t, hasParent)
	assert.Equal(t, []int{1, 2}, children)

	parent, hasParent, children = Topology(1, 5)
	assert.True(t, hasParent)
	assert.Equal(t, 0, parent)
	assert.Equal(t, []int{3, 4}, children)

	_, hasParent, children = Topology(4, 5)
	assert.True(t, hasParent)
	assert.Empty(t, children)
}

// TestTreeRoundTrip exercises a 3-process tree (root + two leaves): each
// leaf's clause reaches the root and is rebroadcast back down so every
// process ends up holding both.
func TestTreeRoundTrip(t *testing.T) {
	const n = 3
	peers := newMesh(n)

	db0 := newGlobalDB(0)
	db1 := newGlobalDB(1)
	db2 := newGlobalDB(2)
	coord0, coord1, coord2 := term.New(), term.New(), term.New()

	litA := []int32{11, 12, 13}
	litB := []int32{21, 22, 23}
	ca := clause.NewFromLits(append([]int32(nil), litA...), 2, -1)
	cb := clause.NewFromLits(append([]int32(nil), litB...), 2, -1)
	db1.ImportClause(ca)
	ca.Release()
	db2.ImportClause(cb)
	cb.Release()

	const defaultSize = 1000
	tree0, err := NewTree(0, n, nil, []ptransport.Peer{peerTo(peers[0], 1), peerTo(peers[0], 2)}, db0, coord0, defaultSize)
	require.NoError(t, err)
	tree1, err := NewTree(1, n, peerTo(peers[1], 0), nil, db1, coord1, defaultSize)
	require.NoError(t, err)
	tree2, err := NewTree(2, n, peerTo(peers[2], 0), nil, db2, coord2, defaultSize)
	require.NoError(t, err)

	done := make(chan int, n)
	go func() { tree0.DoSharing(); done <- 0 }()
	go func() { tree1.DoSharing(); done <- 1 }()
	go func() { tree2.DoSharing(); done <- 2 }()
	for i := 0; i < n; i++ {
		<-done
	}

	for rank, db := range map[int]*global.Database{0: db0, 1: db1, 2: db2} {
		received := db.ExportClauses()
		assert.Len(t, received, 2, "rank %d", rank)
		var gotA, gotB bool
		for _, c := range received {
			if clause.Equal(c.Lits, litA) {
				gotA = true
			}
			if clause.Equal(c.Lits, litB) {
				gotB = true
			}
			c.Release()
		}
		assert.True(t, gotA, "rank %d missing clause A", rank)
		assert.True(t, gotB, "rank %d missing clause B", rank)
	}
}

// TestTreeOverflowReinsertion is scenario 6: a merge step that cannot fit
// every candidate clause within the Mallob budget keeps the overflow in
// the local toSend database rather than dropping it (P4).
func TestTreeOverflowReinsertion(t *testing.T) {
	const n = 2
	peers := newMesh(n)

	db0 := newGlobalDB(0) // root
	db1 := newGlobalDB(1) // leaf
	coord0, coord1 := term.New(), term.New()

	rootLits := []int32{1, 2, 3}
	leafLits := []int32{4, 5, 6}
	rootClause := clause.NewFromLits(append([]int32(nil), rootLits...), 1, -1)
	leafClause := clause.NewFromLits(append([]int32(nil), leafLits...), 1, -1)
	db0.ImportClause(rootClause)
	rootClause.Release()
	db1.ImportClause(leafClause)
	leafClause.Release()

	// defaultSize=2 with worldSize=2 yields a Mallob budget of 3 literals
	// (mallobBufferSize(2,2) = int(2*0.875*2) = 3): enough for exactly
	// one of the two size-3 clauses this round produces.
	const defaultSize = 2
	require.Equal(t, 3, mallobBufferSize(n, defaultSize))

	tree0, err := NewTree(0, n, nil, []ptransport.Peer{peerTo(peers[0], 1)}, db0, coord0, defaultSize)
	require.NoError(t, err)
	tree1, err := NewTree(1, n, peerTo(peers[1], 0), nil, db1, coord1, defaultSize)
	require.NoError(t, err)

	done := make(chan int, n)
	go func() { tree0.DoSharing(); done <- 0 }()
	go func() { tree1.DoSharing(); done <- 1 }()
	for i := 0; i < n; i++ {
		<-done
	}

	// the root's own clause was merged first and wins the budget; the
	// leaf's clause overflows back into the root's own toSend.
	assert.Equal(t, 1, db0.ToSendSize())
	overflowed := db0.GetClausesToSend()
	require.Len(t, overflowed, 1)
	assert.True(t, clause.Equal(overflowed[0].Lits, leafLits))
	overflowed[0].Release()

	for rank, db := range map[int]*global.Database{0: db0, 1: db1} {
		received := db.ExportClauses()
		require.Len(t, received, 1, "rank %d", rank)
		assert.True(t, clause.Equal(received[0].Lits, rootLits))
		received[0].Release()
	}
}
