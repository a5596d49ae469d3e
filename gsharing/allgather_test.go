package gsharing

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/clausedb"
	"github.com/nvidia-painless/sharer/global"
	"github.com/nvidia-painless/sharer/ptransport"
	"github.com/nvidia-painless/sharer/term"
)

// newMesh mirrors ptransport's own newMeshPeers helper: a full mesh of n
// processes over net.Pipe, one peer list per rank excluding itself.
func newMesh(n int) [][]ptransport.Peer {
	conns := make(map[[2]int][2]net.Conn)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := net.Pipe()
			conns[[2]int{i, j}] = [2]net.Conn{a, b}
		}
	}
	peers := make([][]ptransport.Peer, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			var conn net.Conn
			if i < j {
				conn = conns[[2]int{i, j}][0]
			} else {
				conn = conns[[2]int{j, i}][1]
			}
			peers[i] = append(peers[i], ptransport.NewTCPPeer(j, conn))
		}
	}
	return peers
}

func newGlobalDB(id int) *global.Database {
	return global.New(id, clausedb.NewLockFree(0), clausedb.NewLockFree(0))
}

// TestAllGatherRoundTrip is scenario 4: three processes each seed toSend
// with one clause; after one DoSharing round every process holds all
// three in received, with LBD (including the unknown sentinel) restored
// correctly across the wire.
func TestAllGatherRoundTrip(t *testing.T) {
	const n = 3
	peers := newMesh(n)
	dbs := make([]*global.Database, n)
	coords := make([]*term.Coordinator, n)
	strats := make([]*AllGather, n)

	seed := [][]int32{{1, 2}, {-3, 4, 5}, {6}}
	lbds := []int32{3, clause.Unknown, 5}

	for i := 0; i < n; i++ {
		dbs[i] = newGlobalDB(i)
		coords[i] = term.New()
		c := clause.NewFromLits(append([]int32(nil), seed[i]...), lbds[i], -1)
		dbs[i].ImportClause(c)
		c.Release()

		strat, err := NewAllGather(i, n, peers[i], dbs[i], coords[i], 16)
		require.NoError(t, err)
		strats[i] = strat
	}

	done := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			strats[i].DoSharing()
			done <- i
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	for i := 0; i < n; i++ {
		received := dbs[i].ExportClauses()
		// rank i sees the other two processes' clauses in received.
		assert.Len(t, received, n-1)
		for _, c := range received {
			found := false
			for k := 0; k < n; k++ {
				if k == i {
					continue
				}
				if clause.Equal(c.Lits, seed[k]) {
					found = true
					assert.Equal(t, lbds[k], c.LBD.Load())
				}
			}
			assert.True(t, found, "unexpected clause %v on rank %d", c.Lits, i)
			c.Release()
		}
	}
}

// TestAllGatherInsufficientPeers exercises §7: fewer than two
// participants self-disables the strategy at construction.
func TestAllGatherInsufficientPeers(t *testing.T) {
	db := newGlobalDB(0)
	coord := term.New()
	_, err := NewAllGather(0, 1, nil, db, coord, 16)
	assert.Error(t, err)
}

// TestAllGatherPropagatesEnd is scenario-adjacent to 5: one process
// already decided to end; its peers observe that result after one round.
func TestAllGatherPropagatesEnd(t *testing.T) {
	const n = 3
	peers := newMesh(n)
	dbs := make([]*global.Database, n)
	coords := make([]*term.Coordinator, n)
	strats := make([]*AllGather, n)

	for i := 0; i < n; i++ {
		dbs[i] = newGlobalDB(i)
		coords[i] = term.New()
		strat, err := NewAllGather(i, n, peers[i], dbs[i], coords[i], 8)
		require.NoError(t, err)
		strats[i] = strat
	}
	coords[1].End(term.SAT)

	done := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			strats[i].DoSharing()
			done <- i
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	for i := 0; i < n; i++ {
		assert.True(t, coords[i].Ending(), "rank %d did not observe end", i)
		assert.Equal(t, term.SAT, coords[i].Result())
	}
}
