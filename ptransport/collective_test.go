package ptransport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMeshPeers builds a full mesh of n processes connected pairwise by
// net.Pipe, returning each process's peer list (indexed by its own rank,
// excluding itself).
func newMeshPeers(n int) [][]Peer {
	conns := make(map[[2]int][2]net.Conn)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := net.Pipe()
			conns[[2]int{i, j}] = [2]net.Conn{a, b}
		}
	}

	peers := make([][]Peer, n)
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
			peers[i] = append(peers[i], NewTCPPeer(j, conn))
		}
	}
	return peers
}

// TestAllGatherThreeRanks is scenario 4: three processes each contribute
// one buffer; after all-gather, every process holds all three.
func TestAllGatherThreeRanks(t *testing.T) {
	const n = 3
	peers := newMeshPeers(n)
	mine := [][]int32{
		{1, 2, 3, 0},
		{-3, 4, 5, 4, 0},
		{6, 1, 0},
	}

	results := make([][][]int32, n)
	errs := make([]error, n)
	done := make(chan int, n)
	for rank := 0; rank < n; rank++ {
		rank := rank
		go func() {
			results[rank], errs[rank] = AllGather(peers[rank], rank, mine[rank], n)
			done <- rank
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	for rank := 0; rank < n; rank++ {
		require.NoError(t, errs[rank])
		for k := 0; k < n; k++ {
			assert.Equal(t, mine[k], results[rank][k])
		}
	}
}
