package ptransport

import (
	"golang.org/x/sync/errgroup"

	"github.com/nvidia-painless/sharer/internal/xerr"
)

// AllGather sends mine to every peer and returns a slice indexed by
// topology rank containing what each peer (and this process itself, at
// its own rank index) contributed — the collective the all-gather
// global strategy needs. The local contribution is placed at
// selfRank without going over the wire. Concurrency is managed by
// golang.org/x/sync/errgroup (no limit set), fanning sends and receives out across all
// peers at once rather than round-robining one at a time.
func AllGather(peers []Peer, selfRank int, mine []int32, worldSize int) ([][]int32, error) {
	out := make([][]int32, worldSize)
	out[selfRank] = mine

	var g errgroup.Group
	for _, peer := range peers {
		peer := peer
		g.Go(func() error {
			return peer.Send(TagClauses, mine)
		})
	}
	for _, peer := range peers {
		peer := peer
		g.Go(func() error {
			tag, payload, err := peer.Recv()
			if err != nil {
				return err
			}
			if tag != TagClauses {
				return xerr.Transport(errUnexpectedTag)
			}
			out[peer.Rank()] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(peers)+1 < worldSize {
		return nil, xerr.InsufficientPeers(len(peers)+1, worldSize)
	}
	return out, nil
}

// BroadcastEnd notifies every peer of process termination (mirrors the
// original's MPI_Issend loop in AllGatherSharing/RingSharing sending
// MYMPI_END to every neighbor once globalEnding is set locally).
func BroadcastEnd(peers []Peer, finalResult int32) error {
	var g errgroup.Group
	for _, peer := range peers {
		peer := peer
		g.Go(func() error {
			return peer.Send(TagEnd, []int32{finalResult})
		})
	}
	return g.Wait()
}

type transportErrString string

func (e transportErrString) Error() string { return string(e) }

var errUnexpectedTag = transportErrString("unexpected tag in collective exchange")
