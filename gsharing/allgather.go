package gsharing

import (
	"github.com/nvidia-painless/sharer/diag"
	"github.com/nvidia-painless/sharer/global"
	"github.com/nvidia-painless/sharer/internal/nlog"
	"github.com/nvidia-painless/sharer/ptransport"
	"github.com/nvidia-painless/sharer/term"
)

// AllGather is §4.7's "All-gather": every process contributes a
// fixed-size buffer; one collective call disseminates all buffers to all
// participants. Grounded on painless-src/sharing/GlobalStrategies/
// AllGatherSharing.cpp.
//
// The end-of-run footer (two extra words appended to the fixed-size
// buffer) lets a process that decides to end still participate in
// exactly one more collective and have every peer observe its decision
// in that same round — satisfying P7 with diameter 1 for this topology
// without a separate synchronous end broadcast beforehand. A process
// that already reached stateJoined selects the "undefined" color by
// skipping the collective entirely (§4.7 "Processes unwilling to
// participate in a round ... drop out ... and skip the collective").
type AllGather struct {
	selfRank  int
	worldSize int
	peers     []ptransport.Peer

	db          *global.Database
	coord       *term.Coordinator
	literalBudget int
	oneVectorSize int // literalBudget + 2 (end-vote footer)

	sent  *sentFilter
	state state
	stats Stats

	reporter *diag.Reporter
}

var _ Strategy = (*AllGather)(nil)

// SetReporter wires a diagnostics reporter in after construction.
func (a *AllGather) SetReporter(r *diag.Reporter) {
	a.reporter = r
}

// NewAllGather builds an all-gather strategy. peers excludes the caller
// itself; worldSize is the total process count (len(peers)+1).
func NewAllGather(selfRank, worldSize int, peers []ptransport.Peer, db *global.Database, coord *term.Coordinator, literalBudget int) (*AllGather, error) {
	if err := checkPeerCount(len(peers)); err != nil {
		return nil, err
	}
	return &AllGather{
		selfRank:      selfRank,
		worldSize:     worldSize,
		peers:         peers,
		db:            db,
		coord:         coord,
		literalBudget: literalBudget,
		oneVectorSize: literalBudget + 2,
		sent:          newSentFilter(1 << 20),
	}, nil
}

// DoSharing implements Strategy.
func (a *AllGather) DoSharing() bool {
	if a.state == stateJoined {
		return true
	}
	a.stats.Rounds++

	myVote := endVote{ending: a.coord.Ending(), result: a.coord.Result()}
	if myVote.ending && a.state == stateActive {
		a.state = stateEndPending
	}

	toSend := drainToSend(a.db, a.literalBudget)
	kept, dropped := dedupeForRound(toSend, 1<<18)
	for _, c := range dropped {
		a.reporter.DuplicateSeen("allgather")
		c.Release()
	}

	filtered := kept[:0]
	for _, c := range kept {
		if a.sent.testAndMark(c.Lits) {
			a.reporter.DuplicateSeen("allgather")
			c.Release()
			continue
		}
		filtered = append(filtered, c)
	}

	buf, leftover := EncodeFixed(filtered, a.literalBudget)
	for _, c := range leftover {
		a.sent.forget(c.Lits)
	}
	reinsertOverflow(a.db, leftover)
	// clauses actually serialized onto the wire are now just bytes in
	// buf; this strategy's transient reference to each is done.
	for _, c := range filtered[:len(filtered)-len(leftover)] {
		c.Release()
	}

	footer := encodeEndVote(myVote)
	buf = append(buf, footer[0], footer[1])

	results, err := ptransport.AllGather(a.peers, a.selfRank, buf, a.worldSize)
	if err != nil {
		nlog.Errorf("[allgather] transport failure: %v", err)
		a.state = stateJoined
		return true
	}

	agg := myVote
	for rank, vec := range results {
		if rank == a.selfRank {
			a.stats.Sent += int64(len(filtered) - len(leftover))
			continue
		}
		// from is the local global database's own id (§4.6: "A clause in
		// received has been produced by a remote process; its from
		// field references the global database's id"), not the sending
		// rank — the wire format itself carries no origin id.
		clauses := Decode(vec[:a.literalBudget], int32(a.db.ID()))
		a.db.AddReceivedClauses(clauses)
		a.stats.Received += int64(len(clauses))

		peerVote := decodeEndVote([2]int32{vec[a.literalBudget], vec[a.literalBudget+1]})
		agg = mergeEndVotes(agg, peerVote)
	}

	if agg.ending {
		a.coord.End(agg.result)
	}

	if a.state == stateEndPending {
		a.state = stateJoined
		return true
	}
	return false
}

// Stats implements Strategy.
func (a *AllGather) Stats() Stats { return a.stats }
