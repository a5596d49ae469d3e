package gsharing

import (
	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/diag"
	"github.com/nvidia-painless/sharer/global"
	"github.com/nvidia-painless/sharer/internal/nlog"
	"github.com/nvidia-painless/sharer/ptransport"
	"github.com/nvidia-painless/sharer/term"
)

// Ring is §4.7's "Ring": each process has a left and right neighbor on a
// cyclic topology; each round sends one buffer each way and probes for
// incoming buffers from both neighbors. Grounded on
// painless-src/sharing/GlobalStrategies/RingSharing.cpp.
//
// Two long-lived filters guard against the loop the open question in §9
// flags: sendFilter (a cuckoo filter, deletable so P4 overflow
// reinsertion can un-mark a clause) remembers everything this process has
// ever put on the wire in either direction, and recvFilter remembers
// everything accepted from either neighbor, so a clause this process
// originated is never re-forwarded back to it by the ring, and a clause
// already propagated once is never propagated again. Both are long-lived
// (never cleared across rounds) per the flagged bug's fix.
//
// End-of-run state travels as a trailing two-word footer on the same
// per-round clause buffer (the pattern package-wide, see endVote), rather
// than as a separate message: a ring neighbor's Recv() is only ever
// called once per peer per round, so a second, independent end-notice
// message sent alongside the regular clause buffer would never be read
// until a neighbor happened to call Recv() again in a later round,
// leaving the sender permanently blocked on that extra Send.
type Ring struct {
	rank, worldSize int
	left, right     ptransport.Peer

	db            *global.Database
	coord         *term.Coordinator
	literalBudget int

	sendFilter *sentFilter
	recvFilter *sentFilter

	state state
	stats Stats

	reporter *diag.Reporter
}

var _ Strategy = (*Ring)(nil)

// SetReporter wires a diagnostics reporter in after construction.
func (r *Ring) SetReporter(rep *diag.Reporter) {
	r.reporter = rep
}

// NewRing builds a ring strategy. left and right are this process's
// cyclic neighbors (worldSize >= 2, otherwise an InsufficientPeers error
// is returned — a 2-process ring has left == right).
func NewRing(rank, worldSize int, left, right ptransport.Peer, db *global.Database, coord *term.Coordinator, literalBudget int) (*Ring, error) {
	if worldSize < 2 {
		return nil, checkPeerCount(0)
	}
	return &Ring{
		rank:          rank,
		worldSize:     worldSize,
		left:          left,
		right:         right,
		db:            db,
		coord:         coord,
		literalBudget: literalBudget,
		sendFilter:    newSentFilter(1 << 20),
		recvFilter:    newSentFilter(1 << 20),
	}, nil
}

// DoSharing implements Strategy. Every round this process sends exactly
// one tagged buffer to each neighbor and receives exactly one back from
// each — always, whether or not termination is in play — so the two
// directions never fall out of frame sync. A process that already knew
// (at the start of this round) that the run is ending carries ending=true
// in its own footer, giving both neighbors the news this round, then
// joins; a process that only learns of it from a neighbor during this
// round waits one further round before joining, so its other neighbor
// still gets the word (§4.7 "forwarded ... within the topology's
// diameter").
func (r *Ring) DoSharing() bool {
	if r.state == stateJoined {
		return true
	}
	r.stats.Rounds++

	alreadyEnding := r.coord.Ending()

	toSend := drainToSend(r.db, r.literalBudget)
	kept, dropped := dedupeForRound(toSend, 1<<18)
	for _, c := range dropped {
		r.reporter.DuplicateSeen("ring")
		c.Release()
	}

	var fresh []*clause.Clause
	for _, c := range kept {
		if r.sendFilter.testAndMark(c.Lits) {
			r.reporter.DuplicateSeen("ring")
			c.Release()
			continue
		}
		fresh = append(fresh, c)
	}

	// The same fresh clauses go out in both directions; EncodeFixed only
	// reads them, so one leftover computation (the budget is identical
	// both ways) governs what gets released vs. requeued for both wires.
	bufLeft, leftover := EncodeFixed(fresh, r.literalBudget)
	bufRight, _ := EncodeFixed(fresh, r.literalBudget)
	for _, c := range leftover {
		r.sendFilter.forget(c.Lits)
	}
	reinsertOverflow(r.db, leftover)
	for _, c := range fresh[:len(fresh)-len(leftover)] {
		c.Release()
	}

	myVote := endVote{ending: alreadyEnding, result: r.coord.Result()}
	footer := encodeEndVote(myVote)
	bufLeft = append(bufLeft, footer[0], footer[1])
	bufRight = append(bufRight, footer[0], footer[1])

	sendErrs := make(chan error, 2)
	go func() { sendErrs <- r.left.Send(ptransport.TagClauses, bufLeft) }()
	go func() { sendErrs <- r.right.Send(ptransport.TagClauses, bufRight) }()

	agg := myVote
	for _, peer := range []ptransport.Peer{r.left, r.right} {
		_, payload, err := peer.Recv()
		if err != nil {
			nlog.Errorf("[ring %d] recv from rank %d failed: %v", r.rank, peer.Rank(), err)
			r.state = stateJoined
			return true
		}
		footerWords, clauseWords := splitFooter(payload, 2)
		peerVote := decodeEndVote([2]int32{footerWords[0], footerWords[1]})
		agg = mergeEndVotes(agg, peerVote)
		r.ingest(clauseWords)
	}
	for i := 0; i < 2; i++ {
		if err := <-sendErrs; err != nil {
			nlog.Errorf("[ring %d] send failed: %v", r.rank, err)
			r.state = stateJoined
			return true
		}
	}

	if agg.ending && !r.coord.Ending() {
		r.coord.End(agg.result)
	}

	if alreadyEnding {
		r.state = stateJoined
		return true
	}
	return false
}

// ingest decodes a neighbor's clause payload, delivers novel clauses into
// received, and re-queues them into toSend for further propagation
// around the ring (§4.7 "A clause received from one neighbor is
// re-queued into toSend for the next round ... iff it has not been sent
// before").
func (r *Ring) ingest(payload []int32) {
	clauses := Decode(payload, int32(r.db.ID()))
	for _, c := range clauses {
		key := append([]int32(nil), c.Lits...)
		if r.recvFilter.testAndMark(key) {
			r.reporter.DuplicateSeen("ring")
			c.Release()
			continue
		}
		r.stats.Received++
		// AddReceivedClause transfers our sole owned reference from
		// Decode directly into the received database (no increment,
		// same sole-owner-transfer contract as clausedb.AddClause).
		// ImportClause separately bumps its own fresh reference for
		// toSend when the clause is due for propagation, so no manual
		// Increase is needed here even though the clause ends up held
		// by two databases at once.
		r.db.AddReceivedClause(c)
		if !r.sendFilter.testAndMark(key) {
			r.db.ImportClause(c)
		}
	}
}

// Stats implements Strategy.
func (r *Ring) Stats() Stats { return r.stats }
