package gsharing

import (
	"encoding/binary"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/nvidia-painless/sharer/bloom"
	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/global"
	"github.com/nvidia-painless/sharer/internal/xerr"
	"github.com/nvidia-painless/sharer/term"
)

// Strategy is the global (inter-process) sharing contract (C8): one
// doSharing() round serializes, exchanges with peers, and deserializes,
// coordinating end-of-run across the whole topology as it goes. It has
// the same method names as sharing.Strategy (DoSharing/Stats) but is its
// own interface: Stats returns this package's Stats type and there are no
// Visitor methods, so a global strategy is not a sharing.Strategy.
type Strategy interface {
	DoSharing() bool
	Stats() Stats
}

// Stats mirrors sharing.Stats for the global tier: clauses sent/received
// across the wire and duplicates suppressed by the per-round bloom.
type Stats struct {
	Sent       int64
	Received   int64
	Duplicates int64
	Rounds     int64
}

// state is the per-process state machine every global strategy drives
// itself through (§4.7 "State machine per global strategy").
type state int

const (
	stateActive state = iota
	stateEndPending
	stateJoined
)

// clauseKey turns a clause's literal vector into a byte key suitable for
// the cuckoo/bloom filters, which operate on []byte rather than []int32.
func clauseKey(lits []int32) []byte {
	buf := make([]byte, 4*len(lits))
	for i, lit := range lits {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(lit))
	}
	return buf
}

// sentFilter is the long-lived, deletable "already sent this process
// lifetime" set backing the ring and all-gather strategies (§9 open
// question: "the source prevents [re-broadcast] with a long-lived
// send-side filter. An implementation must preserve this behavior").
// A plain bloom filter never forgets and never supports Delete, so a
// cuckoo filter (already a teacher dependency, seiflotfy/cuckoofilter)
// is used here instead — see SPEC_FULL.md §3.
type sentFilter struct {
	cf *cuckoo.Filter
}

func newSentFilter(capacity uint) *sentFilter {
	return &sentFilter{cf: cuckoo.NewFilter(capacity)}
}

// testAndMark reports whether lits was already marked sent, and marks it
// unconditionally afterward (the atomic test-and-set shape bloom.Filter
// offers via ContainsOrInsert, reimplemented here over the cuckoo filter
// since it has a different underlying type).
func (s *sentFilter) testAndMark(lits []int32) bool {
	key := clauseKey(lits)
	seen := s.cf.Lookup(key)
	s.cf.InsertUnique(key)
	return seen
}

// forget removes lits from the filter, used when a clause that was
// provisionally marked sent turns out to have been re-inserted into
// toSend instead (budget overflow, P4) — it must be eligible to be sent
// again in a later round.
func (s *sentFilter) forget(lits []int32) {
	s.cf.Delete(clauseKey(lits))
}

// dedupeForRound applies a fresh per-round bloom.Filter to suppress
// within-round duplicates during serialization (§4.7 "Serialization ...
// a per-round bloom filter suppresses within-round duplicates", P5).
func dedupeForRound(cs []*clause.Clause, width int) (kept []*clause.Clause, dropped []*clause.Clause) {
	f := bloom.New(width)
	for _, c := range cs {
		if f.ContainsOrInsert(c.Lits) {
			dropped = append(dropped, c)
		} else {
			kept = append(kept, c)
		}
	}
	return kept, dropped
}

// checkPeerCount is the InsufficientPeers self-disable check every
// constructor performs (§7).
func checkPeerCount(have int) error {
	if have+1 < 2 {
		return xerr.InsufficientPeers(have+1, 2)
	}
	return nil
}

// endVote is the trailing fixed-width footer every topology appends to
// its wire buffers to carry end-of-run state alongside clauses in the
// same round-trip, rather than requiring a wholly separate message
// exchange per round (§6 "Messages are typed by transport-level tags:
// one tag for clause buffers, one tag for end signals" is satisfied at
// the ptransport.Tag layer for the dedicated BroadcastEnd path; this
// footer is this package's in-band shortcut for topologies, like
// all-gather and the tree, whose single collective already carries a
// structured payload anyone can append two words to).
type endVote struct {
	ending bool
	result term.Result
}

func encodeEndVote(v endVote) [2]int32 {
	var flag int32
	if v.ending {
		flag = 1
	}
	return [2]int32{flag, int32(v.result)}
}

func decodeEndVote(words [2]int32) endVote {
	return endVote{ending: words[0] != 0, result: term.Result(words[1])}
}

func mergeEndVotes(a, b endVote) endVote {
	if a.ending {
		return a
	}
	if b.ending {
		return b
	}
	return endVote{}
}

// drainToSend is the common serialize-source helper: pull a literal-budgeted
// selection out of the global database's toSend side.
func drainToSend(db *global.Database, budget int) []*clause.Clause {
	return db.GetClausesToSendBudget(budget)
}

// reinsertOverflow puts clauses that did not fit in a round's output
// budget back into toSend, so P4 (no loss on overflow) holds. The
// caller's own transient reference (held since drainToSend pulled these
// out of toSend) is released afterward, since ImportClause/AddClause
// already bumped a fresh reference on the database's behalf (see
// global.Database.ImportClause) — the same distribute-then-release-once
// discipline every local strategy in package sharing follows.
func reinsertOverflow(db *global.Database, overflow []*clause.Clause) {
	db.ImportClauses(overflow)
	for _, c := range overflow {
		c.Release()
	}
}
