package gsharing

import (
	"math"
	"sort"

	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/diag"
	"github.com/nvidia-painless/sharer/global"
	"github.com/nvidia-painless/sharer/internal/nlog"
	"github.com/nvidia-painless/sharer/ptransport"
	"github.com/nvidia-painless/sharer/term"
)

// Topology returns the Mallob binary-tree parent/children ranks for rank
// r out of worldSize processes, rooted at rank 0: children of r are
// 2r+1 and 2r+2 (§4.7 "Mallob (binary-tree aggregation)").
func Topology(r, worldSize int) (parent int, hasParent bool, children []int) {
	if r > 0 {
		parent, hasParent = (r-1)/2, true
	}
	for _, c := range []int{2*r + 1, 2*r + 2} {
		if c < worldSize {
			children = append(children, c)
		}
	}
	return parent, hasParent, children
}

// mallobBufferSize implements the Mallob formula: n · 0.875^(log2 n) ·
// defaultSize, bounding aggregated buffer sizes (§4.7, GLOSSARY).
func mallobBufferSize(worldSize, defaultSize int) int {
	if worldSize <= 1 {
		return defaultSize
	}
	n := float64(worldSize)
	size := n * math.Pow(0.875, math.Log2(n)) * float64(defaultSize)
	if size < float64(defaultSize) {
		size = float64(defaultSize)
	}
	return int(size)
}

// treeFooter is the 3-word trailer every up/down tree message carries
// alongside its clause payload: the Mallob aggregate-buffer-count (§4.7
// step 2, "parse their payload's trailing aggregate-count"), then the
// two-word end vote (§strategy.go endVote).
type treeFooter struct {
	aggCount int32
	vote     endVote
}

func encodeTreeFooter(f treeFooter) [3]int32 {
	v := encodeEndVote(f.vote)
	return [3]int32{f.aggCount, v[0], v[1]}
}

func decodeTreeFooter(words [3]int32) treeFooter {
	return treeFooter{aggCount: words[0], vote: decodeEndVote([2]int32{words[1], words[2]})}
}

// Tree is §4.7's "Mallob (binary-tree aggregation)" global strategy.
// Grounded on painless-src/sharing/GlobalStrategies/ (the Mallob-style
// aggregation strategy) and the wire-framing rules common to every
// global strategy in §4.7.
type Tree struct {
	rank, worldSize int
	parent          ptransport.Peer // nil at the root
	children        []ptransport.Peer

	db          *global.Database
	coord       *term.Coordinator
	defaultSize int

	state state
	stats Stats

	reporter *diag.Reporter
}

var _ Strategy = (*Tree)(nil)

// SetReporter wires a diagnostics reporter in after construction.
func (t *Tree) SetReporter(r *diag.Reporter) {
	t.reporter = r
}

// NewTree builds a tree strategy for this process's position. parent is
// nil iff rank == 0 (the root). worldSize must be >= 2 (InsufficientPeers
// otherwise, §7).
func NewTree(rank, worldSize int, parent ptransport.Peer, children []ptransport.Peer, db *global.Database, coord *term.Coordinator, defaultSize int) (*Tree, error) {
	if worldSize < 2 {
		return nil, checkPeerCount(0)
	}
	return &Tree{
		rank:        rank,
		worldSize:   worldSize,
		parent:      parent,
		children:    children,
		db:          db,
		coord:       coord,
		defaultSize: defaultSize,
	}, nil
}

// DoSharing implements Strategy.
func (t *Tree) DoSharing() bool {
	if t.state == stateJoined {
		return true
	}
	t.stats.Rounds++

	myVote := endVote{ending: t.coord.Ending(), result: t.coord.Result()}
	budget := mallobBufferSize(t.worldSize, t.defaultSize)

	own := drainToSend(t.db, budget)
	merged := own
	aggCount := int32(1)
	agg := myVote

	for _, child := range t.children {
		_, payload, err := child.Recv()
		if err != nil {
			nlog.Errorf("[tree %d] recv from child rank %d failed: %v", t.rank, child.Rank(), err)
			t.state = stateJoined
			return true
		}
		footer, clauseWords := splitFooter(payload, 3)
		f := decodeTreeFooter([3]int32{footer[0], footer[1], footer[2]})
		childClauses := Decode(clauseWords, int32(t.db.ID()))
		merged = append(merged, childClauses...)
		aggCount += f.aggCount
		agg = mergeEndVotes(agg, f.vote)
		t.stats.Received += int64(len(childClauses))
	}

	// k-way merge: ascending clause size, ties broken by LBD (§4.7 step
	// 2), with per-round duplicate suppression.
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Size != merged[j].Size {
			return merged[i].Size < merged[j].Size
		}
		return merged[i].LBD.Load() < merged[j].LBD.Load()
	})
	kept, dropped := dedupeForRound(merged, 1<<18)
	for _, c := range dropped {
		t.reporter.DuplicateSeen("tree")
		c.Release()
	}

	forward, overflow := trimByBudget(kept, budget)
	// overflow clauses are appended to this node's own toSend, never
	// discarded (§4.7 "Overflow policy during merge").
	reinsertOverflow(t.db, overflow)

	footerWords := encodeTreeFooter(treeFooter{aggCount: aggCount, vote: agg})

	if t.parent != nil {
		// budget counts literals; each clause adds an lbd word and a
		// terminator on the wire.
		buf, leftover := EncodeFixed(forward, budget+2*len(forward))
		reinsertOverflow(t.db, leftover)
		for _, c := range forward[:len(forward)-len(leftover)] {
			c.Release()
		}
		buf = append(buf, footerWords[:]...)
		if err := t.parent.Send(ptransport.TagClauses, buf); err != nil {
			nlog.Errorf("[tree %d] send to parent failed: %v", t.rank, err)
			t.state = stateJoined
			return true
		}

		// wait for the root's downward broadcast, relayed hop by hop
		// (§4.7 step 3).
		_, down, err := t.parent.Recv()
		if err != nil {
			nlog.Errorf("[tree %d] recv broadcast from parent failed: %v", t.rank, err)
			t.state = stateJoined
			return true
		}
		downFooter, downClauseWords := splitFooter(down, 3)
		df := decodeTreeFooter([3]int32{downFooter[0], downFooter[1], downFooter[2]})
		t.relayDown(down)
		t.deliver(downClauseWords)
		return t.finish(df.vote)
	}

	// root: the merged+trimmed result *is* the broadcast payload.
	buf, leftover := EncodeFixed(forward, budget+2*len(forward))
	reinsertOverflow(t.db, leftover)
	for _, c := range forward[:len(forward)-len(leftover)] {
		c.Release()
	}
	buf = append(buf, footerWords[:]...)
	t.relayDown(buf)
	t.deliver(buf[:len(buf)-3])
	return t.finish(agg)
}

func (t *Tree) relayDown(buf []int32) {
	for _, child := range t.children {
		if err := child.Send(ptransport.TagClauses, buf); err != nil {
			nlog.Errorf("[tree %d] broadcast to child rank %d failed: %v", t.rank, child.Rank(), err)
		}
	}
}

func (t *Tree) deliver(clauseWords []int32) {
	clauses := Decode(clauseWords, int32(t.db.ID()))
	t.db.AddReceivedClauses(clauses)
	t.stats.Sent += int64(len(clauses))
}

func (t *Tree) finish(agg endVote) bool {
	if agg.ending {
		t.coord.End(agg.result)
		t.state = stateJoined
		return true
	}
	return false
}

func splitFooter(buf []int32, footerWords int) (footer, rest []int32) {
	if len(buf) < footerWords {
		return make([]int32, footerWords), nil
	}
	split := len(buf) - footerWords
	return buf[split:], buf[:split]
}

// trimByBudget keeps a size-ascending-sorted prefix of cs whose literal
// sum does not exceed budget, returning the rest as overflow (P3/P4
// applied to the tree's merge step).
func trimByBudget(cs []*clause.Clause, budget int) (kept, overflow []*clause.Clause) {
	used := 0
	i := 0
	for ; i < len(cs); i++ {
		next := used + int(cs[i].Size)
		if next > budget {
			break
		}
		used = next
	}
	return cs[:i], cs[i:]
}

// Stats implements Strategy.
func (t *Tree) Stats() Stats { return t.stats }
