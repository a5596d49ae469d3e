package sharing

import "github.com/nvidia-painless/sharer/clause"

// Strategy is the local-strategy contract (C6): one doSharing round pulls
// from every producer and pushes a selection into every consumer.
type Strategy interface {
	Visitor
	// DoSharing runs one round. Returns true if the caller (sharer
	// thread) should stop looping, mirroring the C++ convention of
	// returning globalEnding as the loop's exit signal.
	DoSharing() bool
	// Stats reports the strategy's cumulative counters for diagnostics.
	Stats() Stats
}

// Stats accumulates the per-round counters every strategy maintains,
// grounded on the fields HordeSatSharing.cpp increments on its private
// SharingStatistics member.
type Stats struct {
	ReceivedClauses  int64
	ReceivedDuplicas int64
	SharedClauses    int64
	PromotionTiers2  int64
	PromotionCore    int64
	AlreadyTiers2    int64
	AlreadyCore      int64
}

func literalsCount(cs []*clause.Clause) int {
	n := 0
	for _, c := range cs {
		n += int(c.Size)
	}
	return n
}

// endCheck is the shared cross-strategy termination check a doSharing
// round consults on entry and exit (§4.9/§4.11). Strategies take it as a
// function rather than a free-standing package variable so the coordinator
// in package term owns the single canonical flag (C11).
type endCheck func() bool

// fillPercent reports how full a budget was used, as an integer percent.
func fillPercent(usedLiterals, budget int) int {
	if budget <= 0 {
		return 0
	}
	return (100 * usedLiterals) / budget
}
