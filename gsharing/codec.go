// Package gsharing implements the global (inter-process) sharing tier
// (C8): the wire codec shared by every topology, and the three global
// strategies (all-gather, Mallob-style tree aggregation, ring), each
// driving package global's Database and talking to peers through
// package ptransport. Grounded on
// painless-src/sharing/GlobalStrategies/*.
package gsharing

import "github.com/nvidia-painless/sharer/clause"

// Encode serializes clauses as the flat <lit>...<lbd-or--1> 0 pattern
// (§4.7): literals in order, then the clause's lbd (or -1 when lbd is
// the "unknown" sentinel, to keep it distinguishable from the 0
// terminator), then a 0 terminator. Literals are never 0 (1-based
// variable indices), so 0 unambiguously ends a clause — the same trick
// DIMACS CNF clause lists use.
func Encode(cs []*clause.Clause) []int32 {
	var out []int32
	for _, c := range cs {
		out = append(out, c.Lits...)
		out = append(out, lbdToWire(c.LBD.Load()))
		out = append(out, 0)
	}
	return out
}

// EncodeFixed is Encode bounded to a fixed-width buffer (for topologies
// that exchange same-size buffers, e.g. all-gather, so peer counts don't
// need to be communicated up front): it stops before any clause whose
// encoding would overflow totalSize, returning that clause and everything
// after it as leftover so the caller can reinsert them into the source
// database rather than lose them (P4, scenario 6).
func EncodeFixed(cs []*clause.Clause, totalSize int) (buf []int32, leftover []*clause.Clause) {
	used := 0
	i := 0
	for ; i < len(cs); i++ {
		need := len(cs[i].Lits) + 2 // literals + lbd + terminator
		if used+need > totalSize {
			break
		}
		buf = append(buf, cs[i].Lits...)
		buf = append(buf, lbdToWire(cs[i].LBD.Load()))
		buf = append(buf, 0)
		used += need
	}
	for len(buf) < totalSize {
		buf = append(buf, 0)
	}
	return buf, cs[i:]
}

// Decode parses a buffer produced by Encode/EncodeFixed back into
// clauses, with from set on every result. Trailing zero padding (an
// empty literal run immediately followed by 0) stops decoding early.
func Decode(buf []int32, from int32) []*clause.Clause {
	var out []*clause.Clause
	i := 0
	for i < len(buf) {
		start := i
		for i < len(buf) && buf[i] != 0 {
			i++
		}
		if i >= len(buf) {
			break // malformed trailing data with no terminator; ignore
		}
		run := buf[start:i]
		i++ // skip the terminator
		if len(run) == 0 {
			break // padding reached: nothing meaningful follows
		}
		lits := append([]int32(nil), run[:len(run)-1]...)
		lbd := wireToLBD(run[len(run)-1])
		out = append(out, clause.NewFromLits(lits, lbd, from))
	}
	return out
}

// DecodeMany splits buf into vectorCount chunks of oneVectorSize each
// (the shape an all-gather collective produces: one fixed-size buffer
// per participant, concatenated) and decodes every chunk, tagging each
// clause with the rank that contributed it.
func DecodeMany(buf []int32, oneVectorSize, vectorCount int) []*clause.Clause {
	var out []*clause.Clause
	for rank := 0; rank < vectorCount; rank++ {
		start := rank * oneVectorSize
		end := start + oneVectorSize
		if end > len(buf) {
			break
		}
		out = append(out, Decode(buf[start:end], int32(rank))...)
	}
	return out
}

func lbdToWire(lbd int32) int32 {
	if lbd == clause.Unknown {
		return -1
	}
	return lbd
}

func wireToLBD(v int32) int32 {
	if v == -1 {
		return clause.Unknown
	}
	return v
}
