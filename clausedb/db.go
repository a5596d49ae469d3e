// Package clausedb implements the size-bucketed clause database (C4): a
// fixed mapping from clause size to an ordered (FIFO) collection of
// clauses of that size, with bounded-size selection by ascending size.
// Grounded on painless-src/clauses/ClauseDatabase.h and
// ClauseDatabaseVector.h (the "no parallel read/write" vector variant),
// with a second, concurrency-safe variant for producer/consumer access
// from multiple sharer threads at once (§5 Shared-resource policy).
package clausedb

import "github.com/nvidia-painless/sharer/clause"

// Database is the contract every clause-database variant implements
// (§4.3). Implementations: Vector (single-threaded) and LockFree
// (concurrent addClause/giveOneClause/giveSelection).
type Database interface {
	// AddClause takes ownership of c's existing reference if accepted
	// (size within MaxClauseSize, or MaxClauseSize <= 0 for unbounded);
	// otherwise releases c's reference and returns false.
	AddClause(c *clause.Clause) bool

	// GiveSelection fills and returns clauses drawn ascending by size,
	// FIFO within a size, stopping as soon as including the next clause
	// would exceed budget literals. Selected clauses are removed from
	// the database; ownership (the held reference) transfers to the
	// caller. Returns the clauses and the number of literals selected.
	GiveSelection(budget int) (selected []*clause.Clause, literals int)

	// GetClauses drains every clause from the database.
	GetClauses() []*clause.Clause

	// GiveOneClause pops the single smallest-size, oldest clause.
	// Returns false iff the database is empty.
	GiveOneClause() (*clause.Clause, bool)

	// GetSizes returns the current bucket length indexed by size (index
	// 0 unused, since clause size is always >= 1).
	GetSizes() []int

	// GetSize returns the total clause count across all buckets.
	GetSize() int

	// DeleteClauses releases and drops all clauses of size >= fromSize.
	DeleteClauses(fromSize int)

	// TotalSizes returns the cumulative per-size accepted-clause counts
	// since construction, for diagnostics (§3 "Total-size statistics").
	TotalSizes() []int64
}

// fifo is a minimal FIFO queue over clause pointers, compacted instead of
// shifting every pop so GiveOneClause/GiveSelection stay amortized O(1)
// per element.
type fifo struct {
	items []*clause.Clause
	head  int
}

func (q *fifo) pushBack(c *clause.Clause) {
	q.items = append(q.items, c)
}

func (q *fifo) popFront() (*clause.Clause, bool) {
	if q.head >= len(q.items) {
		return nil, false
	}
	c := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	q.compact()
	return c, true
}

func (q *fifo) len() int { return len(q.items) - q.head }

func (q *fifo) compact() {
	if q.head > 0 && q.head*2 > len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
}

func (q *fifo) drain() []*clause.Clause {
	out := q.items[q.head:]
	q.items, q.head = nil, 0
	return out
}
