package clausedb

import (
	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/diag"
)

// Vector is the single-threaded database variant used by the local
// sharing strategies (one instance per producer id) — no internal
// synchronization; callers must serialize access themselves, the same
// requirement the teacher places on buffers only ever touched from one
// sharer goroutine (§5: "local strategies access theirs only from their
// sharer thread"). Mirrors ClauseDatabaseVector.
type Vector struct {
	maxClauseSize int
	buckets       []fifo // index by clause size
	totalSizes    []int64
	size          int

	name     string
	reporter *diag.Reporter
}

var _ Database = (*Vector)(nil)

// NewVector creates a database with the given maximum accepted clause
// size (<= 0 means unbounded, per §3).
func NewVector(maxClauseSize int) *Vector {
	return &Vector{maxClauseSize: maxClauseSize}
}

// SetReporter wires a diagnostics reporter in after construction, so
// existing call sites that build a Vector without diagnostics keep
// working unchanged. name labels this database's metrics (e.g. the
// producer id it belongs to).
func (d *Vector) SetReporter(r *diag.Reporter, name string) {
	d.reporter = r
	d.name = name
}

func (d *Vector) ensure(size int) {
	for len(d.buckets) <= size {
		d.buckets = append(d.buckets, fifo{})
	}
	for len(d.totalSizes) <= size {
		d.totalSizes = append(d.totalSizes, 0)
	}
}

// AddClause implements Database.
func (d *Vector) AddClause(c *clause.Clause) bool {
	if d.maxClauseSize > 0 && int(c.Size) > d.maxClauseSize {
		c.Release()
		d.reporter.ClauseRejected(d.name)
		return false
	}
	d.ensure(int(c.Size))
	d.buckets[c.Size].pushBack(c)
	d.totalSizes[c.Size]++
	d.size++
	d.reporter.ClauseAccepted(d.name, int(c.Size))
	return true
}

// GiveSelection implements Database. P3/P6: ascending size, FIFO within
// size, strict literal-budget prefix.
func (d *Vector) GiveSelection(budget int) (selected []*clause.Clause, literals int) {
	for size := 1; size < len(d.buckets); size++ {
		b := &d.buckets[size]
		for {
			if b.len() == 0 {
				break
			}
			next := literals + size
			if next > budget {
				return selected, literals
			}
			c, ok := b.popFront()
			if !ok {
				break
			}
			selected = append(selected, c)
			literals = next
			d.size--
		}
	}
	return selected, literals
}

// GetClauses implements Database.
func (d *Vector) GetClauses() []*clause.Clause {
	var out []*clause.Clause
	for size := range d.buckets {
		out = append(out, d.buckets[size].drain()...)
	}
	d.size = 0
	return out
}

// GiveOneClause implements Database.
func (d *Vector) GiveOneClause() (*clause.Clause, bool) {
	for size := 1; size < len(d.buckets); size++ {
		if c, ok := d.buckets[size].popFront(); ok {
			d.size--
			return c, true
		}
	}
	return nil, false
}

// GetSizes implements Database.
func (d *Vector) GetSizes() []int {
	out := make([]int, len(d.buckets))
	for size := range d.buckets {
		out[size] = d.buckets[size].len()
	}
	return out
}

// GetSize implements Database.
func (d *Vector) GetSize() int { return d.size }

// DeleteClauses implements Database.
func (d *Vector) DeleteClauses(fromSize int) {
	if fromSize < 1 {
		fromSize = 1
	}
	for size := fromSize; size < len(d.buckets); size++ {
		for _, c := range d.buckets[size].drain() {
			c.Release()
			d.size--
		}
	}
}

// TotalSizes implements Database.
func (d *Vector) TotalSizes() []int64 {
	out := make([]int64, len(d.totalSizes))
	copy(out, d.totalSizes)
	return out
}
