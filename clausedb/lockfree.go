package clausedb

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/diag"
)

// LockFree is the concurrency-safe database variant: the global database
// drains it from its own sharer goroutine via GiveSelection/GiveOneClause
// while the global strategy's transport goroutine concurrently calls
// AddClause (received side) — §5 "Lock-free clause databases tolerate
// concurrent addClause ... and concurrent giveOneClause/giveSelection".
// Implemented with fine-grained per-bucket locking rather than lock-free
// linked structures, which the spec explicitly allows ("implementation
// may use ... fine-grained synchronization"); ordering within a bucket
// stays FIFO since each bucket's mutex serializes its own pushes/pops.
type LockFree struct {
	maxClauseSize int

	// buckets and totalSizes hold pointers, not values: growing these
	// slices with append must never copy a bucket or counter that
	// another goroutine might be holding a *pointer* to and locking
	// concurrently (copying a sync.Mutex mid-use corrupts its state).
	mu      sync.RWMutex // guards growing the buckets slice itself
	buckets []*bucket

	totalSizes []*atomic.Int64
	totalMu    sync.Mutex // guards growing totalSizes
	size       atomic.Int64

	name     string
	reporter *diag.Reporter
}

type bucket struct {
	mu sync.Mutex
	q  fifo
}

var _ Database = (*LockFree)(nil)

// NewLockFree creates a concurrency-safe database.
func NewLockFree(maxClauseSize int) *LockFree {
	return &LockFree{maxClauseSize: maxClauseSize}
}

// SetReporter wires a diagnostics reporter in after construction, so
// existing call sites that build a LockFree without diagnostics keep
// working unchanged. name labels this database's metrics.
func (d *LockFree) SetReporter(r *diag.Reporter, name string) {
	d.reporter = r
	d.name = name
}

func (d *LockFree) bucketFor(size int) *bucket {
	d.mu.RLock()
	if size < len(d.buckets) {
		b := d.buckets[size]
		d.mu.RUnlock()
		return b
	}
	d.mu.RUnlock()

	d.mu.Lock()
	for len(d.buckets) <= size {
		d.buckets = append(d.buckets, &bucket{})
	}
	b := d.buckets[size]
	d.mu.Unlock()
	return b
}

func (d *LockFree) bumpTotal(size int) {
	d.totalMu.Lock()
	for len(d.totalSizes) <= size {
		d.totalSizes = append(d.totalSizes, &atomic.Int64{})
	}
	ctr := d.totalSizes[size]
	d.totalMu.Unlock()
	ctr.Add(1)
}

// AddClause implements Database.
func (d *LockFree) AddClause(c *clause.Clause) bool {
	if d.maxClauseSize > 0 && int(c.Size) > d.maxClauseSize {
		c.Release()
		d.reporter.ClauseRejected(d.name)
		return false
	}
	b := d.bucketFor(int(c.Size))
	b.mu.Lock()
	b.q.pushBack(c)
	b.mu.Unlock()
	d.bumpTotal(int(c.Size))
	d.size.Inc()
	d.reporter.ClauseAccepted(d.name, int(c.Size))
	return true
}

// bucketsSnapshot copies the current bucket pointers out under the lock,
// so callers can safely iterate after releasing d.mu — the slice header
// d.buckets points to may be reallocated by a concurrent AddClause
// (bucketFor's growing append) the instant the lock is dropped, but the
// bucket pointers themselves are stable once published, so a copy of the
// pointer slice is safe to walk lock-free.
func (d *LockFree) bucketsSnapshot() []*bucket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*bucket, len(d.buckets))
	copy(out, d.buckets)
	return out
}

// GiveSelection implements Database.
func (d *LockFree) GiveSelection(budget int) (selected []*clause.Clause, literals int) {
	buckets := d.bucketsSnapshot()
	for size := 1; size < len(buckets); size++ {
		b := buckets[size]
		for {
			b.mu.Lock()
			if b.q.len() == 0 {
				b.mu.Unlock()
				break
			}
			next := literals + size
			if next > budget {
				b.mu.Unlock()
				return selected, literals
			}
			c, _ := b.q.popFront()
			b.mu.Unlock()
			selected = append(selected, c)
			literals = next
			d.size.Dec()
		}
	}
	return selected, literals
}

// GetClauses implements Database.
func (d *LockFree) GetClauses() []*clause.Clause {
	buckets := d.bucketsSnapshot()
	var out []*clause.Clause
	for size := 0; size < len(buckets); size++ {
		b := buckets[size]
		b.mu.Lock()
		drained := b.q.drain()
		b.mu.Unlock()
		out = append(out, drained...)
		d.size.Sub(int64(len(drained)))
	}
	return out
}

// GiveOneClause implements Database.
func (d *LockFree) GiveOneClause() (*clause.Clause, bool) {
	buckets := d.bucketsSnapshot()
	for size := 1; size < len(buckets); size++ {
		b := buckets[size]
		b.mu.Lock()
		c, ok := b.q.popFront()
		b.mu.Unlock()
		if ok {
			d.size.Dec()
			return c, true
		}
	}
	return nil, false
}

// GetSizes implements Database.
func (d *LockFree) GetSizes() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]int, len(d.buckets))
	for size, b := range d.buckets {
		b.mu.Lock()
		out[size] = b.q.len()
		b.mu.Unlock()
	}
	return out
}

// GetSize implements Database.
func (d *LockFree) GetSize() int { return int(d.size.Load()) }

// DeleteClauses implements Database.
func (d *LockFree) DeleteClauses(fromSize int) {
	if fromSize < 1 {
		fromSize = 1
	}
	buckets := d.bucketsSnapshot()
	for size := fromSize; size < len(buckets); size++ {
		b := buckets[size]
		b.mu.Lock()
		drained := b.q.drain()
		b.mu.Unlock()
		for _, c := range drained {
			c.Release()
		}
		d.size.Sub(int64(len(drained)))
	}
}

// TotalSizes implements Database.
func (d *LockFree) TotalSizes() []int64 {
	d.totalMu.Lock()
	defer d.totalMu.Unlock()
	out := make([]int64, len(d.totalSizes))
	for i := range d.totalSizes {
		out[i] = d.totalSizes[i].Load()
	}
	return out
}
