package sharing

import "github.com/nvidia-painless/sharer/clause"

// Reducer wraps a caller-supplied strengthening callback as an ordinary
// Entity so it can sit between producers and consumers in HordeStr
// (§4.5 "HordeStr (strengthening)"): producer exports import into the
// reducer, the reducer's own exports feed the wider consumer set. The
// callback is expected to shrink a clause's literal set (e.g. by an
// unsat-core-style analysis against the reducer's own search state); the
// original PaInleSS models this with an entire auxiliary solver, but the
// substrate only needs the shrink operation itself, so it is injected as
// a closure rather than requiring a full Solver implementation.
type Reducer struct {
	BaseEntity
	strengthen func(lits []int32) []int32
	capacity   int // <= 0 means unbounded

	pending []*clause.Clause
	dropped int64
}

var _ Entity = (*Reducer)(nil)

// NewReducer builds a reducer entity. strengthen may be nil, in which
// case the reducer behaves as a pass-through relay. capacity bounds the
// pending queue between ImportClause and the next ExportClauses drain
// (<= 0 means unbounded); a clause arriving at capacity is dropped and
// counted rather than blocking the caller, since ImportClause has no way
// to signal backpressure through its bool return without also rejecting
// clauses that would otherwise fit after the next drain.
func NewReducer(id int, strengthen func(lits []int32) []int32, capacity int) *Reducer {
	return &Reducer{BaseEntity: NewBaseEntity(id), strengthen: strengthen, capacity: capacity}
}

// Dropped reports how many clauses this reducer has discarded for
// exceeding capacity since construction.
func (r *Reducer) Dropped() int64 { return r.dropped }

// ImportClause implements Entity: strengthens (if configured) and queues
// the clause for the next ExportClauses call. Per the sharing-entity
// refcount contract (§4.4), accepting a clause means taking an
// additional reference on it — the caller (a local strategy) still owns
// and releases its own transient reference once it has finished
// distributing to every consumer.
func (r *Reducer) ImportClause(c *clause.Clause) bool {
	if r.capacity > 0 && len(r.pending) >= r.capacity {
		r.dropped++
		return false
	}
	if r.strengthen == nil {
		c.Increase(1)
		r.pending = append(r.pending, c)
		return true
	}
	lits := r.strengthen(c.Lits)
	if len(lits) == len(c.Lits) {
		c.Increase(1)
		r.pending = append(r.pending, c)
		return true
	}
	shrunk := clause.NewFromLits(lits, c.LBD.Load(), c.From)
	r.pending = append(r.pending, shrunk)
	return true
}

// ImportClauses implements Entity.
func (r *Reducer) ImportClauses(cs []*clause.Clause) {
	for _, c := range cs {
		r.ImportClause(c)
	}
}

// ExportClauses implements Entity: drains everything strengthened since
// the last call.
func (r *Reducer) ExportClauses() []*clause.Clause {
	out := r.pending
	r.pending = nil
	return out
}

// ExportClausesBudget implements Entity.
func (r *Reducer) ExportClausesBudget(budget int) []*clause.Clause {
	literals := 0
	i := 0
	for ; i < len(r.pending); i++ {
		next := literals + int(r.pending[i].Size)
		if next > budget {
			break
		}
		literals = next
	}
	out := r.pending[:i]
	r.pending = r.pending[i:]
	return out
}

// Accept implements Entity: the reducer is visited like any other entity,
// no solver-style rate feedback.
func (r *Reducer) Accept(v Visitor) { v.VisitEntity(r) }
