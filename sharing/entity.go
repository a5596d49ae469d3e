// Package sharing implements the local sharing tier (C5, C6): the
// producer/consumer abstraction every clause source/sink implements, and
// the four local strategies that pump clauses from producers into
// consumers once per round. Grounded on
// painless-src/sharing/SharingEntity.h and
// painless-src/sharing/LocalStrategies/*.
package sharing

import (
	"go.uber.org/atomic"

	"github.com/nvidia-painless/sharer/clause"
)

// Visitor is the double-dispatch counterpart of Entity.Accept (§4.4): a
// local strategy implements this to tailor its per-round policy to the
// concrete kind of entity it is visiting (a solver wants production-rate
// feedback, a bare global database does not).
type Visitor interface {
	VisitSolver(s Solver)
	VisitEntity(e Entity)
}

// Entity is the producer/consumer contract every clause source or sink
// implements (C5): solvers, the global database, and the reducer all
// satisfy it.
type Entity interface {
	// ExportClauses drains clauses this entity wishes to publish.
	// Non-blocking, no ordering guarantee.
	ExportClauses() []*clause.Clause

	// ExportClausesBudget is the bounded variant: stops once the
	// running literal sum would exceed budget.
	ExportClausesBudget(budget int) []*clause.Clause

	// ImportClause offers a clause; an entity that keeps it takes its own
	// additional reference (one that stores a new clause in its place, as
	// the Reducer does for a shortened clause, takes none), and one that
	// drops it leaves the caller's reference untouched. Either way the
	// caller still releases its own.
	ImportClause(c *clause.Clause) bool

	// ImportClauses is the batch form.
	ImportClauses(cs []*clause.Clause)

	// Accept performs the double dispatch described on Visitor.
	Accept(v Visitor)

	// Increase/Release manage this entity's own reference count,
	// independent of any clause refcounts it holds.
	Increase()
	Release()

	// ID is this entity's unique integer id.
	ID() int
}

// Solver is the refinement of Entity a local strategy uses to apply
// production-rate feedback (§4.5): IncreaseClauseProduction /
// DecreaseClauseProduction loosen or tighten how aggressively the
// solver exports newly learned clauses.
type Solver interface {
	Entity
	IncreaseClauseProduction()
	DecreaseClauseProduction()
}

// BaseEntity is embeddable scaffolding for Entity implementations that
// only need refcounting and id/Accept boilerplate (mirrors the data
// SharingEntity.h carries directly on the base class).
type BaseEntity struct {
	id   int
	refs atomic.Int32
}

// NewBaseEntity creates scaffolding with refs = 1, matching a freshly
// constructed, not-yet-registered entity.
func NewBaseEntity(id int) BaseEntity {
	b := BaseEntity{id: id}
	b.refs.Store(1)
	return b
}

// ID implements Entity.
func (b *BaseEntity) ID() int { return b.id }

// Increase implements Entity.
func (b *BaseEntity) Increase() { b.refs.Inc() }

// Release implements Entity.
func (b *BaseEntity) Release() { b.refs.Dec() }

// Refs reports the current reference count (diagnostics only).
func (b *BaseEntity) Refs() int32 { return b.refs.Load() }
