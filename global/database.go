// Package global implements the global database (C7): a sharing entity
// that bridges the local (in-process) and global (inter-process) tiers.
// It is itself a local sharing.Entity — local strategies import into and
// export from it like any other consumer/producer — while exposing a
// second, wider interface for the global sharing strategies in package
// gsharing to drain toward peers and inject what peers sent back.
// Grounded on painless-src/sharing/GlobalDatabase.{h,cpp}.
package global

import (
	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/clausedb"
	"github.com/nvidia-painless/sharer/sharing"
)

// Database is the global database entity. clausesToSend holds clauses
// awaiting serialization out to peers; clausesReceived holds clauses a
// global strategy has deserialized in from peers, awaiting the next
// local round to re-inject into solvers.
type Database struct {
	sharing.BaseEntity
	toSend   clausedb.Database
	received clausedb.Database
}

var _ sharing.Entity = (*Database)(nil)

// New builds a global database with the given backing clause-database
// implementations (typically clausedb.LockFree, since both local
// sharer threads and the global strategy's transport goroutine touch
// this entity concurrently).
func New(id int, toSend, received clausedb.Database) *Database {
	return &Database{BaseEntity: sharing.NewBaseEntity(id), toSend: toSend, received: received}
}

// ImportClause implements sharing.Entity: accepts into clausesToSend.
// The bloom filter for duplicate suppression, if any, is applied by the
// global strategy at serialization time, not here.
//
// Per §4.4 ("entity may accept (takes reference)"), accepting bumps the
// refcount rather than transferring the caller's own reference: a local
// strategy distributing one selection to several consumers (this
// database among them) keeps its own transient reference live across
// the whole distribute loop and releases it exactly once at the end
// (mirrored by every sharing.Strategy implementation in package
// sharing). clausedb.Database.AddClause itself keeps "the existing
// reference" it is handed — it is handed the reference this call just
// created, not the caller's.
func (d *Database) ImportClause(c *clause.Clause) bool {
	c.Increase(1)
	return d.toSend.AddClause(c)
}

// ImportClauses implements sharing.Entity.
func (d *Database) ImportClauses(cs []*clause.Clause) {
	for _, c := range cs {
		d.ImportClause(c)
	}
}

// ExportClauses implements sharing.Entity: drains everything currently
// in clausesReceived.
func (d *Database) ExportClauses() []*clause.Clause {
	return d.received.GetClauses()
}

// ExportClausesBudget implements sharing.Entity: a bounded selection
// from clausesReceived, so a single local round cannot drain everything
// and lose the remainder (the bounded form exists precisely to avoid
// that when a round's local budget is smaller than what peers sent).
func (d *Database) ExportClausesBudget(budget int) []*clause.Clause {
	selected, _ := d.received.GiveSelection(budget)
	return selected
}

// Accept implements sharing.Entity: dispatches as the non-solver case.
func (d *Database) Accept(v sharing.Visitor) { v.VisitEntity(d) }

// AddReceivedClause adds a single deserialized clause to clausesReceived,
// for use by a global strategy's transport goroutine.
func (d *Database) AddReceivedClause(c *clause.Clause) bool {
	return d.received.AddClause(c)
}

// AddReceivedClauses is the batch form.
func (d *Database) AddReceivedClauses(cs []*clause.Clause) {
	for _, c := range cs {
		d.AddReceivedClause(c)
	}
}

// GetClausesToSend drains all of clausesToSend.
func (d *Database) GetClausesToSend() []*clause.Clause {
	return d.toSend.GetClauses()
}

// GetClausesToSendBudget drains a literal-budget-bounded selection from
// clausesToSend, leaving the remainder for a later round (scenario 6:
// Mallob tree overflow reinsertion).
func (d *Database) GetClausesToSendBudget(literals int) []*clause.Clause {
	selected, _ := d.toSend.GiveSelection(literals)
	return selected
}

// GetClauseToSend pops the single best (smallest, oldest) clause from
// clausesToSend, used by strategies that send one clause at a time
// (e.g. ring).
func (d *Database) GetClauseToSend() (*clause.Clause, bool) {
	return d.toSend.GiveOneClause()
}

// Clear releases every clause currently held in both databases.
func (d *Database) Clear() {
	d.toSend.DeleteClauses(1)
	d.received.DeleteClauses(1)
}

// ToSendSize and ReceivedSize report current clause counts, for
// diagnostics and for a global strategy deciding whether it has
// anything worth sending this round.
func (d *Database) ToSendSize() int   { return d.toSend.GetSize() }
func (d *Database) ReceivedSize() int { return d.received.GetSize() }
