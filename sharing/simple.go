package sharing

import (
	"github.com/nvidia-painless/sharer/bloom"
	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/clausedb"
	"github.com/nvidia-painless/sharer/diag"
	"github.com/nvidia-painless/sharer/internal/nlog"
)

// Simple is §4.5's "Simple" strategy: identical wiring to Hordesat-Alt
// but without any production-rate feedback. Grounded on SimpleSharing.cpp.
type Simple struct {
	id        int
	producers []Entity
	consumers []Entity

	literalPerRound int
	dup             bool
	filter          *bloom.Filter

	db    *clausedb.Vector
	stats Stats
	ending endCheck

	reporter *diag.Reporter
}

// SetReporter wires a diagnostics reporter in after construction.
func (s *Simple) SetReporter(r *diag.Reporter) {
	s.reporter = r
}

// NewSimple builds a Simple strategy.
func NewSimple(id int, producers, consumers []Entity, literalPerRound int, dup bool, ending endCheck) *Simple {
	s := &Simple{
		id:              id,
		producers:       producers,
		consumers:       consumers,
		literalPerRound: literalPerRound,
		dup:             dup,
		db:              clausedb.NewVector(0),
		ending:          ending,
	}
	if dup {
		s.filter = bloom.New(1 << 22)
	}
	return s
}

var _ Strategy = (*Simple)(nil)

// DoSharing implements Strategy.
func (s *Simple) DoSharing() bool {
	if s.ending != nil && s.ending() {
		return true
	}
	for _, p := range s.producers {
		var filtered []*clause.Clause
		if s.dup {
			unfiltered := p.ExportClauses()
			for _, c := range unfiltered {
				if !s.filter.ContainsOrInsert(c.Lits) {
					filtered = append(filtered, c)
				} else {
					s.reporter.DuplicateSeen("simple")
					c.Release()
				}
			}
			s.stats.ReceivedClauses += int64(len(unfiltered))
			s.stats.ReceivedDuplicas += int64(len(unfiltered) - len(filtered))
		} else {
			filtered = p.ExportClauses()
			s.stats.ReceivedClauses += int64(len(filtered))
		}

		for _, c := range filtered {
			s.db.AddClause(c)
		}
	}

	budget := s.literalPerRound * len(s.producers)
	selected, _ := s.db.GiveSelection(budget)
	s.stats.SharedClauses += int64(len(selected))

	for _, c := range s.consumers {
		var toSend []*clause.Clause
		for _, cls := range selected {
			if int(cls.From) != c.ID() {
				toSend = append(toSend, cls)
			}
		}
		c.ImportClauses(toSend)
	}
	for _, c := range selected {
		c.Release()
	}

	nlog.Infof("[Simple %d] received %d shared %d", s.id, s.stats.ReceivedClauses, s.stats.SharedClauses)
	return s.ending != nil && s.ending()
}

// VisitSolver implements Visitor: no-op, Simple applies no rate feedback.
func (s *Simple) VisitSolver(solver Solver) {}

// VisitEntity implements Visitor.
func (s *Simple) VisitEntity(e Entity) {}

// Stats implements Strategy.
func (s *Simple) Stats() Stats { return s.stats }
