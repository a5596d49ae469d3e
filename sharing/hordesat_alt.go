package sharing

import (
	"github.com/nvidia-painless/sharer/bloom"
	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/clausedb"
	"github.com/nvidia-painless/sharer/diag"
	"github.com/nvidia-painless/sharer/internal/nlog"
)

// HordesatAlt is §4.5's "Hordesat-Alt": a single shared database across
// all producers, deduplicated by a plain bloom filter over literal sets
// (not checksums), broadcasting one global selection per round sized
// literalPerRound * len(producers). Grounded on HordeSatSharingAlt.cpp.
type HordesatAlt struct {
	id        int
	producers []Entity
	consumers []Entity

	literalPerRound int
	dup             bool
	filter          *bloom.Filter

	db        *clausedb.Vector
	selection []*clause.Clause

	round             int
	roundBeforeIncrease int
	initPhase         bool
	stats             Stats
	ending            endCheck

	reporter *diag.Reporter
}

// SetReporter wires a diagnostics reporter in after construction.
func (h *HordesatAlt) SetReporter(r *diag.Reporter) {
	h.reporter = r
}

// NewHordesatAlt builds a Hordesat-Alt strategy. roundBeforeIncrease
// mirrors the C++ "250000000 / sleepTime" derivation; callers pass the
// already-computed value.
func NewHordesatAlt(id int, producers, consumers []Entity, literalPerRound int, dup bool, roundBeforeIncrease int, ending endCheck) *HordesatAlt {
	h := &HordesatAlt{
		id:                  id,
		producers:           producers,
		consumers:           consumers,
		literalPerRound:     literalPerRound,
		dup:                 dup,
		db:                  clausedb.NewVector(0),
		roundBeforeIncrease: roundBeforeIncrease,
		initPhase:           true,
		ending:              ending,
	}
	if dup {
		h.filter = bloom.New(1 << 22)
	}
	return h
}

var _ Strategy = (*HordesatAlt)(nil)

// DoSharing implements Strategy.
func (h *HordesatAlt) DoSharing() bool {
	if h.ending != nil && h.ending() {
		return true
	}
	for _, p := range h.producers {
		var filtered []*clause.Clause
		if h.dup {
			unfiltered := p.ExportClauses()
			for _, c := range unfiltered {
				if !h.filter.ContainsOrInsert(c.Lits) {
					filtered = append(filtered, c)
				} else {
					h.reporter.DuplicateSeen("hordesat_alt")
					c.Release()
				}
			}
			h.stats.ReceivedClauses += int64(len(unfiltered))
			h.stats.ReceivedDuplicas += int64(len(unfiltered) - len(filtered))
		} else {
			filtered = p.ExportClauses()
			h.stats.ReceivedClauses += int64(len(filtered))
		}

		p.Accept(h) // rate feedback only, no selection drawn here

		for _, c := range filtered {
			h.db.AddClause(c)
		}
	}

	budget := h.literalPerRound * len(h.producers)
	selected, _ := h.db.GiveSelection(budget)
	h.selection = selected
	h.stats.SharedClauses += int64(len(selected))

	for _, c := range h.consumers {
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

	h.round++
	if h.round >= h.roundBeforeIncrease {
		h.initPhase = false
	}

	nlog.Infof("[HordesatAlt %d] received %d shared %d", h.id, h.stats.ReceivedClauses, h.stats.SharedClauses)
	return h.ending != nil && h.ending()
}

// VisitSolver implements Visitor: production-rate feedback based on how
// full the previous round's selection was, measured against the
// per-producer budget (this round's selection is drawn only after every
// producer has been visited).
func (h *HordesatAlt) VisitSolver(s Solver) {
	used := literalsCount(h.selection)
	percent := fillPercent(used, h.literalPerRound)
	if percent < 75 && !h.initPhase {
		s.IncreaseClauseProduction()
	} else if percent > 98 {
		s.DecreaseClauseProduction()
	}
}

// VisitEntity implements Visitor: no feedback for non-solver entities.
func (h *HordesatAlt) VisitEntity(e Entity) {}

// Stats implements Strategy.
func (h *HordesatAlt) Stats() Stats { return h.stats }
