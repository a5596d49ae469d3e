package sharing

import (
	"github.com/nvidia-painless/sharer/bloom"
	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/clausedb"
	"github.com/nvidia-painless/sharer/diag"
	"github.com/nvidia-painless/sharer/internal/nlog"
)

// Hordesat is the default local strategy (§4.5 "Hordesat (default)"):
// each producer gets its own private database; duplicate detection runs
// on a counting bloom over clause checksums with the tier-2/core
// promotion thresholds; solvers additionally get production-rate
// feedback. Grounded on HordeSatSharing.cpp/.h.
type Hordesat struct {
	id        int
	producers []Entity
	consumers []Entity

	literalPerRound int
	dup             bool
	filter          *bloom.Counting

	databases map[int]*clausedb.Vector
	selection []*clause.Clause
	selectFor *clausedb.Vector // set for the duration of Accept

	initPhase bool
	stats     Stats
	ending    endCheck

	reporter *diag.Reporter
}

// SetReporter wires a diagnostics reporter in after construction, so
// existing call sites that build a Hordesat without diagnostics keep
// working unchanged (same opt-in shape as clausedb.Vector.SetReporter).
func (h *Hordesat) SetReporter(r *diag.Reporter) {
	h.reporter = r
}

// NewHordesat builds a Hordesat strategy. literalPerRound is the per-
// producer literal budget (shr-lit); dup enables the counting-bloom
// duplicate-promotion pass.
func NewHordesat(id int, producers, consumers []Entity, literalPerRound int, dup bool, ending endCheck) *Hordesat {
	h := &Hordesat{
		id:              id,
		producers:       producers,
		consumers:       consumers,
		literalPerRound: literalPerRound,
		dup:             dup,
		databases:       make(map[int]*clausedb.Vector),
		initPhase:       true,
		ending:          ending,
	}
	if dup {
		h.filter = bloom.NewCounting(1 << 20)
	}
	return h
}

var _ Strategy = (*Hordesat)(nil)

func (h *Hordesat) dbFor(id int) *clausedb.Vector {
	db, ok := h.databases[id]
	if !ok {
		db = clausedb.NewVector(0)
		h.databases[id] = db
	}
	return db
}

// DoSharing implements Strategy.
func (h *Hordesat) DoSharing() bool {
	if h.ending != nil && h.ending() {
		return true
	}
	for _, p := range h.producers {
		db := h.dbFor(p.ID())

		var filtered []*clause.Clause
		if h.dup {
			unfiltered := p.ExportClauses()
			for _, c := range unfiltered {
				count := h.filter.TestAndInsert(c.Checksum)
				switch {
				case count == 1:
					filtered = append(filtered, c)
				case count == 6 && c.LBD.Load() > 6:
					c.SetLBD(6)
					h.stats.PromotionTiers2++
					h.stats.ReceivedDuplicas++
					h.reporter.Promotion()
					filtered = append(filtered, c)
				case count == 6:
					h.stats.AlreadyTiers2++
					h.reporter.DuplicateSeen("hordesat")
					c.Release()
				case count == 11 && c.LBD.Load() > 2:
					c.SetLBD(2)
					h.stats.PromotionCore++
					h.stats.ReceivedDuplicas++
					h.reporter.Promotion()
					filtered = append(filtered, c)
				case count == 11:
					h.stats.AlreadyCore++
					h.reporter.DuplicateSeen("hordesat")
					c.Release()
				default:
					// an ordinary, not-yet-promotable duplicate: not
					// forwarded, and the transient export reference is
					// dropped here rather than leaked (P8).
					h.reporter.DuplicateSeen("hordesat")
					c.Release()
				}
			}
			h.stats.ReceivedClauses += int64(len(unfiltered))
			h.stats.ReceivedDuplicas += int64(len(unfiltered) - len(filtered))
		} else {
			filtered = p.ExportClauses()
			h.stats.ReceivedClauses += int64(len(filtered))
		}

		for _, c := range filtered {
			db.AddClause(c)
		}

		// draw the selection and, for solvers, apply production-rate
		// feedback (accept dispatches into visitSolver/visitEntity).
		h.selectFor = db
		p.Accept(h)
		h.selectFor = nil

		h.stats.SharedClauses += int64(len(h.selection))

		for _, c := range h.consumers {
			if c.ID() != p.ID() {
				c.ImportClauses(h.selection)
			}
		}
		for _, c := range h.selection {
			c.Release()
		}
		h.selection = nil
	}

	nlog.Infof("[Hordesat %d] received %d shared %d", h.id, h.stats.ReceivedClauses, h.stats.SharedClauses)
	return h.ending != nil && h.ending()
}

// VisitSolver implements Visitor: draws a selection with production-rate
// feedback (§4.5 step 4, Solver case).
func (h *Hordesat) VisitSolver(s Solver) {
	db := h.selectFor
	selected, literals := db.GiveSelection(h.literalPerRound)
	h.selection = selected

	percent := fillPercent(literals, h.literalPerRound)
	if percent < 75 {
		s.IncreaseClauseProduction()
	} else if percent > 98 {
		s.DecreaseClauseProduction()
	}
	if len(selected) > 0 {
		h.initPhase = false
	}
}

// VisitEntity implements Visitor: the non-solver case, no rate feedback.
func (h *Hordesat) VisitEntity(e Entity) {
	selected, _ := h.selectFor.GiveSelection(h.literalPerRound)
	h.selection = selected
}

// Stats implements Strategy.
func (h *Hordesat) Stats() Stats { return h.stats }
