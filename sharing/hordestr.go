package sharing

import (
	"github.com/nvidia-painless/sharer/clause"
	"github.com/nvidia-painless/sharer/clausedb"
	"github.com/nvidia-painless/sharer/internal/nlog"
)

// HordeStr is §4.5's "HordeStr (strengthening)": a two-stage pipeline.
// Each producer's export first lands in a private database and is
// selected from like ordinary Hordesat, but the selection feeds the
// reducer entity rather than the final consumers; the reducer's own
// export is then selected and broadcast to the real consumers. Grounded
// on HordeStrSharing.cpp.
//
// The REDESIGN FLAGS note documents a bug in the original two-sharer
// wiring path where the second sharer's producers/consumers were
// accidentally aliased to the first sharer's; this implementation takes
// producers/consumers as explicit constructor arguments per strategy
// instance, so that mistake has no equivalent here.
type HordeStr struct {
	id        int
	producers []Entity
	consumers []Entity
	reducer   Entity

	literalPerRound int
	databases       map[int]*clausedb.Vector
	selection       []*clause.Clause
	selectFor       *clausedb.Vector

	round  int
	stats  Stats
	ending endCheck
}

// NewHordeStr builds a HordeStr strategy around the given reducer entity.
func NewHordeStr(id int, producers, consumers []Entity, reducer Entity, literalPerRound int, ending endCheck) *HordeStr {
	return &HordeStr{
		id:              id,
		producers:       producers,
		consumers:       consumers,
		reducer:         reducer,
		literalPerRound: literalPerRound,
		databases:       make(map[int]*clausedb.Vector),
		ending:          ending,
	}
}

var _ Strategy = (*HordeStr)(nil)

func (h *HordeStr) dbFor(id int) *clausedb.Vector {
	db, ok := h.databases[id]
	if !ok {
		db = clausedb.NewVector(0)
		h.databases[id] = db
	}
	return db
}

// DoSharing implements Strategy.
func (h *HordeStr) DoSharing() bool {
	if h.ending != nil && h.ending() {
		return true
	}

	// stage 1: producers -> reducer
	for _, p := range h.producers {
		db := h.dbFor(p.ID())

		exported := p.ExportClauses()
		h.stats.ReceivedClauses += int64(len(exported))
		for _, c := range exported {
			db.AddClause(c)
		}

		h.selectFor = db
		p.Accept(h)
		h.selectFor = nil

		h.stats.SharedClauses += int64(len(h.selection))
		h.reducer.ImportClauses(h.selection)
		for _, c := range h.selection {
			c.Release()
		}
		h.selection = nil
	}

	// stage 2: reducer -> consumers
	rdb := h.dbFor(h.reducer.ID())
	exported := h.reducer.ExportClauses()
	h.stats.ReceivedClauses += int64(len(exported))
	for _, c := range exported {
		rdb.AddClause(c)
	}

	h.selectFor = rdb
	h.reducer.Accept(h)
	h.selectFor = nil

	h.stats.SharedClauses += int64(len(h.selection))
	for _, c := range h.consumers {
		c.ImportClauses(h.selection)
	}
	for _, c := range h.selection {
		c.Release()
	}
	h.selection = nil

	h.round++
	nlog.Infof("[HordeStr %d] received %d shared %d", h.id, h.stats.ReceivedClauses, h.stats.SharedClauses)
	return h.ending != nil && h.ending()
}

// VisitSolver implements Visitor.
func (h *HordeStr) VisitSolver(s Solver) {
	selected, literals := h.selectFor.GiveSelection(h.literalPerRound)
	h.selection = selected

	percent := fillPercent(literals, h.literalPerRound)
	if percent < 75 {
		s.IncreaseClauseProduction()
	} else if percent > 98 {
		s.DecreaseClauseProduction()
	}
}

// VisitEntity implements Visitor.
func (h *HordeStr) VisitEntity(e Entity) {
	selected, _ := h.selectFor.GiveSelection(h.literalPerRound)
	h.selection = selected
}

// Stats implements Strategy.
func (h *HordeStr) Stats() Stats { return h.stats }
