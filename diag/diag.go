// Package diag implements the diagnostics surface: a prometheus.Registry
// -backed Reporter that package clausedb, sharing, gsharing, and sharer
// register counters and gauges against, plus a plain-struct Snapshot for
// tests and a final human-readable dump. Grounded on the teacher's own
// use of github.com/prometheus/client_golang for runtime counters, and on
// the original's BenchmarkSequentials/Test.cpp per-size clause counts and
// promotion tallies printed at shutdown.
package diag

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Reporter owns one prometheus.Registry and the metric families every
// component in this module reports against. No HTTP scrape endpoint is
// exposed here (out of scope, same as CLI parsing); an embedder wanting
// /metrics wires Registry() into its own promhttp.Handler.
type Reporter struct {
	registry *prometheus.Registry

	clausesAccepted *prometheus.CounterVec   // C4, labeled by database name and clause size
	clausesRejected *prometheus.CounterVec   // C4, oversized rejections
	duplicatesSeen  *prometheus.CounterVec   // C6/C8, labeled by strategy name
	promotions      prometheus.Counter       // C6 LBD-lowering promotions
	roundDurations  *prometheus.HistogramVec // C9, labeled by sharer name
}

// NewReporter builds a Reporter with a fresh, private registry so tests
// can construct as many independent Reporters as they need without
// colliding on prometheus's global DefaultRegisterer.
func NewReporter() *Reporter {
	reg := prometheus.NewRegistry()
	r := &Reporter{
		registry: reg,
		clausesAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharer_clauses_accepted_total",
			Help: "Clauses accepted into a clause database, by database and size.",
		}, []string{"database", "size"}),
		clausesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharer_clauses_rejected_total",
			Help: "Clauses rejected by a clause database for exceeding its max size.",
		}, []string{"database"}),
		duplicatesSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharer_duplicates_total",
			Help: "Duplicate clauses suppressed during sharing, by strategy.",
		}, []string{"strategy"}),
		promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sharer_lbd_promotions_total",
			Help: "Clauses whose LBD was lowered on a repeated sighting.",
		}),
		roundDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sharer_round_duration_seconds",
			Help:    "Wall-clock duration of one sharer round, by sharer name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"sharer"}),
	}
	reg.MustRegister(r.clausesAccepted, r.clausesRejected, r.duplicatesSeen, r.promotions, r.roundDurations)
	return r
}

// Registry exposes the underlying prometheus.Registry for an embedder to
// mount behind its own /metrics handler.
func (r *Reporter) Registry() *prometheus.Registry { return r.registry }

// ClauseAccepted records one clause of the given size accepted into the
// named database (C4's "Total-size statistics"). A nil Reporter is a
// no-op, so call sites never need a guard for the no-diagnostics case.
func (r *Reporter) ClauseAccepted(database string, size int) {
	if r == nil {
		return
	}
	r.clausesAccepted.WithLabelValues(database, sizeLabel(size)).Inc()
}

// ClauseRejected records one oversized-clause rejection for the named
// database.
func (r *Reporter) ClauseRejected(database string) {
	if r == nil {
		return
	}
	r.clausesRejected.WithLabelValues(database).Inc()
}

// DuplicateSeen records one duplicate-clause suppression for the named
// strategy (C6/C8's bloom/cuckoo filter hits).
func (r *Reporter) DuplicateSeen(strategy string) {
	if r == nil {
		return
	}
	r.duplicatesSeen.WithLabelValues(strategy).Inc()
}

// Promotion records one LBD-lowering promotion (C6 duplicate-promotion).
func (r *Reporter) Promotion() {
	if r == nil {
		return
	}
	r.promotions.Inc()
}

// RoundDuration records one sharer round's wall-clock duration in
// seconds for the named sharer.
func (r *Reporter) RoundDuration(sharer string, seconds float64) {
	if r == nil {
		return
	}
	r.roundDurations.WithLabelValues(sharer).Observe(seconds)
}

// Snapshot is a plain-struct dump of the counters that matter for a
// human-readable summary or a test assertion, without going through
// prometheus's text exposition format.
type Snapshot struct {
	ClausesAccepted map[string]float64 // keyed "database/size"
	ClausesRejected map[string]float64 // keyed "database"
	Duplicates      map[string]float64 // keyed "strategy"
	Promotions      float64
}

// Snapshot reads every counter through the registry's own Gather path
// (the same mechanism promhttp's exposition format uses), so the numbers
// reported here are exactly what a real scrape would see.
func (r *Reporter) Snapshot() Snapshot {
	s := Snapshot{
		ClausesAccepted: map[string]float64{},
		ClausesRejected: map[string]float64{},
		Duplicates:      map[string]float64{},
	}
	families, err := r.registry.Gather()
	if err != nil {
		return s
	}
	for _, fam := range families {
		switch fam.GetName() {
		case "sharer_clauses_accepted_total":
			for _, m := range fam.GetMetric() {
				key := labelValue(m, "database") + "/" + labelValue(m, "size")
				s.ClausesAccepted[key] = m.GetCounter().GetValue()
			}
		case "sharer_clauses_rejected_total":
			for _, m := range fam.GetMetric() {
				s.ClausesRejected[labelValue(m, "database")] = m.GetCounter().GetValue()
			}
		case "sharer_duplicates_total":
			for _, m := range fam.GetMetric() {
				s.Duplicates[labelValue(m, "strategy")] = m.GetCounter().GetValue()
			}
		case "sharer_lbd_promotions_total":
			for _, m := range fam.GetMetric() {
				s.Promotions = m.GetCounter().GetValue()
			}
		}
	}
	return s
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func sizeLabel(size int) string {
	const buckets = "0123456789"
	if size < 0 {
		size = 0
	}
	if size >= len(buckets) {
		return "10+"
	}
	return string(buckets[size])
}
