// Package sharer implements the round-driving threads (C9, C10): a
// Sharer runs one strategy's doSharing() once per round on a timed wait
// against the global termination coordinator; a MultiSharer round-robins
// several strategies on a single goroutine. Grounded on
// painless-src/sharing/Sharer.{h,cpp} and MultiSharers.{h,cpp}, and on
// the teacher's own goroutine-per-worker-with-WaitGroup-join pattern
// (xact/xs/tcb.go's wg sync.WaitGroup around per-target send goroutines).
package sharer

import (
	"time"

	"github.com/nvidia-painless/sharer/diag"
	"github.com/nvidia-painless/sharer/internal/nlog"
	"github.com/nvidia-painless/sharer/sharing"
	"github.com/nvidia-painless/sharer/term"
)

// SleepTimer is the per-strategy round period a Sharer consults at the
// top of every round (§4.8 step 1: "getSleepingTime(), strategy-supplied,
// default 500ms; global strategies use a multiplier").
type SleepTimer interface {
	SleepingTime() time.Duration
}

// fixedSleep is the common case: a strategy with a constant round period.
type fixedSleep time.Duration

func (d fixedSleep) SleepingTime() time.Duration { return time.Duration(d) }

// FixedSleep adapts a constant duration to SleepTimer.
func FixedSleep(d time.Duration) SleepTimer { return fixedSleep(d) }

// Sharer owns one strategy and one goroutine driving it every round,
// exactly as §4.8 describes: wait, doSharing, loop until doSharing
// self-reports termination or globalEnding is observed set.
type Sharer struct {
	id       int
	strategy sharing.Strategy
	coord    *term.Coordinator
	sleep    SleepTimer

	name     string
	reporter *diag.Reporter

	done chan struct{}
}

// SetReporter wires a diagnostics reporter in after construction; name
// labels this sharer's round-duration histogram (C9 "reports the
// duration of each round").
func (s *Sharer) SetReporter(r *diag.Reporter, name string) {
	s.reporter = r
	s.name = name
}

// New builds a sharer for the given strategy. sleep supplies the
// per-round wait (§4.8 step 1); a nil sleep defaults to 500ms, the
// spec's shr_sleep default.
func New(id int, strategy sharing.Strategy, coord *term.Coordinator, sleep SleepTimer) *Sharer {
	if sleep == nil {
		sleep = FixedSleep(500 * time.Millisecond)
	}
	return &Sharer{id: id, strategy: strategy, coord: coord, sleep: sleep, done: make(chan struct{})}
}

// Start launches the sharer's round-driving goroutine.
func (s *Sharer) Start() {
	go s.loop()
}

// Join blocks until the sharer goroutine has exited.
func (s *Sharer) Join() { <-s.done }

func (s *Sharer) loop() {
	defer close(s.done)
	for {
		// §4.8 step 1: wait on the global condvar with a timeout, unless
		// globalEnding is already set (TimedWait already short-circuits
		// that case; spurious wake-ups are tolerated by re-checking
		// Ending() instead of trusting the wake reason).
		s.coord.TimedWait(s.sleep.SleepingTime())

		// §4.8 step 2: invoke the strategy regardless of why we woke —
		// a strategy that has already been told to end still gets one
		// more doSharing() to participate in a draining collective
		// (§5 "Global strategies must handle the case where they must
		// still enter one more collective after setting their local
		// end").
		start := time.Now()
		stop := s.strategy.DoSharing()
		s.reporter.RoundDuration(s.name, time.Since(start).Seconds())
		if stop {
			break
		}
		if s.coord.Ending() {
			break
		}
	}
	// §4.8 step 3: on exit, if globalEnding is true, broadcast so peers
	// and the main thread also wake. If this sharer itself decided to
	// stop without globalEnding yet being set (a strategy can return
	// true on its own, e.g. InsufficientPeers self-disable), nothing is
	// broadcast here — only the coordinator's End() call does that.
	if s.coord.Ending() {
		s.coord.End(s.coord.Result())
	}
	nlog.Infof("[sharer %d] exiting", s.id)
}

// MultiSharer holds several strategies and drives them round-robin on a
// single goroutine (C10, "one_sharer" config option), so all local (and
// optionally the global) strategies share one OS thread instead of one
// each.
type MultiSharer struct {
	id         int
	strategies []sharing.Strategy
	coord      *term.Coordinator
	sleep      SleepTimer

	name     string
	reporter *diag.Reporter

	idx  int
	done chan struct{}
}

// SetReporter wires a diagnostics reporter in after construction; name
// labels this multi-sharer's round-duration histogram.
func (m *MultiSharer) SetReporter(r *diag.Reporter, name string) {
	m.reporter = r
	m.name = name
}

// NewMulti builds a multi-sharer over the given strategies, in the order
// they should be round-robined.
func NewMulti(id int, strategies []sharing.Strategy, coord *term.Coordinator, sleep SleepTimer) *MultiSharer {
	if sleep == nil {
		sleep = FixedSleep(500 * time.Millisecond)
	}
	cp := make([]sharing.Strategy, len(strategies))
	copy(cp, strategies)
	return &MultiSharer{id: id, strategies: cp, coord: coord, sleep: sleep, done: make(chan struct{})}
}

// Start launches the multi-sharer's round-driving goroutine.
func (m *MultiSharer) Start() { go m.loop() }

// Join blocks until the multi-sharer goroutine has exited.
func (m *MultiSharer) Join() { <-m.done }

func (m *MultiSharer) loop() {
	defer close(m.done)
	for {
		m.coord.TimedWait(m.sleep.SleepingTime())

		if len(m.strategies) == 0 {
			break
		}
		// round-robin: advance to the next strategy and invoke only it
		// this round (§4.8 "Multi-sharer loop").
		if m.idx >= len(m.strategies) {
			m.idx = 0
		}
		s := m.strategies[m.idx]
		start := time.Now()
		done := s.DoSharing()
		m.reporter.RoundDuration(m.name, time.Since(start).Seconds())
		if done {
			// remove the finished strategy from the rotation.
			m.strategies = append(m.strategies[:m.idx], m.strategies[m.idx+1:]...)
			if len(m.strategies) == 0 {
				break
			}
			// don't advance idx: the removal already shifted the next
			// strategy into this slot.
		} else {
			m.idx++
		}

		if m.coord.Ending() {
			break
		}
	}

	// final sweep: let every remaining strategy finalize before exit
	// (§4.8 "a final sweep invokes doSharing() on every remaining
	// strategy").
	for _, s := range m.strategies {
		s.DoSharing()
	}

	if m.coord.Ending() {
		m.coord.End(m.coord.Result())
	}
	nlog.Infof("[multi-sharer %d] exiting", m.id)
}
