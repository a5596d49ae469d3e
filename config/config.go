// Package config defines the runtime knobs recognized by the
// clause-exchange core. It is the concrete realization of the external
// configuration surface: no flag parsing lives here (command-line
// parsing is a collaborator outside this core's scope, same as the
// teacher's cmn.GCO is populated by an external bootstrap), only the
// struct, its defaults, and validation.
package config

import "time"

// GShrStrat selects a global (inter-process) sharing topology.
type GShrStrat int

const (
	GShrAllGather GShrStrat = 1
	GShrTree      GShrStrat = 2
	GShrRing      GShrStrat = 3
)

// ShrStrat selects a local sharing strategy.
type ShrStrat int

const (
	ShrRandom     ShrStrat = 0
	ShrHordesat   ShrStrat = 1
	ShrHordesatAlt ShrStrat = 2
	ShrHordeStr   ShrStrat = 3
	ShrSimple     ShrStrat = 4
)

// Config mirrors the options table in the external interfaces section:
// cpus, timeout, shr_strat, shr_sleep, shr_lit, dup, lbd_limit, dist,
// gshr_lit, gshr_strat, max_cls_size, one_sharer.
type Config struct {
	CPUs       int
	Timeout    time.Duration
	ShrStrat   ShrStrat
	ShrSleep   time.Duration
	ShrLit     int
	Dup        bool
	LBDLimit   int32
	Dist       bool
	GShrLit    int
	GShrStrat  GShrStrat
	MaxClsSize int
	OneSharer  bool
}

// Default returns the option set with the spec's documented defaults.
func Default() *Config {
	c := &Config{
		CPUs:       24,
		Timeout:    0,
		ShrStrat:   ShrHordesat,
		ShrSleep:   500 * time.Millisecond,
		ShrLit:     1500,
		Dup:        false,
		LBDLimit:   2,
		Dist:       false,
		GShrStrat:  GShrAllGather,
		MaxClsSize: 50,
		OneSharer:  false,
	}
	c.Validate()
	return c
}

// Validate derives GShrLit from CPUs when it was left at zero and clamps
// non-positive CPUs, ShrLit and ShrSleep to their documented defaults, the
// way cmn.Config.Validate does for aistore's own runtime knobs. A
// negative MaxClsSize becomes 0 (no size limit), not the default of 50.
func (c *Config) Validate() {
	if c.CPUs <= 0 {
		c.CPUs = 24
	}
	if c.GShrLit <= 0 {
		c.GShrLit = 1500 * c.CPUs
	}
	if c.ShrLit <= 0 {
		c.ShrLit = 1500
	}
	if c.ShrSleep <= 0 {
		c.ShrSleep = 500 * time.Millisecond
	}
	if c.MaxClsSize < 0 {
		c.MaxClsSize = 0
	}
}
