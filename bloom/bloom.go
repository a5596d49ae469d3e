// Package bloom implements the probabilistic clause-set used for
// duplicate suppression (§3/§4.2): a fixed-width bit array with k
// independent hash probes derived from a lookup3-style mix of the
// literal vector, plus a small counting variant used for duplicate
// promotion (HordeSat's tier-2/core LBD promotion, §4.5 scenario 2).
//
// Grounded on painless-src's utils/BloomFilter usage sites (test_and_insert
// returning a small occupancy count) and on the teacher's own probabilistic
// set dependency, github.com/seiflotfy/cuckoofilter — that package is used
// by package gsharing for the long-lived, deletable "already sent this
// process-lifetime" filter (see gsharing.sentFilter); this package is the
// plain, fixed-width, non-deletable filter the spec describes for
// per-round and per-strategy use.
package bloom

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
)

const (
	// k is the number of independent hash probes per insert/lookup.
	k = 4

	// counterBits sizes the saturating counters in the counting variant;
	// 4 bits (max count 15) comfortably covers the tier-2 (6) and core
	// (11) promotion thresholds in §4.5.
	counterBits = 4
	counterMax  = (1 << counterBits) - 1
)

// Filter is a fixed-width bloom filter over literal vectors.
type Filter struct {
	bits  []uint64
	nbits uint64
}

// New creates a filter with the given bit-width (rounded up to a multiple
// of 64). No resizing: table width is fixed at construction, per §4.2.
func New(width int) *Filter {
	if width <= 0 {
		width = 1 << 20
	}
	words := (width + 63) / 64
	return &Filter{bits: make([]uint64, words), nbits: uint64(words) * 64}
}

// lookup3-style double hashing: derive k probe positions from two
// independent 64-bit mixes of the literal vector (h1, h2), then
// probe[i] = h1 + i*h2 — the classic Kirsch-Mitzenmacher reduction from
// two hash functions to k, used in place of reimplementing Bob Jenkins'
// original lookup3 bit-mixer (the xxhash mixing is at least as strong and
// is already an ecosystem dependency of the teacher).
func hashes(lits []int32) (h1, h2 uint64) {
	buf := make([]byte, 4*len(lits))
	for i, lit := range lits {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(lit))
	}
	h1 = xxhash.Checksum64(buf)
	h2 = xxhash.ChecksumString64(string(buf) + "\x00salt")
	if h2 == 0 {
		h2 = 1
	}
	return h1, h2
}

func (f *Filter) probes(lits []int32) [k]uint64 {
	h1, h2 := hashes(lits)
	var idx [k]uint64
	for i := 0; i < k; i++ {
		idx[i] = (h1 + uint64(i)*h2) % f.nbits
	}
	return idx
}

// Insert records lits as seen.
func (f *Filter) Insert(lits []int32) {
	for _, pos := range f.probes(lits) {
		f.bits[pos/64] |= 1 << (pos % 64)
	}
}

// Contains reports whether lits was possibly inserted before (false
// positives allowed, no false negatives — L2).
func (f *Filter) Contains(lits []int32) bool {
	for _, pos := range f.probes(lits) {
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// ContainsOrInsert is the atomic test-and-set combination: it reports
// whether lits was already (possibly) present, and unconditionally
// inserts it. Not safe to call concurrently with itself on the same
// filter without external synchronization — bloom filters in this module
// are owned by a single sharer thread unless explicitly documented
// otherwise (§5 Shared-resource policy).
func (f *Filter) ContainsOrInsert(lits []int32) bool {
	seen := f.Contains(lits)
	f.Insert(lits)
	return seen
}

// Counting is the counting-bloom variant behind HordeSat's duplicate
// promotion: TestAndInsert increments a small saturating counter per
// probed bucket and returns the minimum counter across all k buckets
// (the classic counting-bloom occupancy estimate), used by package
// sharing to decide when to promote a clause's LBD (§4.5).
type Counting struct {
	counters []uint8
	nbits    uint64
}

// NewCounting creates a counting bloom filter with the given bit-width.
func NewCounting(width int) *Counting {
	if width <= 0 {
		width = 1 << 20
	}
	return &Counting{counters: make([]uint8, width), nbits: uint64(width)}
}

func (c *Counting) probes(h uint64) [k]uint64 {
	h2 := h*0x9e3779b97f4a7c15 + 1 // odd multiplier keeps h2 nonzero/coprime-ish
	var idx [k]uint64
	for i := 0; i < k; i++ {
		idx[i] = (h + uint64(i)*h2) % c.nbits
	}
	return idx
}

// TestAndInsert increments the counters for hash h (a clause checksum)
// and returns the post-increment occupancy count, saturating at
// counterMax. Mirrors BloomFilter::test_and_insert(checksum, width) in
// the original: width there is the number of probe bits, here it is
// folded into the k constant for a fixed-shape filter.
func (c *Counting) TestAndInsert(h uint64) uint8 {
	min := uint8(counterMax)
	idx := c.probes(h)
	for _, pos := range idx {
		if c.counters[pos] < counterMax {
			c.counters[pos]++
		}
		if c.counters[pos] < min {
			min = c.counters[pos]
		}
	}
	return min
}
