// Package sim wires per-core cache instances into a two-level hierarchy,
// attributes misses to instruction locations, and aggregates statistics.
package sim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/IvanBrykalov/cachesim/cache"
	"github.com/IvanBrykalov/cachesim/internal/util"
	"github.com/IvanBrykalov/cachesim/policy"
)

// Params configures a Hierarchy. Every cache instance shares one eviction
// policy kind.
type Params struct {
	Cores  int
	Policy policy.Kind

	L1I cache.Geometry
	L1D cache.Geometry
	// L2 enables a unified second level; nil disables it. One L2 instance
	// exists per core slot, each behind its own lock. A truly shared L2
	// would need one cross-core lock (or sharding) and is left as an
	// extension.
	L2 *cache.Geometry

	// GateRegions starts the hierarchy inactive: accesses are dropped until
	// RegionStart. Without gating every access is recorded and the region
	// markers only delimit measurement windows.
	GateRegions bool
}

// lockedCache pairs one cache instance with its exclusive lock. The pad
// keeps neighboring elements of the per-core slices on separate cache lines.
type lockedCache struct {
	mu sync.Mutex
	c  *cache.Cache
	_  util.CacheLinePad
}

// MissInfo reports which levels missed and invalidated for one access so the
// caller can attribute statistics per level. The zero value means the access
// hit L1 (or was dropped by region gating).
type MissInfo struct {
	L1Miss        bool
	L1Invalidated bool
	L2Miss        bool
	L2Invalidated bool
}

// Hierarchy owns the per-core L1 instruction and data caches and the
// optional per-core-slot L2.
//
// Locking discipline: each cache instance has its own mutex, held for
// exactly one Probe plus its counter updates. Two different cores never
// contend, and the L1 lock is always released before the L2 lock is taken —
// the cascade is never one critical section. Per-location statistics use
// atomic increments instead of any cache lock.
type Hierarchy struct {
	cores int
	l1i   []lockedCache
	l1d   []lockedCache
	l2    []lockedCache // nil if disabled

	locs   locationTable
	active atomic.Bool
	gated  bool
}

// New validates the geometries and builds every cache instance. Errors name
// the offending cache and parameter relationship.
func New(p Params) (*Hierarchy, error) {
	if p.Cores <= 0 {
		return nil, fmt.Errorf("core count must be positive, got %d", p.Cores)
	}

	h := &Hierarchy{cores: p.Cores, gated: p.GateRegions}
	h.locs.init()
	h.active.Store(!p.GateRegions)

	var err error
	if h.l1d, err = newCaches("l1d", p.Cores, p.L1D, p.Policy); err != nil {
		return nil, err
	}
	if h.l1i, err = newCaches("l1i", p.Cores, p.L1I, p.Policy); err != nil {
		return nil, err
	}
	if p.L2 != nil {
		if h.l2, err = newCaches("l2", p.Cores, *p.L2, p.Policy); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func newCaches(label string, cores int, g cache.Geometry, kind policy.Kind) ([]lockedCache, error) {
	cs := make([]lockedCache, cores)
	for i := range cs {
		c, err := cache.New(g, kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		cs[i].c = c
	}
	return cs, nil
}

// Cores returns the configured core count.
func (h *Hierarchy) Cores() int { return h.cores }

// L2Enabled reports whether a second level is configured.
func (h *Hierarchy) L2Enabled() bool { return h.l2 != nil }

// RecordDataAccess simulates one data reference by core at addr, cascading
// into L2 on an L1 miss. loc may be nil when no per-instruction attribution
// is wanted. Writes are recorded exactly like reads: no write-back behavior
// is modeled.
func (h *Hierarchy) RecordDataAccess(core int, addr uint64, loc *Location) MissInfo {
	if !h.active.Load() {
		return MissInfo{}
	}
	core = h.fold(core)

	var info MissInfo
	out := probe(&h.l1d[core], addr)
	if out.Missed() {
		info.L1Miss = true
		info.L1Invalidated = out.Invalidated()
		if loc != nil {
			loc.l1dMisses.Add(1)
			if out.Invalidated() {
				loc.l1dInvals.Add(1)
			}
		}
	}
	if !out.Missed() || h.l2 == nil {
		return info
	}

	out = probe(&h.l2[core], addr)
	if out.Missed() {
		info.L2Miss = true
		info.L2Invalidated = out.Invalidated()
		if loc != nil {
			loc.l2Misses.Add(1)
			if out.Invalidated() {
				loc.l2Invals.Add(1)
			}
		}
	}
	return info
}

// RecordInstructionFetch simulates one instruction fetch by core at addr,
// against L1-I and then the optional L2.
func (h *Hierarchy) RecordInstructionFetch(core int, addr uint64, loc *Location) MissInfo {
	if !h.active.Load() {
		return MissInfo{}
	}
	core = h.fold(core)

	var info MissInfo
	out := probe(&h.l1i[core], addr)
	if out.Missed() {
		info.L1Miss = true
		info.L1Invalidated = out.Invalidated()
		if loc != nil {
			loc.l1iMisses.Add(1)
			if out.Invalidated() {
				loc.l1iInvals.Add(1)
			}
		}
	}
	if !out.Missed() || h.l2 == nil {
		return info
	}

	out = probe(&h.l2[core], addr)
	if out.Missed() {
		info.L2Miss = true
		info.L2Invalidated = out.Invalidated()
		if loc != nil {
			loc.l2Misses.Add(1)
			if out.Invalidated() {
				loc.l2Invals.Add(1)
			}
		}
	}
	return info
}

// RegionStart opens a measured region: with gating enabled it resumes
// recording.
func (h *Hierarchy) RegionStart() { h.active.Store(true) }

// RegionEnd closes the measured region and returns the window's snapshot,
// zeroing all counters for the next window. With gating enabled, recording
// stays suspended until the next RegionStart.
func (h *Hierarchy) RegionEnd() Report {
	if h.gated {
		h.active.Store(false)
	}
	return h.Snapshot(true)
}

func probe(lc *lockedCache, addr uint64) cache.Outcome {
	lc.mu.Lock()
	out := lc.c.Probe(addr)
	lc.mu.Unlock()
	return out
}

// fold reduces an arbitrary non-negative core index onto a configured slot.
func (h *Hierarchy) fold(core int) int {
	core %= h.cores
	if core < 0 {
		core += h.cores
	}
	return core
}
