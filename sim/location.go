package sim

import (
	"sync"
	"sync/atomic"
)

// Location is one instruction location together with its per-level miss
// attribution. Counters are bumped with atomic increments, never under a
// cache lock: several cores can charge misses to the same instruction
// concurrently.
type Location struct {
	Addr   uint64
	Disas  string
	Symbol string

	l1dMisses atomic.Uint64
	l1iMisses atomic.Uint64
	l1dInvals atomic.Uint64
	l1iInvals atomic.Uint64
	l2Misses  atomic.Uint64
	l2Invals  atomic.Uint64
}

// LocationStats is a point-in-time copy of one Location's counters.
type LocationStats struct {
	Addr   uint64
	Disas  string
	Symbol string

	L1DMisses uint64
	L1IMisses uint64
	L1DInvals uint64
	L1IInvals uint64
	L2Misses  uint64
	L2Invals  uint64
}

func (l *Location) stats() LocationStats {
	return LocationStats{
		Addr:      l.Addr,
		Disas:     l.Disas,
		Symbol:    l.Symbol,
		L1DMisses: l.l1dMisses.Load(),
		L1IMisses: l.l1iMisses.Load(),
		L1DInvals: l.l1dInvals.Load(),
		L1IInvals: l.l1iInvals.Load(),
		L2Misses:  l.l2Misses.Load(),
		L2Invals:  l.l2Invals.Load(),
	}
}

// locationTable interns one Location per instruction address. The mutex
// guards interning only; counter updates are lock-free.
type locationTable struct {
	mu sync.Mutex
	m  map[uint64]*Location
}

func (t *locationTable) init() { t.m = make(map[uint64]*Location) }

func (t *locationTable) intern(addr uint64, disas, symbol string) *Location {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.m[addr]; ok {
		return l
	}
	l := &Location{Addr: addr, Disas: disas, Symbol: symbol}
	t.m[addr] = l
	return l
}

func (t *locationTable) all() []*Location {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Location, 0, len(t.m))
	for _, l := range t.m {
		out = append(out, l)
	}
	return out
}

// Location interns the record for one instruction address. Repeated calls
// for the same address return the same record; the first disassembly text
// and symbol stick, matching how a translated instruction is registered
// once and re-observed many times.
func (h *Hierarchy) Location(addr uint64, disas, symbol string) *Location {
	return h.locs.intern(addr, disas, symbol)
}
