package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/IvanBrykalov/cachesim/cache"
)

// Row holds the statistics of one core, or of the all-cores sum.
type Row struct {
	Label string
	L1D   cache.Counters
	L1I   cache.Counters
	L2    cache.Counters
}

// Report is one statistics window of the whole hierarchy.
type Report struct {
	HasL2 bool
	Cores []Row
	// Sum is the all-cores row, present when more than one core is
	// configured.
	Sum *Row
}

// Snapshot reads every cache's counters and assembles the report. Each
// cache's lock is held only for the duration of its own copy, never across
// the whole aggregation. With resetAfter, the counters are zeroed under the
// same brief lock, so successive measurement windows within one run line up
// atomically per cache.
func (h *Hierarchy) Snapshot(resetAfter bool) Report {
	rep := Report{HasL2: h.l2 != nil}

	read := func(lc *lockedCache) cache.Counters {
		lc.mu.Lock()
		defer lc.mu.Unlock()
		ctr := lc.c.Counters()
		if resetAfter {
			lc.c.ResetCounters()
		}
		return ctr
	}

	for i := 0; i < h.cores; i++ {
		row := Row{Label: fmt.Sprintf("%d", i)}
		row.L1D = read(&h.l1d[i])
		row.L1I = read(&h.l1i[i])
		if h.l2 != nil {
			row.L2 = read(&h.l2[i])
		}
		rep.Cores = append(rep.Cores, row)
	}

	if h.cores > 1 {
		sum := Row{Label: "sum"}
		for _, row := range rep.Cores {
			sum.L1D.Add(row.L1D)
			sum.L1I.Add(row.L1I)
			sum.L2.Add(row.L2)
		}
		rep.Sum = &sum
	}
	return rep
}

// String renders the per-core table, one row per core plus the sum row.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString("core #, data accesses, data misses, dmiss rate, dcache inval," +
		" insn accesses, insn misses, imiss rate, icache inval")
	if r.HasL2 {
		b.WriteString(", l2 accesses, l2 misses, l2 miss rate, l2 inval")
	}
	b.WriteByte('\n')
	for _, row := range r.Cores {
		appendRow(&b, row, r.HasL2)
	}
	if r.Sum != nil {
		appendRow(&b, *r.Sum, r.HasL2)
	}
	return b.String()
}

func appendRow(b *strings.Builder, row Row, hasL2 bool) {
	fmt.Fprintf(b, "%-8s", row.Label)
	fmt.Fprintf(b, "%-14d %-12d %9.4f%%  %-14d  %-14d %-12d %9.4f%%  %-14d",
		row.L1D.Accesses, row.L1D.Misses, row.L1D.MissRate(), row.L1D.Invalidations,
		row.L1I.Accesses, row.L1I.Misses, row.L1I.MissRate(), row.L1I.Invalidations)
	if hasL2 {
		fmt.Fprintf(b, "  %-12d %-11d %10.4f%%  %-14d",
			row.L2.Accesses, row.L2.Misses, row.L2.MissRate(), row.L2.Invalidations)
	}
	b.WriteByte('\n')
}

// TopReport ranks instruction locations by miss counts: by data misses, by
// fetch misses, and, with L2 enabled, by L2 misses.
type TopReport struct {
	HasL2         bool
	ByDataMisses  []LocationStats
	ByFetchMisses []LocationStats
	ByL2Misses    []LocationStats
}

// TopLocations returns up to n locations for each ranking. Ties break on
// the lower address so the output is deterministic. n < 0 means no limit.
func (h *Hierarchy) TopLocations(n int) TopReport {
	locs := h.locs.all()
	stats := make([]LocationStats, len(locs))
	for i, l := range locs {
		stats[i] = l.stats()
	}

	top := func(key func(LocationStats) uint64) []LocationStats {
		s := make([]LocationStats, len(stats))
		copy(s, stats)
		sort.Slice(s, func(i, j int) bool {
			if key(s[i]) != key(s[j]) {
				return key(s[i]) > key(s[j])
			}
			return s[i].Addr < s[j].Addr
		})
		if n >= 0 && len(s) > n {
			s = s[:n]
		}
		return s
	}

	rep := TopReport{HasL2: h.l2 != nil}
	rep.ByDataMisses = top(func(s LocationStats) uint64 { return s.L1DMisses })
	rep.ByFetchMisses = top(func(s LocationStats) uint64 { return s.L1IMisses })
	if rep.HasL2 {
		rep.ByL2Misses = top(func(s LocationStats) uint64 { return s.L2Misses })
	}
	return rep
}

// String renders the ranked lists as "address, misses, instruction" rows.
func (r TopReport) String() string {
	var b strings.Builder
	appendTop(&b, "address, data misses, instruction\n", r.ByDataMisses,
		func(s LocationStats) uint64 { return s.L1DMisses })
	b.WriteByte('\n')
	appendTop(&b, "address, fetch misses, instruction\n", r.ByFetchMisses,
		func(s LocationStats) uint64 { return s.L1IMisses })
	if r.HasL2 {
		b.WriteByte('\n')
		appendTop(&b, "address, L2 misses, instruction\n", r.ByL2Misses,
			func(s LocationStats) uint64 { return s.L2Misses })
	}
	return b.String()
}

func appendTop(b *strings.Builder, header string, rows []LocationStats,
	count func(LocationStats) uint64) {
	b.WriteString(header)
	for _, s := range rows {
		fmt.Fprintf(b, "0x%x", s.Addr)
		if s.Symbol != "" {
			fmt.Fprintf(b, " (%s)", s.Symbol)
		}
		fmt.Fprintf(b, ", %d, %s\n", count(s), s.Disas)
	}
}
