package sim

import (
	"errors"
	"strings"
	"testing"

	"github.com/IvanBrykalov/cachesim/cache"
	"github.com/IvanBrykalov/cachesim/policy"
)

// Two sets, two ways, wide low tag: small enough to force conflicts quickly.
var tinyGeometry = cache.Geometry{BlockSize: 64, Assoc: 2, Size: 256, LowTagBits: 57}

func testParams(cores int, withL2 bool) Params {
	p := Params{
		Cores:  cores,
		Policy: policy.LRU,
		L1I:    tinyGeometry,
		L1D:    tinyGeometry,
	}
	if withL2 {
		g := cache.Geometry{BlockSize: 64, Assoc: 4, Size: 1024, LowTagBits: 54}
		p.L2 = &g
	}
	return p
}

func mustHierarchy(t *testing.T, p Params) *Hierarchy {
	t.Helper()
	h, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func TestHierarchy_BadGeometryNamesCache(t *testing.T) {
	t.Parallel()

	p := testParams(1, false)
	p.L1D.Size = 100 // not divisible by the block size
	_, err := New(p)
	if !errors.Is(err, cache.ErrSizeVsBlock) {
		t.Fatalf("err = %v, want ErrSizeVsBlock", err)
	}
	if !strings.Contains(err.Error(), "l1d") {
		t.Fatalf("err %q does not name the offending cache", err)
	}
}

func TestHierarchy_L1ThenL2Cascade(t *testing.T) {
	t.Parallel()

	h := mustHierarchy(t, testParams(1, true))

	info := h.RecordDataAccess(0, 0x1000, nil)
	if !info.L1Miss || !info.L2Miss {
		t.Fatalf("cold access: %+v, want miss at both levels", info)
	}

	// An L1 hit must not touch L2 at all.
	info = h.RecordDataAccess(0, 0x1000, nil)
	if info.L1Miss || info.L2Miss {
		t.Fatalf("warm access: %+v, want hits", info)
	}
	rep := h.Snapshot(false)
	if got := rep.Cores[0].L2.Accesses; got != 1 {
		t.Fatalf("l2 accesses = %d, want 1 (no probe on L1 hit)", got)
	}
}

func TestHierarchy_InstructionAndDataAreSeparate(t *testing.T) {
	t.Parallel()

	h := mustHierarchy(t, testParams(1, false))

	h.RecordInstructionFetch(0, 0x2000, nil)
	h.RecordDataAccess(0, 0x2000, nil)

	rep := h.Snapshot(false)
	if rep.Cores[0].L1I.Accesses != 1 || rep.Cores[0].L1D.Accesses != 1 {
		t.Fatalf("rows = %+v, want one access on each side", rep.Cores[0])
	}
	// Same address, but distinct caches: both sides miss cold.
	if rep.Cores[0].L1I.Misses != 1 || rep.Cores[0].L1D.Misses != 1 {
		t.Fatalf("rows = %+v, want one miss on each side", rep.Cores[0])
	}
}

func TestHierarchy_CoreFolding(t *testing.T) {
	t.Parallel()

	h := mustHierarchy(t, testParams(2, false))

	// Core 5 folds onto slot 1.
	h.RecordDataAccess(5, 0x3000, nil)
	rep := h.Snapshot(false)
	if rep.Cores[0].L1D.Accesses != 0 || rep.Cores[1].L1D.Accesses != 1 {
		t.Fatalf("rows = %+v / %+v, want the access on core 1",
			rep.Cores[0].L1D, rep.Cores[1].L1D)
	}
}

func TestHierarchy_LocationAttribution(t *testing.T) {
	t.Parallel()

	h := mustHierarchy(t, testParams(1, true))
	loc := h.Location(0x400, "ld x1, 0(x2)", "main")

	h.RecordInstructionFetch(0, 0x400, loc) // L1-I and L2 miss
	h.RecordDataAccess(0, 0x5000, loc)      // L1-D and L2 miss
	h.RecordDataAccess(0, 0x5000, loc)      // hit, no attribution

	top := h.TopLocations(-1)
	if len(top.ByDataMisses) != 1 {
		t.Fatalf("locations = %d, want 1", len(top.ByDataMisses))
	}
	s := top.ByDataMisses[0]
	if s.L1DMisses != 1 || s.L1IMisses != 1 || s.L2Misses != 2 {
		t.Fatalf("stats = %+v, want 1/1/2", s)
	}
}

func TestHierarchy_LocationInterning(t *testing.T) {
	t.Parallel()

	h := mustHierarchy(t, testParams(1, false))
	a := h.Location(0x400, "nop", "")
	b := h.Location(0x400, "other text", "sym")
	if a != b {
		t.Fatal("same address must intern to one record")
	}
	if a.Disas != "nop" {
		t.Fatalf("Disas = %q, the first registration must stick", a.Disas)
	}
}

func TestHierarchy_RegionGating(t *testing.T) {
	t.Parallel()

	p := testParams(1, false)
	p.GateRegions = true
	h := mustHierarchy(t, p)

	// Outside a region nothing is recorded.
	if info := h.RecordDataAccess(0, 0x1000, nil); info.L1Miss {
		t.Fatalf("gated access reported %+v", info)
	}
	if rep := h.Snapshot(false); rep.Cores[0].L1D.Accesses != 0 {
		t.Fatal("gated access leaked into the counters")
	}

	h.RegionStart()
	h.RecordDataAccess(0, 0x1000, nil)
	rep := h.RegionEnd()
	if rep.Cores[0].L1D.Accesses != 1 || rep.Cores[0].L1D.Misses != 1 {
		t.Fatalf("window = %+v, want 1 access, 1 miss", rep.Cores[0].L1D)
	}

	// RegionEnd left the hierarchy inactive and the counters reset.
	h.RecordDataAccess(0, 0x1000, nil)
	if rep := h.Snapshot(false); rep.Cores[0].L1D.Accesses != 0 {
		t.Fatal("recording continued after RegionEnd")
	}
}

func TestHierarchy_UngatedRegionMarkersOnlyDelimit(t *testing.T) {
	t.Parallel()

	h := mustHierarchy(t, testParams(1, false))

	h.RecordDataAccess(0, 0x1000, nil)
	rep := h.RegionEnd() // snapshot-and-reset, recording continues
	if rep.Cores[0].L1D.Accesses != 1 {
		t.Fatalf("window = %+v, want 1 access", rep.Cores[0].L1D)
	}
	h.RecordDataAccess(0, 0x1000, nil)
	if rep := h.Snapshot(false); rep.Cores[0].L1D.Accesses != 1 {
		t.Fatal("recording must continue without gating")
	}
}
