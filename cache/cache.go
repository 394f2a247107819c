package cache

import "github.com/IvanBrykalov/cachesim/policy"

// Outcome classifies one probe. Probing never fails: every access is a hit
// or one of the two miss variants.
type Outcome uint8

const (
	// Hit: a valid block with a matching low tag exists and the set's
	// high tag matches.
	Hit Outcome = iota
	// Miss: the address was not resident; a block was filled.
	Miss
	// MissWithInvalidate: the set's high tag changed, so every block of
	// the set was invalidated before the fill.
	MissWithInvalidate
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case MissWithInvalidate:
		return "miss+inval"
	default:
		return "unknown"
	}
}

// Missed reports whether the outcome is one of the miss variants.
func (o Outcome) Missed() bool { return o != Hit }

// Invalidated reports whether the probe forced a full-set invalidation.
func (o Outcome) Invalidated() bool { return o == MissWithInvalidate }

// Counters are the running statistics of one cache instance.
type Counters struct {
	Accesses      uint64
	Misses        uint64
	Invalidations uint64
}

// MissRate returns misses/accesses as a percentage. Zero accesses yield 0.0,
// never NaN.
func (c Counters) MissRate() float64 {
	if c.Accesses == 0 {
		return 0
	}
	return float64(c.Misses) / float64(c.Accesses) * 100
}

// Add accumulates other into c.
func (c *Counters) Add(other Counters) {
	c.Accesses += other.Accesses
	c.Misses += other.Misses
	c.Invalidations += other.Invalidations
}

// block is the presence information for one cache line. No data payload is
// modeled: a block is just a low tag and a valid bit.
type block struct {
	lowTag uint64
	valid  bool
}

// set is one associative set. All valid blocks share the set's high tag;
// the set's highTag field is authoritative.
type set struct {
	highTag uint64
	blocks  []block
}

// Cache models the hit/miss behavior of one set-associative cache.
//
// Cache does no locking of its own: the owner serializes Probe and the
// counter accessors (see sim.Hierarchy for the locking discipline).
type Cache struct {
	geom  Geometry
	codec Codec
	sets  []set
	pol   policy.Policy

	counters Counters
}

// New validates the geometry and builds the cache together with its policy
// bookkeeping.
func New(g Geometry, kind policy.Kind) (*Cache, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	sets := make([]set, g.NumSets())
	for i := range sets {
		sets[i].blocks = make([]block, g.Assoc)
	}
	return &Cache{
		geom:  g,
		codec: NewCodec(g),
		sets:  sets,
		pol:   policy.New(kind, g.NumSets(), g.Assoc),
	}, nil
}

// Geometry returns the cache shape.
func (c *Cache) Geometry() Geometry { return c.geom }

// Probe simulates one access to addr and updates the cache for the next one.
func (c *Cache) Probe(addr uint64) Outcome {
	highTag, lowTag, setIdx := c.codec.Decompose(addr)
	s := &c.sets[setIdx]

	c.counters.Accesses++

	if s.highTag == highTag {
		for i := range s.blocks {
			if s.blocks[i].valid && s.blocks[i].lowTag == lowTag {
				c.pol.OnHit(setIdx, i)
				return Hit
			}
		}
	}

	out := Miss
	c.counters.Misses++

	// All valid blocks of a set share one high tag. A mismatch means the
	// whole set is stale: invalidate every way before inserting.
	if s.highTag != highTag {
		for i := range s.blocks {
			s.blocks[i].valid = false
		}
		s.highTag = highTag
		out = MissWithInvalidate
		c.counters.Invalidations++
	}

	// Prefer an invalid block (compulsory miss); ask the policy for a
	// victim only when the set is full (conflict miss).
	blk := invalidBlock(s)
	if blk < 0 {
		blk = c.pol.Victim(setIdx)
	}
	c.pol.OnMiss(setIdx, blk)

	s.blocks[blk].lowTag = lowTag
	s.blocks[blk].valid = true

	return out
}

func invalidBlock(s *set) int {
	for i := range s.blocks {
		if !s.blocks[i].valid {
			return i
		}
	}
	return -1
}

// Counters returns a copy of the running statistics.
func (c *Cache) Counters() Counters { return c.counters }

// ResetCounters zeroes the statistics for a new measurement window.
func (c *Cache) ResetCounters() { c.counters = Counters{} }
