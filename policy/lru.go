package policy

// lru keeps a priority stamp per block and a generation counter per set.
// Hits and fills both stamp the touched block with the current generation,
// so the block with the lowest stamp is the least recently used one.
// Stamps start at zero; early ties resolve to the lowest block index.
type lru struct {
	assoc int
	prio  [][]uint64 // [set][block] stamp
	gen   []uint64   // [set] generation counter
}

func newLRU(numSets, assoc int) *lru {
	p := &lru{
		assoc: assoc,
		prio:  make([][]uint64, numSets),
		gen:   make([]uint64, numSets),
	}
	for i := range p.prio {
		p.prio[i] = make([]uint64, assoc)
	}
	return p
}

func (p *lru) touch(set, blk int) {
	p.prio[set][blk] = p.gen[set]
	p.gen[set]++
}

// OnHit marks blk the most recently used block of its set.
func (p *lru) OnHit(set, blk int) { p.touch(set, blk) }

// OnMiss marks the freshly filled blk the most recently used block.
func (p *lru) OnMiss(set, blk int) { p.touch(set, blk) }

// Victim returns the block with the minimum stamp, first scanned wins ties.
func (p *lru) Victim(set int) int {
	min := p.prio[set][0]
	idx := 0
	for i := 1; i < p.assoc; i++ {
		if p.prio[set][i] < min {
			min = p.prio[set][i]
			idx = i
		}
	}
	return idx
}
