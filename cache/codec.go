package cache

import "github.com/IvanBrykalov/cachesim/internal/util"

// Codec extracts the set index and the two tag halves from an address.
//
// An address is partitioned as [ highTag | lowTag | setIndex | blockOffset ].
// The masks are pairwise disjoint and, together with the block-offset mask,
// cover all 64 bits, so decomposition is a total function: every address maps
// to exactly one (highTag, lowTag, setIndex) triple.
type Codec struct {
	blockBits uint
	setMask   uint64
	lowMask   uint64
	highMask  uint64
}

// NewCodec derives the masks from a validated geometry. The masks are
// computed once here; Decompose is a pure function of them.
func NewCodec(g Geometry) Codec {
	numSets := uint64(g.NumSets())
	blockBits := util.Log2(uint64(g.BlockSize))
	setBits := util.Log2(numSets)

	blockMask := uint64(g.BlockSize) - 1
	setMask := (numSets - 1) << blockBits
	tagMask := ^(setMask | blockMask)

	// The low tag is the LowTagBits-wide window of the tag directly above
	// the set index; everything above the window is the high tag.
	lowWindow := util.LowBitsMask(g.LowTagBits) << (setBits + blockBits)

	return Codec{
		blockBits: blockBits,
		setMask:   setMask,
		lowMask:   tagMask & lowWindow,
		highMask:  tagMask &^ lowWindow,
	}
}

// Decompose splits addr into its high tag, low tag and set index.
func (c Codec) Decompose(addr uint64) (highTag, lowTag uint64, set int) {
	return addr & c.highMask,
		addr & c.lowMask,
		int((addr & c.setMask) >> c.blockBits)
}
