package cache

import (
	"errors"
	"fmt"

	"github.com/IvanBrykalov/cachesim/internal/util"
)

// Geometry validation errors. A violation is a configuration error: the
// simulation refuses to start, naming the broken parameter relationship.
var (
	ErrNonPositive = errors.New("block size, associativity and cache size must be positive")
	ErrSizeVsBlock = errors.New("cache size must be divisible by block size")
	ErrSizeVsSet   = errors.New("cache size must be divisible by set size (associativity * block size)")
	ErrBlockPow2   = errors.New("block size must be a power of two")
	ErrSetsPow2    = errors.New("derived set count must be a power of two")
)

// Geometry describes the shape of one cache instance. It is immutable once
// the cache is built.
//
// LowTagBits places the split between the two tag halves: the low half is
// stored per block, while one high half is shared by the whole set. The
// split bounds per-block tag storage; a LowTagBits wide enough to cover the
// entire tag leaves the high half empty and the bulk-invalidation path idle.
type Geometry struct {
	BlockSize  int  // bytes per block, power of two
	Assoc      int  // blocks per set
	Size       int  // total bytes, multiple of Assoc*BlockSize
	LowTagBits uint // width of the low half of the tag
}

// NumSets returns the derived set count. Meaningful only after Validate.
func (g Geometry) NumSets() int { return g.Size / (g.BlockSize * g.Assoc) }

// Validate checks the divisibility and power-of-two invariants. For a valid
// geometry, NumSets()*Assoc*BlockSize == Size exactly.
func (g Geometry) Validate() error {
	if g.BlockSize <= 0 || g.Assoc <= 0 || g.Size <= 0 {
		return fmt.Errorf("%w: blockSize=%d assoc=%d size=%d",
			ErrNonPositive, g.BlockSize, g.Assoc, g.Size)
	}
	if g.Size%g.BlockSize != 0 {
		return fmt.Errorf("%w: size=%d blockSize=%d", ErrSizeVsBlock, g.Size, g.BlockSize)
	}
	if g.Size%(g.BlockSize*g.Assoc) != 0 {
		return fmt.Errorf("%w: size=%d assoc=%d blockSize=%d",
			ErrSizeVsSet, g.Size, g.Assoc, g.BlockSize)
	}
	if !util.IsPowerOfTwo(uint64(g.BlockSize)) {
		return fmt.Errorf("%w: blockSize=%d", ErrBlockPow2, g.BlockSize)
	}
	if !util.IsPowerOfTwo(uint64(g.NumSets())) {
		return fmt.Errorf("%w: numSets=%d", ErrSetsPow2, g.NumSets())
	}
	return nil
}
