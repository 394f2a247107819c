package util

import "math/bits"

// IsPowerOfTwo reports whether x is a power of two (> 0).
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}

// Log2 returns log2(x) for a power-of-two x.
// The caller must have validated x with IsPowerOfTwo; for other inputs the
// result is the position of the highest set bit.
func Log2(x uint64) uint {
	if x == 0 {
		return 0
	}
	return uint(bits.Len64(x) - 1)
}

// LowBitsMask returns a mask with the low n bits set, saturating at 64.
func LowBitsMask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}
