// Package cache models the hit/miss behavior of a set-associative cache with
// a split-tag addressing scheme. It is a timing-free presence model: no data
// payload is stored or returned, only whether a tag is resident.
//
// Design
//
//   - Addressing: an address splits into [ highTag | lowTag | setIndex |
//     blockOffset ]. The masks are derived once from the Geometry (Codec)
//     and Decompose is a pure, total function over the 64-bit space.
//
//   - Split tag: the low tag is stored per block; one high tag is shared by
//     the whole set. When an access carries a different high tag than the
//     set, every way of the set is invalidated before the insertion and the
//     probe reports MissWithInvalidate. The split bounds per-block tag
//     storage width.
//
//   - Probing: Probe classifies an access as Hit, Miss, or
//     MissWithInvalidate, fills a block on miss (an invalid way if one
//     exists, otherwise the policy's victim), and maintains the
//     accesses/misses/invalidations counters.
//
//   - Policies: eviction is pluggable via the policy package; LRU, FIFO and
//     Random are the closed set of variants, chosen once at construction.
//
//   - Concurrency: a Cache is not synchronized. One instance exists per
//     (core, level, instruction|data) slot and its owner holds an exclusive
//     lock around each Probe; see the sim package.
//
// Basic usage
//
//	g := cache.Geometry{BlockSize: 64, Assoc: 8, Size: 64 * 8 * 32, LowTagBits: 53}
//	c, err := cache.New(g, policy.LRU)
//	if err != nil {
//	    // invalid geometry: size not divisible by block/set size, ...
//	}
//	switch c.Probe(0x7f00_1234) {
//	case cache.Hit:
//	case cache.Miss:
//	case cache.MissWithInvalidate:
//	}
//	ctr := c.Counters() // {Accesses, Misses, Invalidations}
package cache
