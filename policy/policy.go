// Package policy implements the eviction policies of the cache model:
// LRU, FIFO, and Random. The set of policies is closed; New switches
// exhaustively over the three variants.
package policy

import "fmt"

// Kind identifies an eviction policy. All caches of a hierarchy share one
// Kind, fixed for their lifetime.
type Kind int

const (
	// LRU replaces the least recently touched block of the set.
	LRU Kind = iota
	// FIFO replaces the oldest insertion; hits do not affect the order.
	FIFO
	// Random replaces a uniformly drawn block.
	Random
)

// String returns the configuration name of the policy.
func (k Kind) String() string {
	switch k {
	case LRU:
		return "lru"
	case FIFO:
		return "fifo"
	case Random:
		return "rand"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a configuration string onto a Kind. An unrecognized name is
// a configuration error, reported before any cache is allocated.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "lru":
		return LRU, nil
	case "fifo":
		return FIFO, nil
	case "rand", "random":
		return Random, nil
	default:
		return 0, fmt.Errorf("invalid replacement policy: %q (want lru, fifo or rand)", s)
	}
}

// Policy keeps the per-set bookkeeping of one cache instance and selects the
// victim on a conflict miss.
//
// Concurrency: every call for a given cache happens under that cache's lock,
// so implementations need no locking of their own.
type Policy interface {
	// OnHit records a hit on block blk of set.
	OnHit(set, blk int)
	// OnMiss records that block blk of set was filled.
	OnMiss(set, blk int)
	// Victim returns the block index to replace in a full set.
	Victim(set int) int
}

// New constructs the bookkeeping for a cache with numSets sets of assoc
// blocks each.
func New(kind Kind, numSets, assoc int) Policy {
	switch kind {
	case LRU:
		return newLRU(numSets, assoc)
	case FIFO:
		return newFIFO(numSets)
	case Random:
		return newRandom(assoc)
	default:
		panic(fmt.Sprintf("policy: unknown kind %d", int(kind)))
	}
}
