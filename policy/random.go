package policy

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// seedSalt decorrelates sources created within the same clock tick.
var seedSalt atomic.Int64

// random draws victims uniformly from [0, assoc). It needs no per-set
// metadata and no hit/miss hooks.
//
// Each cache instance owns one source, exercised only under that cache's
// lock. This shards the reference's single process-wide generator per cache,
// which keeps the same victim distribution without extra locking.
type random struct {
	assoc int
	rng   *rand.Rand
}

func newRandom(assoc int) *random {
	seed := time.Now().UnixNano() + seedSalt.Add(1)*9973
	return &random{assoc: assoc, rng: rand.New(rand.NewSource(seed))}
}

func (p *random) OnHit(int, int)  {}
func (p *random) OnMiss(int, int) {}

// Victim returns a uniformly distributed block index.
func (p *random) Victim(int) int { return p.rng.Intn(p.assoc) }
