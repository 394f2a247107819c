package policy

// fifo keeps, per set, the filled block indices in insertion order. Hits do
// not reorder the queue; membership age alone decides the victim, which is
// what distinguishes FIFO from LRU.
type fifo struct {
	queues [][]int // [set] block indices, oldest first
}

func newFIFO(numSets int) *fifo {
	return &fifo{queues: make([][]int, numSets)}
}

// OnHit is a no-op: re-access does not renew a block's insertion age.
func (p *fifo) OnHit(int, int) {}

// OnMiss enqueues the freshly filled block as the newest insertion.
func (p *fifo) OnMiss(set, blk int) {
	p.queues[set] = append(p.queues[set], blk)
}

// Victim dequeues the oldest insertion.
func (p *fifo) Victim(set int) int {
	q := p.queues[set]
	blk := q[0]
	p.queues[set] = q[1:]
	return blk
}
