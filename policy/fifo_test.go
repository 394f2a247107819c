package policy

import "testing"

func TestFIFO_VictimIsOldestInsertion(t *testing.T) {
	t.Parallel()

	p := New(FIFO, 1, 3)
	p.OnMiss(0, 2)
	p.OnMiss(0, 0)
	p.OnMiss(0, 1)

	for _, want := range []int{2, 0, 1} {
		if got := p.Victim(0); got != want {
			t.Fatalf("Victim = %d, want %d", got, want)
		}
		p.OnMiss(0, want) // refill the way we just evicted
	}
}

func TestFIFO_HitsDoNotReorder(t *testing.T) {
	t.Parallel()

	p := New(FIFO, 1, 2)
	p.OnMiss(0, 0)
	p.OnMiss(0, 1)
	p.OnHit(0, 0) // must not renew block 0's age

	if got := p.Victim(0); got != 0 {
		t.Fatalf("Victim = %d, want 0", got)
	}
}

func TestFIFO_SetsAreIndependent(t *testing.T) {
	t.Parallel()

	p := New(FIFO, 2, 2)
	p.OnMiss(0, 1)
	p.OnMiss(1, 0)

	if got := p.Victim(0); got != 1 {
		t.Fatalf("Victim(0) = %d, want 1", got)
	}
	if got := p.Victim(1); got != 0 {
		t.Fatalf("Victim(1) = %d, want 0", got)
	}
}
