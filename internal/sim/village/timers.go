package village

import "hamletcraft.dev/internal/sim/village/logic/mathx"

// intervalTimer accumulates delta-time and reports how many whole
// intervals have elapsed, carrying the remainder forward. A stalled
// loop (throttled tab, long GC pause) therefore fires each backlogged
// interval exactly once instead of bursting on wall-clock catch-up.
type intervalTimer struct {
	every float64 // seconds; <= 0 disables the timer
	acc   float64
}

func (t *intervalTimer) add(dt float64) int {
	if t.every <= 0 {
		return 0
	}
	t.acc += dt
	n := 0
	for t.acc >= t.every {
		t.acc -= t.every
		n++
	}
	return n
}

// roller is a deterministic random stream: a seed plus a draw counter
// fed through a splitmix-style hash. The seed is injected via Config,
// which is what makes villager behavior reproducible in tests.
type roller struct {
	seed int64
	n    int
}

func (r *roller) next() uint64 {
	r.n++
	return mathx.Hash2(r.seed, r.n, 0)
}

func (r *roller) rangeFloat(lo, hi float64) float64 {
	return mathx.RangeFloat(r.next(), lo, hi)
}

// pick returns a deterministic index in [0,n).
func (r *roller) pick(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() % uint64(n))
}
