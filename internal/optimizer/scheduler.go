package optimizer

import (
	"runtime"
	"time"
)

// yieldBudget is how long the optimizer may run before deferring to the
// host's next tick (§4.7).
const yieldBudget = 100 * time.Millisecond

// scheduler drives the optimizer's phases as a sequence of steps, checking
// wall-clock time after each mergeable-group unit of work and calling
// runtime.Gosched() once the budget is exceeded. A single goroutine drives
// every phase, so FIFO ordering across "deferred" steps falls out for free —
// there is nothing to reorder.
type scheduler struct {
	lastYield time.Time
}

func newScheduler() *scheduler {
	return &scheduler{lastYield: time.Now()}
}

// step marks the end of one mergeable-group's work and yields if the time
// budget has elapsed since the last yield.
func (s *scheduler) step() {
	if time.Since(s.lastYield) >= yieldBudget {
		runtime.Gosched()
		s.lastYield = time.Now()
	}
}
