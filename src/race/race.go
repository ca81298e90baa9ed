package race

import (
	"time"
)

// Race is derived from Gates. It is complete once both gates have a latched
// activation and the finish activation is not before the start one.
// Otherwise it is pending.
type Race struct {
	Complete bool
	Elapsed  time.Duration
}

// Compute derives the Race from the gates' last activations. A finish
// activation that precedes the start activation means a new run has started
// and not yet finished, so the race is pending.
func Compute(g Gates) Race {
	start := g.Start.LastActivation
	finish := g.Finish.LastActivation

	if !start.Set || !finish.Set {
		return Race{}
	}

	elapsed := finish.Time.Sub(start.Time)
	if elapsed < 0 {
		return Race{}
	}

	return Race{Complete: true, Elapsed: elapsed}
}

// Pending ...
func (r Race) Pending() bool {
	return !r.Complete
}

// String ...
func (r Race) String() string {
	if !r.Complete {
		return "pending"
	}
	return r.Elapsed.String()
}
