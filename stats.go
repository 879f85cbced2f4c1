package inflight

import "github.com/gogpu/inflight/gpucore"

// Stats is a snapshot of coordinator counters.
type Stats struct {
	// Flushes counts frame slots flushed and returned to idle.
	Flushes int64
	// LostRaces counts flushes that found new work and left the slot busy.
	LostRaces int64
	// UnmatchedFinishes counts Finish calls without outstanding work.
	UnmatchedFinishes int64
	// PoolResetErrors counts failed command pool resets.
	PoolResetErrors int64
	// Released counts torn down resources per kind.
	Released [gpucore.KindCount]int64
}

// TotalReleased returns the number of torn down resources of every kind.
func (s Stats) TotalReleased() int64 {
	var n int64
	for _, r := range s.Released {
		n += r
	}
	return n
}

// Stats returns the current counters.
func (c *Coordinator) Stats() Stats {
	s := Stats{
		Flushes:           c.flushes.Load(),
		LostRaces:         c.lostRaces.Load(),
		UnmatchedFinishes: c.misuses.Load(),
		PoolResetErrors:   c.resetErrors.Load(),
	}
	for k := range c.released {
		s.Released[k] = c.released[k].Load()
	}
	return s
}
