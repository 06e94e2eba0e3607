package voxel

import (
	"time"
)

// Clock measures the time between ticks.
type Clock struct {
	Start time.Time
	Time  time.Time
	Dt    time.Duration

	now func() time.Time
}

func NewClock() *Clock {
	return newClock(time.Now)
}

func newClock(now func() time.Time) *Clock {
	t := now()
	return &Clock{Start: t, Time: t, now: now}
}

// Tick advances the clock and returns the time since the previous tick.
func (c *Clock) Tick() time.Duration {
	now := c.now()
	c.Dt = now.Sub(c.Time)
	c.Time = now
	return c.Dt
}

// Elapsed is the time since the clock started, independent of ticks.
func (c *Clock) Elapsed() time.Duration {
	return c.now().Sub(c.Start)
}
