package playground

import "time"

// Clock holds the engine's single logical current time. It never tracks the
// wall clock: it only moves when the driver elapses time or ticks, or resets
// it explicitly via SetLocalDate.
type Clock struct {
	CurrentTime time.Time
}

func NewClock(startTime time.Time) *Clock {
	return &Clock{
		CurrentTime: startTime,
	}
}

func (c *Clock) Add(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
