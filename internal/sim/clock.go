package sim

// Clock turns absolute timestamps from the host loop into frame deltas.
// The first timestamp only primes the clock and yields a zero delta.
type Clock struct {
	last    float64
	started bool
}

func NewClock() *Clock {
	return &Clock{}
}

// Delta returns the seconds elapsed since the previous call. Timestamps
// that go backwards yield zero.
func (c *Clock) Delta(now float64) float64 {
	if !c.started {
		c.started = true
		c.last = now
		return 0
	}
	dt := now - c.last
	c.last = now
	if dt < 0 {
		return 0
	}
	return dt
}

func (c *Clock) Reset() {
	c.started = false
	c.last = 0
}
