package clock

import (
	"sync"
	"time"
)

// VirtualClock is a controllable clock. Time only moves when Advance or Set
// is called, which makes capture phase checks and replay pacing
// deterministic in tests.
//
// Thread-safe for concurrent use.
type VirtualClock struct {
	mu      sync.RWMutex
	current time.Time
	waiters []waiter

	// autoAdvance makes After move the clock forward by d immediately.
	autoAdvance bool
	waits       []time.Duration
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewVirtualClock creates a VirtualClock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{
		current: start,
	}
}

// NewSteppingClock creates a VirtualClock whose After advances the clock by
// the requested duration and fires at once. Every requested wait is kept
// and can be inspected with Waits.
func NewSteppingClock(start time.Time) *VirtualClock {
	return &VirtualClock{
		current:     start,
		autoAdvance: true,
	}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Since returns the virtual duration elapsed since t.
func (c *VirtualClock) Since(t time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Sub(t)
}

// After returns a channel that receives the virtual time once the clock
// has advanced past the current time plus d.
func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)

	if c.autoAdvance {
		c.waits = append(c.waits, d)
		if d > 0 {
			c.current = c.current.Add(d)
			c.drainWaiters()
		}
		ch <- c.current
		return ch
	}

	if d <= 0 {
		ch <- c.current
		return ch
	}

	c.waiters = append(c.waiters, waiter{
		deadline: c.current.Add(d),
		ch:       ch,
	})
	return ch
}

// Waits returns the durations passed to After, in call order. Only a
// stepping clock records them.
func (c *VirtualClock) Waits() []time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]time.Duration, len(c.waits))
	copy(out, c.waits)
	return out
}

// Pending returns the number of After channels that have not fired yet.
func (c *VirtualClock) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.waiters)
}

// Advance moves the virtual clock forward by the given duration.
// It fires any waiters whose deadlines have been reached.
// Panics if d is negative.
func (c *VirtualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	c.drainWaiters()
}

// Set sets the virtual clock to an exact time.
// Panics if t is before the current time.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.current) {
		panic("clock: cannot set time to the past")
	}

	c.current = t
	c.drainWaiters()
}

// drainWaiters must be called with c.mu held.
func (c *VirtualClock) drainWaiters() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.current) {
			w.ch <- c.current
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}
