package clock

import (
	"context"
	"time"
)

// Clock abstracts the monotonic time source used for capture timestamps and
// replay pacing, so both engines run against a virtual clock in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration
	// After returns a channel that receives the current time after duration d.
	After(d time.Duration) <-chan time.Time
}

// RealClock delegates to the standard time package. Times it returns carry
// a monotonic reading, so Since is unaffected by wall clock changes.
type RealClock struct{}

func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Sleep blocks for d on clk or until ctx is done. Non-positive durations
// return immediately.
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}

// Micros converts a duration to the integer microseconds stored in logs.
func Micros(d time.Duration) int64 {
	return d.Microseconds()
}

// FromMicros converts log microseconds back to a duration.
func FromMicros(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
