package clock

import (
	"context"
	"time"

	internalclock "github.com/SmitUplenchwar2687/ps2emu/internal/clock"
)

// Clock abstracts time so capture and replay pacing work with both real
// and virtual time.
type Clock = internalclock.Clock

// RealClock delegates to the standard time package.
type RealClock = internalclock.RealClock

// VirtualClock is a controllable clock for deterministic tests.
type VirtualClock = internalclock.VirtualClock

// NewRealClock creates a real wall-clock implementation.
func NewRealClock() *RealClock {
	return internalclock.NewRealClock()
}

// NewVirtualClock creates a virtual clock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return internalclock.NewVirtualClock(start)
}

// NewSteppingClock creates a virtual clock whose waits complete at once
// and move the clock forward.
func NewSteppingClock(start time.Time) *VirtualClock {
	return internalclock.NewSteppingClock(start)
}

// Sleep waits for d on clk or until ctx is done.
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	return internalclock.Sleep(ctx, clk, d)
}
