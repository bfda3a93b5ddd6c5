package i8042

import (
	"time"

	"golang.org/x/sys/unix"
)

// KernelClock reads CLOCK_MONOTONIC, the time base of /dev/kmsg record
// timestamps.
func KernelClock() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, err
	}
	return time.Duration(ts.Nano()), nil
}

// KernelClockFunc returns a reader of the kmsg clock for recorder
// sessions, or nil when the clock cannot be read on this system.
func KernelClockFunc() func() time.Duration {
	if _, err := KernelClock(); err != nil {
		return nil
	}
	return func() time.Duration {
		d, _ := KernelClock()
		return d
	}
}
