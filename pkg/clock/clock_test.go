package clock

import (
	"context"
	"testing"
	"time"
)

func TestClockImplementations(t *testing.T) {
	var _ Clock = NewRealClock()
	var _ Clock = NewVirtualClock(time.Now())
	var _ Clock = NewSteppingClock(time.Now())
}

func TestVirtualClockAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	vc := NewVirtualClock(start)
	vc.Advance(time.Minute)

	if got := vc.Now(); !got.Equal(start.Add(time.Minute)) {
		t.Fatalf("Now() = %v, want %v", got, start.Add(time.Minute))
	}
}

func TestSteppingClockSleep(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sc := NewSteppingClock(start)

	if err := Sleep(context.Background(), sc, 3*time.Second); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if got := sc.Since(start); got != 3*time.Second {
		t.Fatalf("Since(start) = %v, want 3s", got)
	}
}
