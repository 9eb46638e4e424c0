//go:build linux

package clock

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
)

// Monotonic reads CLOCK_MONOTONIC, which keeps counting across wall-clock adjustments.
type Monotonic struct{}

func NewMonotonic() Monotonic {
	return Monotonic{}
}

func (Monotonic) Now() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return fallbackNow()
	}
	return ts.Nano() / int64(time.Microsecond)
}

func (Monotonic) Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

var processStart = time.Now()

func fallbackNow() int64 {
	return time.Since(processStart).Microseconds()
}
