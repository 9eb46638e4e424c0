//go:build !linux

package clock

import (
	"context"
	"time"
)

type Monotonic struct{}

func NewMonotonic() Monotonic {
	return Monotonic{}
}

var processStart = time.Now()

func (Monotonic) Now() int64 {
	return time.Since(processStart).Microseconds()
}

func (Monotonic) Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}
