package core

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	OtaRequestThreshold = 5
	OtaRequestMaxGap    = 5 * time.Second
)

// OtaRequestTrigger counts sender-OTA requests from the receiver. A run of
// OtaRequestThreshold requests with no gap above OtaRequestMaxGap raises the flag.
type OtaRequestTrigger struct {
	mu        sync.Mutex
	count     int
	last      int64
	seen      bool
	requested atomic.Bool
}

// Observe records a request received at ts and reports whether it completed a run.
func (t *OtaRequestTrigger) Observe(ts int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.seen || ts-t.last > OtaRequestMaxGap.Microseconds() {
		t.count = 1
	} else {
		t.count++
	}
	t.last, t.seen = ts, true

	if t.count >= OtaRequestThreshold {
		t.requested.Store(true)
		return true
	}
	return false
}

// Take returns and clears the request flag.
func (t *OtaRequestTrigger) Take() bool {
	return t.requested.Swap(false)
}
