// Package proximity decides from the RSSI trend of incoming pings whether the sender is
// approaching the gate.
package proximity

import "time"

const (
	// MaxTotalDelay bounds the summed age of all samples for a trend to count.
	MaxTotalDelay = 3 * time.Second
	// ResetGap is the receive gap after which the history starts over.
	ResetGap = 300 * time.Millisecond
)

// Estimator tracks the signal history of one sender.
type Estimator struct {
	history History
	lastRx  int64
	seen    bool
}

// Observe records a ping received at ts. The history is cleared first if the previous ping is
// more than ResetGap old.
func (e *Estimator) Observe(rssi uint8, ts int64) {
	if e.seen && ts-e.lastRx > ResetGap.Microseconds() {
		e.history.Reset()
	}
	e.history.Push(Sample{RSSI: rssi, Timestamp: ts})
	e.lastRx = ts
	e.seen = true
}

// Ready reports whether the history is full.
func (e *Estimator) Ready() bool {
	return e.history.Len() >= HistorySize
}

// IsGettingCloser compares slots 0-3 against slots 4-7 and reports true when the second half is
// stronger on average and the samples are recent enough as of now.
//
// The halves are positional. Once the ring has wrapped, slots 4-7 are not necessarily the newer
// samples, so the result can flip depending on where the write index currently sits.
func (e *Estimator) IsGettingCloser(now int64) bool {
	var lower, higher int
	var totalDelay int64
	half := HistorySize / 2
	for i := 0; i < half; i++ {
		a, b := e.history.Slot(i), e.history.Slot(i+half)
		lower += int(a.RSSI)
		higher += int(b.RSSI)
		totalDelay += (now - a.Timestamp) + (now - b.Timestamp)
	}
	return higher > lower && totalDelay < MaxTotalDelay.Microseconds()
}

// History returns a copy of the current samples.
func (e *Estimator) History() History {
	return e.history
}
