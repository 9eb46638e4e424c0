// Package debounce implements the majority-vote filter applied to every polled digital input.
package debounce

// WindowSize is the number of samples a Window votes over.
const WindowSize = 32

// Window is a fixed-capacity circular buffer of boolean samples.
// The zero value is an empty window ready for use.
type Window struct {
	samples [WindowSize]bool
	index   int
	wrapped bool
}

// Add stores sample at the write index and advances it, wrapping to zero after the last slot.
func (w *Window) Add(sample bool) {
	w.samples[w.index] = sample
	w.index++
	if w.index >= WindowSize {
		w.index = 0
		w.wrapped = true
	}
}

// Fill adds sample WindowSize times, leaving the window full.
func (w *Window) Fill(sample bool) {
	for i := 0; i < WindowSize; i++ {
		w.Add(sample)
	}
}

// Len returns the number of valid samples.
func (w *Window) Len() int {
	if w.wrapped {
		return WindowSize
	}
	return w.index
}

// CountHigh returns how many valid samples are true.
func (w *Window) CountHigh() int {
	count := 0
	for i := 0; i < w.Len(); i++ {
		if w.samples[i] {
			count++
		}
	}
	return count
}

// MajorityHigh reports whether strictly more than half of the valid samples are true.
// An empty window has no majority.
func (w *Window) MajorityHigh() bool {
	total := w.Len()
	if total == 0 {
		return false
	}
	return w.CountHigh() > total/2
}
