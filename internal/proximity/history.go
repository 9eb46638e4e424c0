package proximity

// HistorySize is the number of signal samples kept by the estimator.
const HistorySize = 8

// Sample is one received signal strength reading.
type Sample struct {
	RSSI      uint8
	Timestamp int64 // µs
}

// History is a fixed ring of the most recent samples. Slots are overwritten in place, so slot
// order is write position, not arrival order.
type History struct {
	slots [HistorySize]Sample
	next  int
	count int
}

func (h *History) Push(s Sample) {
	h.slots[h.next] = s
	h.next = (h.next + 1) % HistorySize
	if h.count < HistorySize {
		h.count++
	}
}

// Reset zeroes every slot and forgets the fill count.
func (h *History) Reset() {
	*h = History{}
}

// Len returns how many slots hold a sample, at most HistorySize.
func (h History) Len() int {
	return h.count
}

// Slot returns the sample stored at position i.
func (h History) Slot(i int) Sample {
	return h.slots[i%HistorySize]
}
