package radio

// QueueCapacity is the depth of the receive queue between the radio handler and the main loop.
const QueueCapacity = 8

// Queue is a bounded, non-blocking FIFO. One goroutine pushes and one pops.
type Queue[T any] struct {
	ch chan T
}

func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{ch: make(chan T, capacity)}
}

// TryPush enqueues v, or drops it and returns false if the queue is full.
func (q *Queue[T]) TryPush(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// TryPop dequeues the oldest item if there is one.
func (q *Queue[T]) TryPop() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

func (q *Queue[T]) Len() int {
	return len(q.ch)
}
