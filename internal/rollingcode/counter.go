package rollingcode

import "gate-service/internal/logger"

// Counter is the local transmit counter. Next mutates the counter in place so the value on the
// wire and the value that gets persisted are always the same.
type Counter struct {
	persisted
}

// NewCounter loads the counter stored under key.
func NewCounter(store Store, key string, now int64, l *logger.Logger) *Counter {
	c := &Counter{persisted{store: store, key: key, logger: l}}
	c.load(now)
	return c
}

// Next advances the counter and returns the new value.
func (c *Counter) Next() uint32 {
	c.state.Code++
	return c.state.Code
}

// Current returns the last value handed out by Next (or the loaded value).
func (c *Counter) Current() uint32 {
	return c.state.Code
}
