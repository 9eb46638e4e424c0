package rollingcode

import "gate-service/internal/logger"

// Store is the persistent key-value store holding the counters.
// GetUint32 reports found=false with a nil error when the key has never been written.
type Store interface {
	GetUint32(key string) (value uint32, found bool, err error)
	SetUint32(key string, value uint32) error
	Commit() error
}

// Load reads key from store. A key that was never written starts at 1 and is written back.
// A store that cannot be read yields 0: the node keeps running, but a receiver in that state
// accepts any code inside a full window until it resyncs.
func Load(store Store, key string, l *logger.Logger) uint32 {
	value, found, err := store.GetUint32(key)
	if err != nil {
		l.Warnf("Failed to read %s from store, continuing with code 0 (degraded replay protection): %v", key, err)
		return 0
	}
	if !found {
		value = 1
		if err := store.SetUint32(key, value); err != nil {
			l.Warnf("Failed to initialise %s: %v", key, err)
		} else if err := store.Commit(); err != nil {
			l.Warnf("Failed to commit initial %s: %v", key, err)
		}
		l.Infof("Initialised %s=%d on first boot", key, value)
		return value
	}
	l.Infof("Loaded %s=%d", key, value)
	return value
}
