// Package rollingcode implements the monotonic-counter replay protection shared by both nodes.
//
// The sender stamps every packet with Counter.Next. The receiver's Authenticator accepts a code only
// if it lies strictly after the last accepted code and less than Window ahead of it, then resyncs
// to it. All ordering uses 32-bit wraparound-safe signed differences.
package rollingcode

import (
	"time"

	"gate-service/internal/logger"
)

// Window is how far ahead of the current code a received code may be and still be accepted.
const Window uint32 = 2_000_000

// Persistent store keys, both in the same namespace.
const (
	KeyCounter  = "roll"
	KeyExpected = "exp_roll"
)

// IsNewer reports whether a comes after b in the wrapping 32-bit sequence.
func IsNewer(a, b uint32) bool {
	return int32(a-b) > 0
}

// State is the persisted counter together with its save bookkeeping.
type State struct {
	Code              uint32
	LastSavedCode     uint32
	LastSaveTimestamp int64 // µs
}

// persisted is the save logic shared by Counter and Authenticator.
type persisted struct {
	state  State
	store  Store
	key    string
	logger *logger.Logger
}

func (p *persisted) load(now int64) {
	p.state.Code = Load(p.store, p.key, p.logger)
	p.state.LastSavedCode = p.state.Code
	p.state.LastSaveTimestamp = now
}

// Save writes the current code and commits it.
func (p *persisted) Save(now int64) error {
	if err := p.store.SetUint32(p.key, p.state.Code); err != nil {
		return err
	}
	if err := p.store.Commit(); err != nil {
		return err
	}
	p.state.LastSavedCode = p.state.Code
	p.state.LastSaveTimestamp = now
	p.logger.Infof("Saved %s=%d", p.key, p.state.Code)
	return nil
}

// PeriodicSave persists the code if more than interval has passed since the last save and the code
// has moved on since then. It reports whether a save happened.
func (p *persisted) PeriodicSave(now int64, interval time.Duration) bool {
	if now-p.state.LastSaveTimestamp <= interval.Microseconds() {
		return false
	}
	if !IsNewer(p.state.Code, p.state.LastSavedCode) {
		return false
	}
	if err := p.Save(now); err != nil {
		p.logger.Warnf("Failed to save %s: %v", p.key, err)
		return false
	}
	return true
}

// State returns a copy of the current state.
func (p *persisted) State() State {
	return p.state
}
