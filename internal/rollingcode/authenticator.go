package rollingcode

import "gate-service/internal/logger"

// Authenticator tracks the last accepted code on the receiving side.
type Authenticator struct {
	persisted
}

// NewAuthenticator loads the expected code stored under key.
func NewAuthenticator(store Store, key string, now int64, l *logger.Logger) *Authenticator {
	a := &Authenticator{persisted{store: store, key: key, logger: l}}
	a.load(now)
	return a
}

// Authenticate accepts received iff it lies in (current, current+Window). On acceptance the
// current code jumps to received, skipping over any codes lost in transit.
func (a *Authenticator) Authenticate(received uint32) bool {
	if IsNewer(received, a.state.Code) && IsNewer(a.state.Code, received-Window) {
		a.state.Code = received
		return true
	}
	return false
}

// Current returns the last accepted code.
func (a *Authenticator) Current() uint32 {
	return a.state.Code
}
