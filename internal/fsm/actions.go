package fsm

import "github.com/librescoot/librefsm"

// GateActions is implemented by the receiver system.
type GateActions interface {
	// Captures the debounced gate status as the toggle reference
	EnterToggle(c *librefsm.Context) error

	// Drives the actuator low when leaving OPEN or TOGGLE
	ReleaseActuator(c *librefsm.Context) error

	// Guards
	AutoOpenCooldownElapsed(c *librefsm.Context) bool
}

// SenderActions is implemented by the sender system.
type SenderActions interface {
	EnterBypass(c *librefsm.Context) error
	ExitBypass(c *librefsm.Context) error

	// True while the bypass input has been active for less than BypassTimeout
	BypassWithinTimeout(c *librefsm.Context) bool
}
