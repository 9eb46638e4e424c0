package fsm

import (
	"time"

	"github.com/librescoot/librefsm"
)

// Timing constants
const (
	AutoOpenCooldown      = 120 * time.Second
	ToggleCooldown        = 5 * time.Second
	SenderOtaSendInterval = 1 * time.Second
	LocalOtaCooldown      = 5 * time.Second

	IdlePingInterval   = 1000 * time.Millisecond // 1 Hz
	ActivePingInterval = 250 * time.Millisecond  // 4 Hz
	BypassTimeout      = 5 * time.Second
	LinkLostTimeout    = 3 * time.Second
	SenderOtaDuration  = 5 * time.Minute

	ReceiverSaveInterval = 12 * time.Hour
	SenderSaveInterval   = 6 * time.Hour

	TickInterval = 5 * time.Millisecond
)

// NewGateDefinition creates the receiver state machine.
//
// Cooldowns are checked by the caller against its own clock, except the auto-open cooldown
// which guards the IDLE -> OPEN transition.
func NewGateDefinition(actions GateActions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateGateIdle).
		State(StateGateOpen,
			librefsm.WithOnExit(actions.ReleaseActuator),
		).
		State(StateGateToggle,
			librefsm.WithOnEnter(actions.EnterToggle),
			librefsm.WithOnExit(actions.ReleaseActuator),
		).
		State(StateGateSenderOta).

		// Manual toggle wins over a pending auto-open
		Transition(StateGateIdle, EvForceOpen, StateGateToggle).
		Transition(StateGateOpen, EvForceOpen, StateGateToggle).
		Transition(StateGateIdle, EvApproach, StateGateOpen,
			librefsm.WithGuard(actions.AutoOpenCooldownElapsed),
		).
		Transition(StateGateOpen, EvGateReleased, StateGateIdle).
		Transition(StateGateToggle, EvGateReleased, StateGateIdle).

		// The sender OTA input overrides everything else while held
		Transition(StateGateIdle, EvSenderOtaStart, StateGateSenderOta).
		Transition(StateGateOpen, EvSenderOtaStart, StateGateSenderOta).
		Transition(StateGateToggle, EvSenderOtaStart, StateGateSenderOta).
		Transition(StateGateSenderOta, EvSenderOtaStop, StateGateIdle).
		Initial(StateGateIdle)
}

// NewSenderDefinition creates the sender transmit-cadence state machine.
func NewSenderDefinition(actions SenderActions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateSenderIdle).
		State(StateSenderDetects).
		State(StateSenderBypass,
			librefsm.WithOnEnter(actions.EnterBypass),
			librefsm.WithOnExit(actions.ExitBypass),
		).
		Transition(StateSenderIdle, EvLinkDetected, StateSenderDetects).
		Transition(StateSenderDetects, EvLinkLost, StateSenderIdle).
		Transition(StateSenderIdle, EvBypassPressed, StateSenderBypass,
			librefsm.WithGuard(actions.BypassWithinTimeout),
		).
		Transition(StateSenderDetects, EvBypassPressed, StateSenderBypass,
			librefsm.WithGuard(actions.BypassWithinTimeout),
		).
		Transition(StateSenderBypass, EvBypassReleased, StateSenderIdle).
		Initial(StateSenderIdle)
}
