package fsm

import "github.com/librescoot/librefsm"

// Gate (receiver) states
const (
	StateGateIdle      librefsm.StateID = "idle"
	StateGateOpen      librefsm.StateID = "open"
	StateGateToggle    librefsm.StateID = "toggle"
	StateGateSenderOta librefsm.StateID = "sender-ota-request"
)

// Gate events
const (
	// Radio
	EvForceOpen librefsm.EventID = "force-open"
	EvApproach  librefsm.EventID = "approach"

	// Gate status input
	EvGateReleased librefsm.EventID = "gate-released"

	// Sender OTA input
	EvSenderOtaStart librefsm.EventID = "sender-ota-start"
	EvSenderOtaStop  librefsm.EventID = "sender-ota-stop"
)

// Sender states
const (
	StateSenderIdle    librefsm.StateID = "idle"
	StateSenderDetects librefsm.StateID = "detects"
	StateSenderBypass  librefsm.StateID = "bypass"
)

// Sender events
const (
	EvLinkDetected   librefsm.EventID = "link-detected"
	EvLinkLost       librefsm.EventID = "link-lost"
	EvBypassPressed  librefsm.EventID = "bypass-pressed"
	EvBypassReleased librefsm.EventID = "bypass-released"
)
