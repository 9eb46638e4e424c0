package types

// GateState is the receiver state as published to redis.
type GateState string

const (
	GateStateIdle             GateState = "idle"
	GateStateOpen             GateState = "open"
	GateStateToggle           GateState = "toggle"
	GateStateSenderOtaRequest GateState = "sender-ota-request"
)

// SenderState is the sender state as published to redis.
type SenderState string

const (
	SenderStateIdle    SenderState = "idle"
	SenderStateDetects SenderState = "detects"
	SenderStateBypass  SenderState = "bypass"
)

// Role selects which node a process runs.
type Role string

const (
	RoleReceiver Role = "receiver"
	RoleSender   Role = "sender"
)
