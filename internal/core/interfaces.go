package core

import (
	"context"

	"gate-service/internal/rollingcode"
	"gate-service/internal/types"

	"github.com/librescoot/librefsm"
)

// MessagingClient defines the redis operations needed by the node systems
type MessagingClient interface {
	rollingcode.Store

	PublishGateState(state types.GateState) error
	PublishSenderState(state types.SenderState) error
	SetOtaMode(enabled bool) error
}

// HardwareIO defines the digital I/O needed by the node systems
type HardwareIO interface {
	ReadDigitalInput(channel string) (bool, error)
	WriteDigitalOutput(channel string, value bool) error
}

// stateMachine is the part of the librefsm machine the systems drive.
type stateMachine interface {
	Start(ctx context.Context) error
	SendSync(event librefsm.Event) error
	CurrentState() librefsm.StateID
}
