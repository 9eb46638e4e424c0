package protocol

import (
	"encoding/binary"
	"fmt"
)

// GateCommand is sent by the sender on every transmit tick.
type GateCommand struct {
	Version     uint8
	RollingCode uint32
	Command     Command
}

// NewGateCommand builds a packet for the current protocol version.
func NewGateCommand(code uint32, cmd Command) GateCommand {
	return GateCommand{Version: Version, RollingCode: code, Command: cmd}
}

func EncodeGateCommand(p GateCommand) []byte {
	data := make([]byte, GateCommandSize)
	data[0] = p.Version
	binary.LittleEndian.PutUint32(data[1:5], p.RollingCode)
	data[5] = byte(p.Command)
	return data
}

// DecodeGateCommand validates length and version. Unknown commands are rejected as well.
func DecodeGateCommand(data []byte) (GateCommand, error) {
	if len(data) != GateCommandSize {
		return GateCommand{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(data), GateCommandSize)
	}
	if data[0] != Version {
		return GateCommand{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[0])
	}
	p := GateCommand{
		Version:     data[0],
		RollingCode: binary.LittleEndian.Uint32(data[1:5]),
		Command:     Command(data[5]),
	}
	if p.Command != CommandPing && p.Command != CommandForceOpen {
		return GateCommand{}, fmt.Errorf("%w: %d", ErrUnknownCommand, data[5])
	}
	return p, nil
}

// OtaRequest is broadcast by the receiver while its sender-OTA input is held.
type OtaRequest struct {
	Command uint8
}

func EncodeOtaRequest(p OtaRequest) []byte {
	return []byte{p.Command}
}

func DecodeOtaRequest(data []byte) (OtaRequest, error) {
	if len(data) != OtaRequestSize {
		return OtaRequest{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(data), OtaRequestSize)
	}
	return OtaRequest{Command: data[0]}, nil
}
