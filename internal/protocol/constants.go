package protocol

const (
	// Version is the only protocol version both nodes speak.
	Version = 1

	// Packet sizes on air (packed, little-endian)
	//   GateCommand: Version(1) | RollingCode(4) | Command(1)
	//   OtaRequest:  Command(1)
	GateCommandSize = 6
	OtaRequestSize  = 1
)

// Command is the action requested by a gate command packet.
type Command uint8

const (
	CommandPing      Command = 0
	CommandForceOpen Command = 1
)

func (c Command) String() string {
	switch c {
	case CommandPing:
		return "ping"
	case CommandForceOpen:
		return "force-open"
	default:
		return "unknown"
	}
}

// OtaCommandEnter asks the sender to enter OTA mode.
const OtaCommandEnter uint8 = 2
