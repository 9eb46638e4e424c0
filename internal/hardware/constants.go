package hardware

// Channel names shared by configuration, hardware and the node systems.
const (
	ChannelGateCmd    = "gate_cmd"    // receiver output, drives the gate actuator
	ChannelGateStatus = "gate_status" // receiver input
	ChannelOtaButton  = "ota_button"  // receiver input, local OTA mode toggle
	ChannelSenderOta  = "sender_ota"  // receiver input, held to put the sender in OTA mode
	ChannelBypass     = "bypass"      // sender input, forces the gate open

	Consumer = "gate-service"
)

type PinMapping struct {
	Chip      int
	Line      int
	Output    bool
	PullUp    bool
	ActiveLow bool
}

var ReceiverMappings = map[string]PinMapping{
	ChannelGateCmd:    {Chip: 0, Line: 2, Output: true},
	ChannelGateStatus: {Chip: 0, Line: 4, PullUp: true},
	ChannelOtaButton:  {Chip: 0, Line: 0, PullUp: true, ActiveLow: true},
	ChannelSenderOta:  {Chip: 0, Line: 15, PullUp: true, ActiveLow: true},
}

var SenderMappings = map[string]PinMapping{
	ChannelBypass: {Chip: 0, Line: 4, PullUp: true, ActiveLow: true},
}
