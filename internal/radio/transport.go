// Package radio carries raw packets between the sender and the receiver.
package radio

import "net"

// Broadcast is the all-nodes link address.
var Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Frame is one received packet together with its link metadata.
type Frame struct {
	Data      []byte
	RSSI      uint8
	Timestamp int64 // µs, stamped on arrival
}

// Transport is the link used by both nodes. Receive and ack handlers may run on a different
// goroutine than the caller of Send and must not block.
type Transport interface {
	Send(dest net.HardwareAddr, data []byte) error
	OnReceive(handler func(Frame))
	OnSendAck(handler func())
}

// IsBroadcast reports whether addr is the broadcast address.
func IsBroadcast(addr net.HardwareAddr) bool {
	return addr.String() == Broadcast.String()
}
