package radio

import (
	"bytes"
	"net"
	"sync"

	"gate-service/internal/clock"
)

// Loopback is one end of an in-process link. Frames are delivered synchronously to the peer's
// receive handler; unicast sends that reach the peer are acknowledged to the sending end.
type Loopback struct {
	mu        sync.Mutex
	addr      net.HardwareAddr
	peer      *Loopback
	clock     clock.Clock
	onReceive func(Frame)
	onAck     func()
	rssi      func() uint8
	drop      func(data []byte) bool
	txLog     [][]byte
}

// NewLoopbackPair connects two ends with the given link addresses.
func NewLoopbackPair(a, b net.HardwareAddr, clk clock.Clock) (*Loopback, *Loopback) {
	la := &Loopback{addr: a, clock: clk}
	lb := &Loopback{addr: b, clock: clk}
	la.peer, lb.peer = lb, la
	return la, lb
}

func (l *Loopback) Addr() net.HardwareAddr {
	return l.addr
}

func (l *Loopback) OnReceive(handler func(Frame)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onReceive = handler
}

func (l *Loopback) OnSendAck(handler func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onAck = handler
}

// SetRSSI sets the signal strength the peer observes for frames sent from this end.
func (l *Loopback) SetRSSI(fn func() uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rssi = fn
}

// SetDrop installs a loss filter for frames sent from this end.
func (l *Loopback) SetDrop(fn func(data []byte) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drop = fn
}

func (l *Loopback) Send(dest net.HardwareAddr, data []byte) error {
	frame := make([]byte, len(data))
	copy(frame, data)

	l.mu.Lock()
	l.txLog = append(l.txLog, frame)
	rssi, drop, onAck := l.rssi, l.drop, l.onAck
	l.mu.Unlock()

	broadcast := IsBroadcast(dest)
	if !broadcast && !bytes.Equal(dest, l.peer.addr) {
		return nil
	}
	if drop != nil && drop(frame) {
		return nil
	}

	l.peer.mu.Lock()
	handler := l.peer.onReceive
	l.peer.mu.Unlock()
	if handler != nil {
		var r uint8
		if rssi != nil {
			r = rssi()
		}
		handler(Frame{Data: frame, RSSI: r, Timestamp: l.clock.Now()})
	}

	if !broadcast && onAck != nil {
		onAck()
	}
	return nil
}

// TxLog returns copies of every frame passed to Send.
func (l *Loopback) TxLog() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.txLog))
	for i, f := range l.txLog {
		out[i] = append([]byte(nil), f...)
	}
	return out
}
