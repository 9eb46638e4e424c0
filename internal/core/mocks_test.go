package core

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"gate-service/internal/logger"
	"gate-service/internal/protocol"
	"gate-service/internal/radio"
	"gate-service/internal/types"
)

// Mock MessagingClient
type mockMessagingClient struct {
	mu sync.Mutex

	values  map[string]uint32
	pending map[string]uint32
	commits int
	getErr  error

	gateStates   []types.GateState
	senderStates []types.SenderState
	otaModes     []bool
	onOtaMode    func(enabled bool)
}

func newMockMessagingClient() *mockMessagingClient {
	return &mockMessagingClient{
		values:  make(map[string]uint32),
		pending: make(map[string]uint32),
	}
}

func (m *mockMessagingClient) GetUint32(key string) (uint32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockMessagingClient) SetUint32(key string, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[key] = value
	return nil
}

func (m *mockMessagingClient) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.pending {
		m.values[k] = v
	}
	m.pending = make(map[string]uint32)
	m.commits++
	return nil
}

func (m *mockMessagingClient) PublishGateState(state types.GateState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateStates = append(m.gateStates, state)
	return nil
}

func (m *mockMessagingClient) PublishSenderState(state types.SenderState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senderStates = append(m.senderStates, state)
	return nil
}

func (m *mockMessagingClient) SetOtaMode(enabled bool) error {
	m.mu.Lock()
	m.otaModes = append(m.otaModes, enabled)
	cb := m.onOtaMode
	m.mu.Unlock()
	if cb != nil {
		cb(enabled)
	}
	return nil
}

func (m *mockMessagingClient) value(key string) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *mockMessagingClient) otaModeChanges() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.otaModes...)
}

func (m *mockMessagingClient) publishedGateStates() []types.GateState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.GateState(nil), m.gateStates...)
}

func (m *mockMessagingClient) publishedSenderStates() []types.SenderState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.SenderState(nil), m.senderStates...)
}

// Mock HardwareIO
type mockHardwareIO struct {
	mu             sync.Mutex
	digitalInputs  map[string]bool
	digitalOutputs map[string]bool
	highWrites     map[string]int
	readErr        error
}

func newMockHardwareIO() *mockHardwareIO {
	return &mockHardwareIO{
		digitalInputs:  make(map[string]bool),
		digitalOutputs: make(map[string]bool),
		highWrites:     make(map[string]int),
	}
}

func (m *mockHardwareIO) ReadDigitalInput(channel string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return false, m.readErr
	}
	return m.digitalInputs[channel], nil
}

func (m *mockHardwareIO) WriteDigitalOutput(channel string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digitalOutputs[channel] = value
	if value {
		m.highWrites[channel]++
	}
	return nil
}

func (m *mockHardwareIO) setInput(channel string, value bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digitalInputs[channel] = value
}

func (m *mockHardwareIO) output(channel string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.digitalOutputs[channel]
}

func (m *mockHardwareIO) highWriteCount(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highWrites[channel]
}

// Mock Transport
type sentFrame struct {
	dest net.HardwareAddr
	data []byte
}

type mockTransport struct {
	mu        sync.Mutex
	sent      []sentFrame
	onReceive func(radio.Frame)
	onAck     func()
	ackSends  bool
	sendErr   error
}

func (m *mockTransport) Send(dest net.HardwareAddr, data []byte) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentFrame{dest: dest, data: append([]byte(nil), data...)})
	ack, onAck, err := m.ackSends, m.onAck, m.sendErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if ack && onAck != nil {
		onAck()
	}
	return nil
}

func (m *mockTransport) OnReceive(handler func(radio.Frame)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReceive = handler
}

func (m *mockTransport) OnSendAck(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAck = handler
}

func (m *mockTransport) setAck(ack bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ackSends = ack
}

// deliver simulates a frame arriving from the air.
func (m *mockTransport) deliver(f radio.Frame) {
	m.mu.Lock()
	handler := m.onReceive
	m.mu.Unlock()
	if handler != nil {
		handler(f)
	}
}

func (m *mockTransport) sentFrames() []sentFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentFrame(nil), m.sent...)
}

var errMockRead = errors.New("line not available")

var testReceiverAddr = net.HardwareAddr{0x3c, 0x8a, 0x1f, 0x0b, 0xe3, 0xd8}

func testLogger() *logger.Logger {
	return logger.NewLogger(nil, logger.LogLevelError)
}

func gateCommand(code uint32, cmd protocol.Command) []byte {
	return protocol.EncodeGateCommand(protocol.NewGateCommand(code, cmd))
}

// waitFor polls cond for up to a second; state-change callbacks may run on the machine goroutine.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func startContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
