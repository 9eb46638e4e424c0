package messaging

import (
	"sync"

	"gate-service/internal/types"
)

// MemoryClient keeps the namespace and published state in process. It stands in for redis
// in the simulator.
type MemoryClient struct {
	mu       sync.Mutex
	values   map[string]uint32
	pending  map[string]uint32
	commits  int
	gate     []types.GateState
	sender   []types.SenderState
	otaModes []bool
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		values:  make(map[string]uint32),
		pending: make(map[string]uint32),
	}
}

func (m *MemoryClient) GetUint32(key string) (uint32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryClient) SetUint32(key string, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[key] = value
	return nil
}

func (m *MemoryClient) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.pending {
		m.values[k] = v
	}
	m.pending = make(map[string]uint32)
	m.commits++
	return nil
}

func (m *MemoryClient) PublishGateState(state types.GateState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = append(m.gate, state)
	return nil
}

func (m *MemoryClient) PublishSenderState(state types.SenderState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sender = append(m.sender, state)
	return nil
}

func (m *MemoryClient) SetOtaMode(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otaModes = append(m.otaModes, enabled)
	return nil
}

// Value returns the committed value of key.
func (m *MemoryClient) Value(key string) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Commits returns how many times Commit was called.
func (m *MemoryClient) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// GateStates returns every published gate state in order.
func (m *MemoryClient) GateStates() []types.GateState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.GateState(nil), m.gate...)
}

// SenderStates returns every published sender state in order.
func (m *MemoryClient) SenderStates() []types.SenderState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.SenderState(nil), m.sender...)
}

// OtaModes returns every OTA mode change in order.
func (m *MemoryClient) OtaModes() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.otaModes...)
}
