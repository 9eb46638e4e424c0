package hardware

import (
	"fmt"
	"sync"
)

// MemoryIO is an in-process stand-in for the GPIO lines, used by the simulator.
type MemoryIO struct {
	mu      sync.RWMutex
	inputs  map[string]bool
	outputs map[string]bool
	writes  map[string]int
}

// NewMemoryIO creates lines for every channel in mappings, all starting low.
func NewMemoryIO(mappings map[string]PinMapping) *MemoryIO {
	m := &MemoryIO{
		inputs:  make(map[string]bool),
		outputs: make(map[string]bool),
		writes:  make(map[string]int),
	}
	for name, mapping := range mappings {
		if mapping.Output {
			m.outputs[name] = false
		} else {
			m.inputs[name] = false
		}
	}
	return m
}

func (m *MemoryIO) ReadDigitalInput(channel string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.inputs[channel]
	if !ok {
		return false, fmt.Errorf("unknown input channel: %s", channel)
	}
	return v, nil
}

func (m *MemoryIO) WriteDigitalOutput(channel string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.outputs[channel]; !ok {
		return fmt.Errorf("unknown digital output channel: %s", channel)
	}
	m.outputs[channel] = value
	m.writes[channel]++
	return nil
}

// SetInput changes the level seen on an input line.
func (m *MemoryIO) SetInput(channel string, value bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[channel] = value
}

// Output returns the last level written to an output line.
func (m *MemoryIO) Output(channel string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outputs[channel]
}

// Writes returns how many times an output was written.
func (m *MemoryIO) Writes(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[channel]
}
