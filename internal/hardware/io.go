package hardware

import (
	"fmt"
	"sync"

	"gate-service/internal/logger"

	"github.com/warthog618/go-gpiocdev"
)

// LinuxHardwareIO drives named lines through the GPIO character device. Values are logical:
// active-low lines are inverted by the kernel.
type LinuxHardwareIO struct {
	logger        *logger.Logger
	mappings      map[string]PinMapping
	chips         map[int]*gpiocdev.Chip
	lines         map[string]*gpiocdev.Line
	initialValues map[string]bool // Initial values for outputs
	mu            sync.RWMutex
}

func NewLinuxHardwareIO(mappings map[string]PinMapping, l *logger.Logger) *LinuxHardwareIO {
	return &LinuxHardwareIO{
		logger:        l,
		mappings:      mappings,
		chips:         make(map[int]*gpiocdev.Chip),
		lines:         make(map[string]*gpiocdev.Line),
		initialValues: make(map[string]bool),
	}
}

func (io *LinuxHardwareIO) SetInitialValue(name string, value bool) {
	io.mu.Lock()
	defer io.mu.Unlock()
	io.initialValues[name] = value
}

func (io *LinuxHardwareIO) Initialize() error {
	io.logger.Infof("Initializing hardware IO")

	for name, mapping := range io.mappings {
		chip, ok := io.chips[mapping.Chip]
		if !ok {
			var err error
			chip, err = gpiocdev.NewChip(fmt.Sprintf("gpiochip%d", mapping.Chip), gpiocdev.WithConsumer(Consumer))
			if err != nil {
				return fmt.Errorf("failed to open GPIO chip %d: %w", mapping.Chip, err)
			}
			io.chips[mapping.Chip] = chip
		}

		opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(Consumer)}
		if mapping.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		if mapping.Output {
			io.mu.RLock()
			val := 0
			if value, exists := io.initialValues[name]; exists && value {
				val = 1
			}
			io.mu.RUnlock()
			opts = append(opts, gpiocdev.AsOutput(val))
		} else {
			opts = append(opts, gpiocdev.AsInput)
			if mapping.PullUp {
				opts = append(opts, gpiocdev.WithPullUp)
			}
		}

		line, err := chip.RequestLine(mapping.Line, opts...)
		if err != nil {
			return fmt.Errorf("failed to request GPIO line %d for %s: %w", mapping.Line, name, err)
		}

		io.mu.Lock()
		io.lines[name] = line
		io.mu.Unlock()
		io.logger.Infof("Configured %s: chip=%d, line=%d, output=%v, active_low=%v",
			name, mapping.Chip, mapping.Line, mapping.Output, mapping.ActiveLow)
	}

	return nil
}

func (io *LinuxHardwareIO) ReadDigitalInput(channel string) (bool, error) {
	io.mu.RLock()
	line, ok := io.lines[channel]
	io.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("unknown input channel: %s", channel)
	}

	val, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", channel, err)
	}
	return val != 0, nil
}

func (io *LinuxHardwareIO) WriteDigitalOutput(channel string, value bool) error {
	io.mu.RLock()
	line, ok := io.lines[channel]
	mapping := io.mappings[channel]
	io.mu.RUnlock()

	if !ok || !mapping.Output {
		return fmt.Errorf("unknown digital output channel: %s", channel)
	}

	val := 0
	if value {
		val = 1
	}

	if err := line.SetValue(val); err != nil {
		return fmt.Errorf("failed to set %s=%v: %w", channel, value, err)
	}

	io.logger.Debugf("Set %s=%v", channel, value)
	return nil
}

func (io *LinuxHardwareIO) Cleanup() {
	io.mu.Lock()
	defer io.mu.Unlock()

	io.logger.Infof("Cleaning up hardware resources")

	for name, line := range io.lines {
		line.Close()
		io.logger.Debugf("Closed GPIO line for %s", name)
	}
	io.lines = make(map[string]*gpiocdev.Line)

	for id, chip := range io.chips {
		chip.Close()
		io.logger.Debugf("Closed GPIO chip %d", id)
	}
	io.chips = make(map[int]*gpiocdev.Chip)

	io.logger.Infof("Hardware cleanup complete")
}
