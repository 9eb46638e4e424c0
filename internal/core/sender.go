package core

import (
	"context"
	"fmt"
	"net"
	"time"

	"gate-service/internal/clock"
	"gate-service/internal/debounce"
	"gate-service/internal/fsm"
	"gate-service/internal/hardware"
	"gate-service/internal/logger"
	"gate-service/internal/protocol"
	"gate-service/internal/radio"
	"gate-service/internal/rollingcode"
	"gate-service/internal/types"

	"github.com/librescoot/librefsm"
	"go.uber.org/atomic"
)

// SenderSystem is the hand-held node: it pings the receiver at a state-dependent rate and
// forces the gate open while the bypass input is held.
type SenderSystem struct {
	io      HardwareIO
	radio   radio.Transport
	redis   MessagingClient
	clock   clock.Clock
	logger  *logger.Logger
	machine stateMachine
	peer    net.HardwareAddr

	counter *rollingcode.Counter
	bypass  *debounce.Input

	linkAck    atomic.Bool
	otaTrigger OtaRequestTrigger

	lastInactive int64
	lastAck      int64
}

func NewSenderSystem(io HardwareIO, transport radio.Transport, client MessagingClient, peer net.HardwareAddr, clk clock.Clock, l *logger.Logger) *SenderSystem {
	return &SenderSystem{
		io:      io,
		radio:   transport,
		redis:   client,
		clock:   clk,
		logger:  l,
		peer:    peer,
		counter: rollingcode.NewCounter(client, rollingcode.KeyCounter, clk.Now(), l),
		bypass:  debounce.NewInput(hardware.ChannelBypass),
	}
}

func (s *SenderSystem) Start(ctx context.Context) error {
	s.logger.Infof("Starting sender system, rolling code %d, peer %s", s.counter.Current(), s.peer)

	if err := s.bypass.Prime(s.io); err != nil {
		s.logger.Warnf("Failed to prime %s: %v", s.bypass.Channel, err)
	}
	s.lastInactive = s.clock.Now()

	machine, err := fsm.NewSenderDefinition(s).Build()
	if err != nil {
		return fmt.Errorf("failed to build sender state machine: %w", err)
	}
	machine.OnStateChange(func(from, to librefsm.StateID) {
		s.logger.Infof("State transition: %s -> %s", from, to)
		if err := s.redis.PublishSenderState(types.SenderState(to)); err != nil {
			s.logger.Errorf("Failed to publish state: %v", err)
		}
	})
	if err := machine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sender state machine: %w", err)
	}
	s.machine = machine

	if err := s.redis.PublishSenderState(types.SenderStateIdle); err != nil {
		s.logger.Warnf("Failed to publish initial state: %v", err)
	}

	s.radio.OnSendAck(func() { s.linkAck.Store(true) })
	s.radio.OnReceive(s.handleFrame)
	return nil
}

// handleFrame runs on the radio goroutine.
func (s *SenderSystem) handleFrame(f radio.Frame) {
	req, err := protocol.DecodeOtaRequest(f.Data)
	if err != nil {
		s.logger.Debugf("Dropping frame: %v", err)
		return
	}
	if req.Command != protocol.OtaCommandEnter {
		s.logger.Debugf("Ignoring receiver command %d", req.Command)
		return
	}
	if s.otaTrigger.Observe(f.Timestamp) {
		s.logger.Infof("Received sender OTA request")
	}
}

// Run transmits until ctx is cancelled. A completed OTA request suspends transmission for
// SenderOtaDuration while the updater runs.
func (s *SenderSystem) Run(ctx context.Context) error {
	for {
		if s.otaTrigger.Take() {
			if err := s.runOta(ctx); err != nil {
				break
			}
			continue
		}
		if err := s.Tick(ctx); err != nil {
			break
		}
	}
	s.shutdown()
	return nil
}

func (s *SenderSystem) runOta(ctx context.Context) error {
	s.logger.Infof("Entering OTA update mode")
	if err := s.redis.SetOtaMode(true); err != nil {
		s.logger.Warnf("Failed to enter OTA mode: %v", err)
	}

	err := s.clock.Sleep(ctx, fsm.SenderOtaDuration)

	s.logger.Infof("Exiting OTA update mode")
	if err := s.redis.SetOtaMode(false); err != nil {
		s.logger.Warnf("Failed to exit OTA mode: %v", err)
	}
	return err
}

// Tick runs one transmit cycle: update the state, send one packet, wait out the state interval.
func (s *SenderSystem) Tick(ctx context.Context) error {
	now := s.clock.Now()
	s.pollBypass(now)

	if s.linkAck.Swap(false) {
		s.lastAck = now
		if s.state() == fsm.StateSenderIdle {
			s.sendEvent(fsm.EvLinkDetected)
		}
	}
	if s.state() == fsm.StateSenderDetects && now-s.lastAck > fsm.LinkLostTimeout.Microseconds() {
		s.sendEvent(fsm.EvLinkLost)
	}

	if s.bypassActive(now) {
		if s.state() != fsm.StateSenderBypass {
			s.sendEvent(fsm.EvBypassPressed)
		}
	} else if s.state() == fsm.StateSenderBypass {
		s.sendEvent(fsm.EvBypassReleased)
	}

	s.counter.PeriodicSave(now, fsm.SenderSaveInterval)

	state := s.state()
	cmd := protocol.CommandPing
	if state == fsm.StateSenderBypass {
		cmd = protocol.CommandForceOpen
	}
	code := s.counter.Next()
	if err := s.radio.Send(s.peer, protocol.EncodeGateCommand(protocol.NewGateCommand(code, cmd))); err != nil {
		s.logger.Warnf("Failed to send %s %d: %v", cmd, code, err)
	}

	return s.wait(ctx, interval(state))
}

func interval(state librefsm.StateID) time.Duration {
	if state == fsm.StateSenderIdle {
		return fsm.IdlePingInterval
	}
	return fsm.ActivePingInterval
}

// wait sleeps for d in TickInterval steps, sampling the bypass input at every step.
func (s *SenderSystem) wait(ctx context.Context, d time.Duration) error {
	deadline := s.clock.Now() + d.Microseconds()
	for {
		remaining := time.Duration(deadline-s.clock.Now()) * time.Microsecond
		if remaining <= 0 {
			return nil
		}
		if err := s.clock.Sleep(ctx, min(fsm.TickInterval, remaining)); err != nil {
			return err
		}
		s.pollBypass(s.clock.Now())
	}
}

func (s *SenderSystem) pollBypass(now int64) {
	if err := s.bypass.Poll(s.io); err != nil {
		s.logger.Warnf("Failed to read %s: %v", s.bypass.Channel, err)
	}
	if !s.bypass.High() {
		s.lastInactive = now
	}
}

// bypassActive is true while the bypass input is held, up to BypassTimeout. A longer hold is
// treated as a stuck input.
func (s *SenderSystem) bypassActive(now int64) bool {
	return s.bypass.High() && now-s.lastInactive < fsm.BypassTimeout.Microseconds()
}

func (s *SenderSystem) shutdown() {
	s.logger.Infof("Shutting down sender system")
	if err := s.counter.Save(s.clock.Now()); err != nil {
		s.logger.Warnf("Failed to save rolling code: %v", err)
	}
}

func (s *SenderSystem) state() librefsm.StateID {
	return s.machine.CurrentState()
}

func (s *SenderSystem) sendEvent(event librefsm.EventID) {
	if err := s.machine.SendSync(librefsm.Event{ID: event}); err != nil {
		s.logger.Debugf("Event %s not handled in %s: %v", event, s.state(), err)
	}
}

// State returns the current sender state.
func (s *SenderSystem) State() types.SenderState {
	return types.SenderState(s.state())
}
