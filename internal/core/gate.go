package core

import (
	"context"
	"fmt"

	"gate-service/internal/clock"
	"gate-service/internal/debounce"
	"gate-service/internal/fsm"
	"gate-service/internal/hardware"
	"gate-service/internal/logger"
	"gate-service/internal/protocol"
	"gate-service/internal/proximity"
	"gate-service/internal/radio"
	"gate-service/internal/rollingcode"
	"gate-service/internal/types"

	"github.com/librescoot/librefsm"
)

// RxEvent is a decoded gate command as handed from the radio handler to the main loop.
type RxEvent struct {
	Command     protocol.Command
	RollingCode uint32
	RSSI        uint8
	Timestamp   int64
}

// GateSystem is the receiver: it authenticates commands from the sender, tracks its approach
// and drives the gate actuator.
type GateSystem struct {
	io      HardwareIO
	radio   radio.Transport
	redis   MessagingClient
	clock   clock.Clock
	logger  *logger.Logger
	machine stateMachine

	events    *radio.Queue[RxEvent]
	auth      *rollingcode.Authenticator
	counter   *rollingcode.Counter
	proximity proximity.Estimator

	gateStatus *debounce.Input
	otaButton  *debounce.Input
	senderOta  *debounce.Input

	toggleReference bool
	actuator        bool

	lastAutoOpen int64
	autoOpened   bool
	lastToggle   int64
	toggled      bool
	lastOtaSend  int64
	otaSent      bool

	otaMode          bool
	otaCooldownUntil int64
}

func NewGateSystem(io HardwareIO, transport radio.Transport, client MessagingClient, clk clock.Clock, l *logger.Logger) *GateSystem {
	now := clk.Now()
	return &GateSystem{
		io:         io,
		radio:      transport,
		redis:      client,
		clock:      clk,
		logger:     l,
		events:     radio.NewQueue[RxEvent](radio.QueueCapacity),
		auth:       rollingcode.NewAuthenticator(client, rollingcode.KeyExpected, now, l),
		counter:    rollingcode.NewCounter(client, rollingcode.KeyCounter, now, l),
		gateStatus: debounce.NewInput(hardware.ChannelGateStatus),
		otaButton:  debounce.NewInput(hardware.ChannelOtaButton),
		senderOta:  debounce.NewInput(hardware.ChannelSenderOta),
	}
}

// Start primes the OTA button, starts the state machine and begins accepting radio frames.
func (g *GateSystem) Start(ctx context.Context) error {
	g.logger.Infof("Starting gate system, expected rolling code %d", g.auth.Current())

	if err := g.otaButton.Prime(g.io); err != nil {
		g.logger.Warnf("Failed to prime %s: %v", g.otaButton.Channel, err)
	}
	g.setActuator(false)

	machine, err := fsm.NewGateDefinition(g).Build()
	if err != nil {
		return fmt.Errorf("failed to build gate state machine: %w", err)
	}
	machine.OnStateChange(func(from, to librefsm.StateID) {
		g.logger.Infof("State transition: %s -> %s", from, to)
		if err := g.redis.PublishGateState(types.GateState(to)); err != nil {
			g.logger.Errorf("Failed to publish state: %v", err)
		}
	})
	if err := machine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start gate state machine: %w", err)
	}
	g.machine = machine

	if err := g.redis.PublishGateState(types.GateStateIdle); err != nil {
		g.logger.Warnf("Failed to publish initial state: %v", err)
	}

	g.radio.OnReceive(g.handleFrame)
	return nil
}

// handleFrame runs on the radio goroutine. It only decodes and enqueues.
func (g *GateSystem) handleFrame(f radio.Frame) {
	pkt, err := protocol.DecodeGateCommand(f.Data)
	if err != nil {
		g.logger.Debugf("Dropping frame: %v", err)
		return
	}
	ev := RxEvent{
		Command:     pkt.Command,
		RollingCode: pkt.RollingCode,
		RSSI:        f.RSSI,
		Timestamp:   f.Timestamp,
	}
	if !g.events.TryPush(ev) {
		g.logger.Debugf("Receive queue full, dropping %s %d", pkt.Command, pkt.RollingCode)
	}
}

// Run ticks the main loop until ctx is cancelled, then saves the counters and releases the gate.
func (g *GateSystem) Run(ctx context.Context) error {
	for {
		g.Tick()
		if err := g.clock.Sleep(ctx, fsm.TickInterval); err != nil {
			g.shutdown()
			return nil
		}
	}
}

// Tick runs one iteration of the main loop.
func (g *GateSystem) Tick() {
	now := g.clock.Now()

	g.pollInputs()
	g.handleOtaButton(now)

	if ev, ok := g.events.TryPop(); ok {
		g.processEvent(ev)
	}

	if g.senderOta.High() {
		if g.state() != fsm.StateGateSenderOta {
			g.sendEvent(fsm.EvSenderOtaStart)
		}
	} else if g.state() == fsm.StateGateSenderOta {
		g.sendEvent(fsm.EvSenderOtaStop)
	}

	g.runState(now)

	g.auth.PeriodicSave(now, fsm.ReceiverSaveInterval)
	g.counter.PeriodicSave(now, fsm.ReceiverSaveInterval)
}

func (g *GateSystem) pollInputs() {
	for _, in := range []*debounce.Input{g.gateStatus, g.otaButton, g.senderOta} {
		if err := in.Poll(g.io); err != nil {
			g.logger.Warnf("Failed to read %s: %v", in.Channel, err)
		}
	}
}

// handleOtaButton toggles local OTA mode while the button is held, at most once per cooldown.
func (g *GateSystem) handleOtaButton(now int64) {
	if !g.otaButton.High() || now < g.otaCooldownUntil {
		return
	}
	g.otaMode = !g.otaMode
	if g.otaMode {
		g.logger.Infof("OTA button pressed, entering OTA update mode")
	} else {
		g.logger.Infof("OTA button pressed, exiting OTA update mode")
	}
	if err := g.redis.SetOtaMode(g.otaMode); err != nil {
		g.logger.Warnf("Failed to set OTA mode: %v", err)
	}
	g.otaCooldownUntil = now + fsm.LocalOtaCooldown.Microseconds()
}

func (g *GateSystem) processEvent(ev RxEvent) {
	if !g.auth.Authenticate(ev.RollingCode) {
		g.logger.Debugf("Rejected rolling code %d (current %d)", ev.RollingCode, g.auth.Current())
		return
	}

	switch ev.Command {
	case protocol.CommandForceOpen:
		switch g.state() {
		case fsm.StateGateIdle, fsm.StateGateOpen:
			g.sendEvent(fsm.EvForceOpen)
		}

	case protocol.CommandPing:
		g.proximity.Observe(ev.RSSI, ev.Timestamp)
		if !g.proximity.Ready() || g.state() != fsm.StateGateIdle {
			return
		}
		if g.proximity.IsGettingCloser(g.clock.Now()) {
			g.sendEvent(fsm.EvApproach)
		}
	}
}

// runState performs the work of the current state for one tick.
func (g *GateSystem) runState(now int64) {
	switch g.state() {
	case fsm.StateGateIdle:

	case fsm.StateGateOpen:
		if g.gateStatus.High() {
			g.setActuator(true)
			return
		}
		g.lastAutoOpen, g.autoOpened = now, true
		g.sendEvent(fsm.EvGateReleased)

	case fsm.StateGateToggle:
		if g.toggled && now-g.lastToggle < fsm.ToggleCooldown.Microseconds() {
			g.logger.Debugf("Toggle within cooldown, ignoring")
			g.sendEvent(fsm.EvGateReleased)
			return
		}
		if g.gateStatus.High() == g.toggleReference {
			g.setActuator(true)
			return
		}
		g.lastToggle, g.toggled = now, true
		g.sendEvent(fsm.EvGateReleased)

	case fsm.StateGateSenderOta:
		if g.otaSent && now-g.lastOtaSend < fsm.SenderOtaSendInterval.Microseconds() {
			return
		}
		g.counter.Next()
		data := protocol.EncodeOtaRequest(protocol.OtaRequest{Command: protocol.OtaCommandEnter})
		if err := g.radio.Send(radio.Broadcast, data); err != nil {
			g.logger.Warnf("Failed to broadcast sender OTA request: %v", err)
		}
		g.lastOtaSend, g.otaSent = now, true
	}
}

func (g *GateSystem) setActuator(on bool) {
	if err := g.io.WriteDigitalOutput(hardware.ChannelGateCmd, on); err != nil {
		g.logger.Warnf("Failed to drive %s=%v: %v", hardware.ChannelGateCmd, on, err)
		return
	}
	if g.actuator != on {
		g.logger.Debugf("Actuator %v", on)
	}
	g.actuator = on
}

func (g *GateSystem) shutdown() {
	now := g.clock.Now()
	g.logger.Infof("Shutting down gate system")
	if err := g.auth.Save(now); err != nil {
		g.logger.Warnf("Failed to save expected rolling code: %v", err)
	}
	if err := g.counter.Save(now); err != nil {
		g.logger.Warnf("Failed to save rolling code: %v", err)
	}
	g.setActuator(false)
}

func (g *GateSystem) state() librefsm.StateID {
	return g.machine.CurrentState()
}

// sendEvent sends an event to the FSM
func (g *GateSystem) sendEvent(event librefsm.EventID) {
	if err := g.machine.SendSync(librefsm.Event{ID: event}); err != nil {
		g.logger.Debugf("Event %s not handled in %s: %v", event, g.state(), err)
	}
}

// State returns the current gate state.
func (g *GateSystem) State() types.GateState {
	return types.GateState(g.state())
}
