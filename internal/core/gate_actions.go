package core

import (
	"github.com/librescoot/librefsm"

	"gate-service/internal/fsm"
)

// Ensure GateSystem implements fsm.GateActions
var _ fsm.GateActions = (*GateSystem)(nil)

// EnterToggle captures the gate status the toggle has to move away from.
func (g *GateSystem) EnterToggle(c *librefsm.Context) error {
	g.toggleReference = g.gateStatus.High()
	g.logger.Infof("Toggling gate, status reference %v", g.toggleReference)
	return nil
}

func (g *GateSystem) ReleaseActuator(c *librefsm.Context) error {
	g.setActuator(false)
	return nil
}

func (g *GateSystem) AutoOpenCooldownElapsed(c *librefsm.Context) bool {
	if !g.autoOpened {
		return true
	}
	return g.clock.Now()-g.lastAutoOpen >= fsm.AutoOpenCooldown.Microseconds()
}
