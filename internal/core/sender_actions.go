package core

import (
	"github.com/librescoot/librefsm"

	"gate-service/internal/fsm"
)

// Ensure SenderSystem implements fsm.SenderActions
var _ fsm.SenderActions = (*SenderSystem)(nil)

func (s *SenderSystem) EnterBypass(c *librefsm.Context) error {
	s.logger.Infof("Bypass active, forcing gate open")
	return nil
}

func (s *SenderSystem) ExitBypass(c *librefsm.Context) error {
	if s.bypass.High() {
		s.logger.Warnf("Bypass held longer than %s, ignoring it until released", fsm.BypassTimeout)
	} else {
		s.logger.Infof("Bypass released")
	}
	return nil
}

func (s *SenderSystem) BypassWithinTimeout(c *librefsm.Context) bool {
	return s.bypassActive(s.clock.Now())
}
