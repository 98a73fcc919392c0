package session

import (
	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
)

// AddTrigger registers a trigger callback for an intent name. Registrations
// accumulate for the session's lifetime; there is no removal path.
func (s *Session) AddTrigger(reg entities.TriggerRegistration) {
	s.triggerMu.Lock()
	defer s.triggerMu.Unlock()
	s.triggers = append(s.triggers, reg)
	s.logger.Debug("Trigger registered",
		zap.String("intent", reg.Intent), zap.String("speaker", reg.Speaker))
}
