package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/domain/repositories"
	"github.com/lvthome/lvtbridge/internal/protocol"
)

// dispatch routes one decoded inbound envelope. A non-nil return closes the
// transport and re-enters the connect cycle; everything else is handled with
// the drop-and-log policy.
func (s *Session) dispatch(ctx context.Context, in protocol.Inbound) error {
	switch in.Message {
	case protocol.MsgAuthorize:
		if in.StatusCode != 0 {
			s.logger.Error("Authentication failure: invalid password",
				zap.Int("status_code", in.StatusCode), zap.String("status", in.Status))
			return errAuthRejected
		}
		s.logger.Debug("Authorized")
		s.setAuthorized()
		s.sendIntents()

	case protocol.MsgServerStatus:
		var payload struct {
			Terminals map[string]map[string]any `json:"Terminals"`
		}
		if err := in.DecodePayload(&payload); err != nil || payload.Terminals == nil {
			s.logger.Error("Malformed ServerStatus payload", zap.Error(err))
			return nil
		}
		for _, info := range payload.Terminals {
			s.registry.Upsert(ctx, info)
		}
		// roster is authoritative: anything it no longer names is gone
		for _, id := range s.registry.IDs() {
			if _, present := payload.Terminals[id]; !present {
				s.registry.Delete(ctx, id)
			}
		}

	case protocol.MsgStatus:
		var payload map[string]map[string]any
		if err := in.DecodePayload(&payload); err != nil {
			s.logger.Error("Malformed Status payload", zap.Error(err))
			return nil
		}
		for _, info := range payload {
			s.registry.Upsert(ctx, info)
		}

	case protocol.MsgFireIntent:
		s.handleFireIntent(ctx, in)

	case protocol.MsgError:
		s.logger.Error("LVT server error",
			zap.Int("status_code", in.StatusCode), zap.String("status", in.Status))
	}
	return nil
}

func (s *Session) handleFireIntent(ctx context.Context, in protocol.Inbound) {
	var payload struct {
		Intent     string         `json:"Intent"`
		Data       map[string]any `json:"Data"`
		Importance *int           `json:"Importance"`
		Terminal   string         `json:"Terminal"`
	}
	if err := in.DecodePayload(&payload); err != nil {
		s.logger.Error("Malformed FireIntent payload", zap.Error(err))
		return
	}
	if payload.Intent == "" {
		s.logger.Error("FireIntent: intent not specified")
		return
	}

	importance := 1
	if payload.Importance != nil {
		importance = *payload.Importance
	}
	data := payload.Data
	if data == nil {
		data = map[string]any{}
	}
	data["intent"] = payload.Intent

	fired := entities.FiredIntent{
		Intent:     payload.Intent,
		Data:       data,
		Importance: importance,
		Terminal:   payload.Terminal,
	}

	if s.intentHandler != nil {
		slots := make(map[string]repositories.Slot, len(data))
		for key, value := range data {
			slots[key] = repositories.Slot{Value: value}
		}

		response, err := s.intentHandler.Handle(ctx, "lvt", payload.Intent, slots)
		switch {
		case err == nil:
			if response != nil && response.Speech != "" {
				s.Send(protocol.MsgSay, map[string]any{
					"Say":        response.Speech,
					"Importance": importance,
					"Terminals":  []string{payload.Terminal},
				})
			}
		case errors.Is(err, repositories.ErrUnknownIntent):
			s.logger.Warn("Received unknown intent", zap.String("intent", payload.Intent))
		case errors.Is(err, repositories.ErrInvalidSlots):
			s.logger.Error("Received invalid slot data for intent",
				zap.String("intent", payload.Intent), zap.Error(err))
		default:
			s.logger.Error("Error handling intent request",
				zap.String("intent", payload.Intent), zap.Error(err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, fired); err != nil {
			s.logger.Warn("Error publishing intent event",
				zap.String("intent", fired.Intent), zap.Error(err))
		}
	}

	s.fireTriggers(fired)
}

// fireTriggers invokes every registration whose intent name matches
// case-insensitively. Callback failures are the caller's responsibility.
func (s *Session) fireTriggers(fired entities.FiredIntent) {
	s.triggerMu.Lock()
	regs := append([]entities.TriggerRegistration(nil), s.triggers...)
	s.triggerMu.Unlock()

	description := fmt.Sprintf("Intent %q fired by %q", fired.Intent, fired.Terminal)
	for _, reg := range regs {
		if !strings.EqualFold(reg.Intent, fired.Intent) {
			continue
		}
		if reg.Speaker != "" && !strings.EqualFold(reg.Speaker, fired.Terminal) {
			continue
		}
		reg.Action(entities.TriggerEvent{
			Intent:      fired.Intent,
			Data:        fired.Data,
			Description: description,
			Context:     reg.Context,
		})
	}
}
