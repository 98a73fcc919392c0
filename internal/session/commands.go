package session

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/internal/protocol"
)

// ServiceCall is the loosely typed field bag every command builder accepts.
type ServiceCall map[string]any

func (c ServiceCall) get(key string) any {
	return c[key]
}

func (c ServiceCall) str(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (c ServiceCall) flag(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// importance reads the call importance, accepting colon-suffixed strings
// and clamping to the valid range.
func (c ServiceCall) importance() int {
	return entities.ParseLevel(c["importance"], entities.MaxImportance)
}

// callSpeakers resolves the target speaker ids for a call: online speakers
// with nonzero volume whose filter admits the call importance.
func (s *Session) callSpeakers(ctx context.Context, call ServiceCall) []string {
	importance := call.importance()
	var ids []string
	for _, sp := range s.registry.Parse(ctx, call.get("speaker"), true) {
		if importance >= sp.Filter() {
			ids = append(ids, sp.ID())
		}
	}
	return ids
}

// Play asks the target speakers to play a named sound.
func (s *Session) Play(ctx context.Context, call ServiceCall) {
	if !s.Online() {
		return
	}
	sound := call.str("play")
	importance := call.importance()
	speakers := s.callSpeakers(ctx, call)

	if sound == "" {
		s.logger.Error("lvt.play: <play> parameter is empty")
		return
	}
	if len(speakers) == 0 {
		s.logger.Info("lvt.play: no suitable speakers found")
		return
	}

	s.SynchronizeSpeakers()
	s.Send(protocol.MsgPlay, map[string]any{
		"Sound":      sound,
		"Importance": importance,
		"Terminals":  speakers,
	})
}

// Say speaks a text message on the target speakers.
func (s *Session) Say(ctx context.Context, call ServiceCall) {
	if !s.Online() {
		return
	}
	text := call.str("say")
	importance := call.importance()
	speakers := s.callSpeakers(ctx, call)

	if text == "" {
		s.logger.Error("lvt.say: <say> parameter is empty")
		return
	}
	if len(speakers) == 0 {
		s.logger.Info("lvt.say: no suitable speakers found")
		return
	}

	s.SynchronizeSpeakers()
	s.Send(protocol.MsgSay, map[string]any{
		"Say":        text,
		"Importance": importance,
		"Terminals":  speakers,
	})
}

// Confirm starts a negotiation with a fixed yes/no option pair.
func (s *Session) Confirm(ctx context.Context, call ServiceCall) {
	if !s.Online() {
		return
	}
	speakers := s.callSpeakers(ctx, call)
	if len(speakers) == 0 {
		s.logger.Info("lvt.confirm: no suitable speakers found")
		return
	}

	s.SynchronizeSpeakers()

	options := []map[string]any{
		{
			"Intent": call.get("no_intent"),
			"Say":    call.get("no_say"),
			"Utterance": []string{
				"Нет", "Отмена", "Стой", "Отказ", "Не согласен", "Ни в коем случае",
			},
		},
		{
			"Intent": call.get("yes_intent"),
			"Say":    call.get("yes_say"),
			"Utterance": []string{
				"Да", "Согласен", "Хорошо", "Конечно да", "Конечно", "Продолжай", "Безусловно",
			},
		},
	}

	s.Send(protocol.MsgNegotiate, map[string]any{
		"Say":              call.get("say"),
		"Importance":       call.importance(),
		"Terminals":        speakers,
		"Prompt":           call.get("prompt"),
		"Options":          options,
		"DefaultSay":       call.get("default_say"),
		"DefaultIntent":    call.get("default_intent"),
		"DefaultTimeout":   call.get("default_timeout"),
		"DefaultUtterance": call.get("default_utterance"),
	})
}

// Negotiate starts a negotiation with caller-numbered options, supplied as
// option_<n>_{intent|utterance|say} fields with n in 1..10. Options are
// ordered by ascending n; missing intermediate indices are not synthesized.
// An option key whose index is not an integer aborts the whole command;
// out-of-range or misshapen keys with a numeric index are skipped.
func (s *Session) Negotiate(ctx context.Context, call ServiceCall) {
	if !s.Online() {
		return
	}
	speakers := s.callSpeakers(ctx, call)
	if len(speakers) == 0 {
		s.logger.Info("lvt.negotiate: no suitable speakers found")
		return
	}

	s.SynchronizeSpeakers()

	var index []int
	for name := range call {
		parts := strings.Split(name, "_")
		if parts[0] != "option" {
			continue
		}
		n, err := optionIndex(parts)
		if err != nil {
			s.logger.Error("Invalid LVT negotiate option parameter", zap.String("name", name))
			return
		}
		if len(parts) != 3 || n < 1 || n > 10 {
			s.logger.Error("Invalid LVT negotiate option parameter", zap.String("name", name))
			continue
		}
		if !containsInt(index, n) {
			index = append(index, n)
		}
	}
	sort.Ints(index)

	options := make([]map[string]any, len(index))
	for i := range options {
		options[i] = map[string]any{"Intent": nil, "Utterance": nil, "Say": nil}
	}
	for name, value := range call {
		parts := strings.Split(name, "_")
		if parts[0] != "option" {
			continue
		}
		n, _ := optionIndex(parts)
		o := indexOf(index, n)
		if len(parts) != 3 || o < 0 {
			continue
		}
		switch parts[2] {
		case "intent":
			options[o]["Intent"] = value
		case "utterance":
			options[o]["Utterance"] = value
		case "say":
			options[o]["Say"] = value
		default:
			s.logger.Error("Invalid LVT negotiate option", zap.String("name", name))
		}
	}

	s.Send(protocol.MsgNegotiate, map[string]any{
		"Say":              call.get("say"),
		"Importance":       call.importance(),
		"Terminals":        speakers,
		"Prompt":           call.get("prompt"),
		"Options":          options,
		"DefaultSay":       call.get("default_say"),
		"DefaultIntent":    call.get("default_intent"),
		"DefaultTimeout":   call.get("default_timeout"),
		"DefaultUtterance": call.get("default_utterance"),
	})
}

// ListeningStart puts the target speakers into dialog listening mode.
func (s *Session) ListeningStart(ctx context.Context, call ServiceCall) {
	if !s.Online() {
		return
	}
	speakers := s.callSpeakers(ctx, call)
	importance := call.importance()

	if call.str("say") == "" {
		s.logger.Error("lvt.listening_start: <say> parameter is empty")
		return
	}
	if call.str("prompt") == "" {
		s.logger.Error("lvt.listening_start: <prompt> parameter is empty")
		return
	}
	if len(speakers) == 0 {
		s.logger.Info("lvt.listening_start: no suitable speakers found")
		return
	}
	if call.str("intent") == "" {
		s.logger.Error("lvt.listening_start: <intent> parameter is empty")
		return
	}

	s.SynchronizeSpeakers()

	model, _, _ := strings.Cut(call.str("model"), ":")
	if model != "d" {
		model = "f"
	}

	s.Send(protocol.MsgListeningStart, map[string]any{
		"Say":            call.get("say"),
		"Importance":     importance,
		"Terminals":      speakers,
		"Model":          model,
		"Prompt":         call.get("prompt"),
		"Intent":         call.get("intent"),
		"DefaultSay":     call.get("default_say"),
		"DefaultIntent":  call.get("default_intent"),
		"DefaultTimeout": call.get("default_timeout"),
	})
}

// ListeningStop takes the target speakers out of dialog listening mode.
func (s *Session) ListeningStop(ctx context.Context, call ServiceCall) {
	if !s.Online() {
		return
	}
	var speakers []string
	for _, sp := range s.registry.Parse(ctx, call.get("speaker"), true) {
		speakers = append(speakers, sp.ID())
	}
	if len(speakers) == 0 {
		s.logger.Info("lvt.listening_stop: no suitable speakers found")
		return
	}

	s.SynchronizeSpeakers()
	s.Send(protocol.MsgListeningStop, map[string]any{
		"Intent":     call.get("intent"),
		"Say":        call.get("say"),
		"Importance": 2,
		"Terminals":  speakers,
	})
}

// RestartSpeaker restarts the target speakers, optionally updating them
// first. Offline speakers are targeted too, so the command reaches them
// when they reconnect.
func (s *Session) RestartSpeaker(ctx context.Context, call ServiceCall) {
	if !s.Online() {
		return
	}
	var speakers []string
	for _, sp := range s.registry.Parse(ctx, call.get("speaker"), false) {
		speakers = append(speakers, sp.ID())
	}
	if len(speakers) == 0 {
		s.logger.Info("lvt.restart: no suitable speakers found")
		return
	}

	s.Send(protocol.MsgRestart, map[string]any{
		"Terminals":    speakers,
		"Update":       call.flag("update"),
		"Say":          call.get("say"),
		"SayOnConnect": call.get("say_on_restart"),
	})
}

// optionIndex parses the numeric index of a split option_<n>... key.
func optionIndex(parts []string) (int, error) {
	if len(parts) < 2 {
		return 0, fmt.Errorf("missing option index")
	}
	return strconv.Atoi(parts[1])
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}

func indexOf(list []int, n int) int {
	for i, v := range list {
		if v == n {
			return i
		}
	}
	return -1
}
