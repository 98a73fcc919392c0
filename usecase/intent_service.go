package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/repositories"
)

// HandlerFunc processes one fired intent. Returning an error wrapping
// repositories.ErrInvalidSlots marks the slot data as malformed; any other
// error is treated as a generic handling failure.
type HandlerFunc func(ctx context.Context, intent string, slots map[string]repositories.Slot) (*repositories.IntentResponse, error)

// IntentService is the in-process implementation of the generic
// intent-handling facility. Handlers are registered by name and matched
// case-insensitively.
type IntentService struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

func NewIntentService(logger *zap.Logger) *IntentService {
	return &IntentService{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Register installs a handler for an intent name, replacing any previous one.
func (s *IntentService) Register(intent string, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToLower(intent)] = handler
	s.logger.Info("Intent handler registered", zap.String("intent", intent))
}

// Handle dispatches a fired intent to its registered handler.
func (s *IntentService) Handle(ctx context.Context, domain string, intent string, slots map[string]repositories.Slot) (*repositories.IntentResponse, error) {
	s.mu.RLock()
	handler, ok := s.handlers[strings.ToLower(intent)]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", repositories.ErrUnknownIntent, domain, intent)
	}

	response, err := handler(ctx, intent, slots)
	if err != nil {
		return nil, err
	}
	if response == nil {
		response = &repositories.IntentResponse{}
	}
	return response, nil
}
