package repositories

import (
	"context"
	"errors"

	"github.com/lvthome/lvtbridge/domain/entities"
)

// Intent-handling failure categories, distinguished with errors.Is.
var (
	ErrUnknownIntent = errors.New("unknown intent")
	ErrInvalidSlots  = errors.New("invalid slot data")
)

// Slot wraps one slot value in the shape the intent facility expects.
type Slot struct {
	Value any `json:"value"`
}

// IntentResponse carries the handler outcome. Non-empty Speech is spoken
// back on the originating terminal.
type IntentResponse struct {
	Speech string
}

// IntentHandler is the generic intent-handling facility fired intents are
// dispatched into.
type IntentHandler interface {
	Handle(ctx context.Context, domain string, intent string, slots map[string]Slot) (*IntentResponse, error)
}

// IntentPublisher fans fired intents out to an external event bus. Publish
// failures are logged by the caller and never abort dispatch.
type IntentPublisher interface {
	Publish(ctx context.Context, fired entities.FiredIntent) error
}
