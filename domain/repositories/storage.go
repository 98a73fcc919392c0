package repositories

import (
	"context"
	"errors"

	"github.com/lvthome/lvtbridge/domain/entities"
)

// ErrNotFound is returned by registry lookups for unknown identifiers.
var ErrNotFound = errors.New("not found")

// DeviceRegistry persists device records for known speakers.
type DeviceRegistry interface {
	// GetBySpeakerID looks up the record for a speaker, ErrNotFound if none.
	GetBySpeakerID(ctx context.Context, speakerID string) (*entities.DeviceRecord, error)
	// List returns every persisted record.
	List(ctx context.Context) ([]*entities.DeviceRecord, error)
	// Update upserts a record; fields of an existing record are overwritten.
	Update(ctx context.Context, record *entities.DeviceRecord) error
	// Remove deletes the record for a speaker. Removing an absent record is
	// not an error.
	Remove(ctx context.Context, speakerID string) error
}

// EntityFactory materializes the entity handles for a speaker. CreateEntities
// must be a no-op (returning the already existing handles) when a persisted
// entity record for the speaker exists.
type EntityFactory interface {
	CreateEntities(ctx context.Context, speaker *entities.Speaker) (entities.SpeakerEntities, error)
}
