package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/domain/repositories"
)

type DeviceRegistry struct {
	collection *mongo.Collection
}

// NewDeviceRegistry creates a MongoDB-backed device registry
func NewDeviceRegistry(db *mongo.Database) repositories.DeviceRegistry {
	return &DeviceRegistry{
		collection: db.Collection("devices"),
	}
}

// GetBySpeakerID implements repositories.DeviceRegistry
func (r *DeviceRegistry) GetBySpeakerID(ctx context.Context, speakerID string) (*entities.DeviceRecord, error) {
	if speakerID == "" {
		return nil, errors.New("speaker ID cannot be empty")
	}

	var record entities.DeviceRecord
	err := r.collection.FindOne(ctx, bson.M{"speaker_id": speakerID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device for speaker %s: %w", speakerID, err)
	}
	return &record, nil
}

// List implements repositories.DeviceRegistry
func (r *DeviceRegistry) List(ctx context.Context) ([]*entities.DeviceRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*entities.DeviceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}
	return records, nil
}

// Update implements repositories.DeviceRegistry
func (r *DeviceRegistry) Update(ctx context.Context, record *entities.DeviceRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.SpeakerID == "" {
		return errors.New("speaker ID cannot be empty")
	}

	now := time.Now()
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	filter := bson.M{"speaker_id": record.SpeakerID}
	update := bson.M{
		"$set": bson.M{
			"speaker_id":     record.SpeakerID,
			"name":           record.Name,
			"manufacturer":   record.Manufacturer,
			"model":          record.Model,
			"sw_version":     record.SWVersion,
			"suggested_area": record.SuggestedArea,
			"area_id":        record.AreaID,
			"updated_at":     record.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        record.ID,
			"created_at": record.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert device for speaker %s: %w", record.SpeakerID, err)
	}

	var stored entities.DeviceRecord
	if err := r.collection.FindOne(ctx, filter).Decode(&stored); err == nil {
		record.ID = stored.ID
		record.CreatedAt = stored.CreatedAt
	}
	return nil
}

// Remove implements repositories.DeviceRegistry
func (r *DeviceRegistry) Remove(ctx context.Context, speakerID string) error {
	if speakerID == "" {
		return errors.New("speaker ID cannot be empty")
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"speaker_id": speakerID}); err != nil {
		return fmt.Errorf("failed to remove device for speaker %s: %w", speakerID, err)
	}
	return nil
}
