package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/domain/repositories"
)

// MemoryDeviceRegistry is an in-memory implementation of DeviceRegistry,
// suitable as the default storage backend when no MongoDB is configured.
type MemoryDeviceRegistry struct {
	mu      sync.RWMutex
	records map[string]*entities.DeviceRecord // speaker_id -> record
}

func NewMemoryDeviceRegistry() *MemoryDeviceRegistry {
	return &MemoryDeviceRegistry{
		records: make(map[string]*entities.DeviceRecord),
	}
}

// GetBySpeakerID implements repositories.DeviceRegistry
func (m *MemoryDeviceRegistry) GetBySpeakerID(ctx context.Context, speakerID string) (*entities.DeviceRecord, error) {
	if speakerID == "" {
		return nil, errors.New("speaker ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[speakerID]
	if !exists {
		return nil, repositories.ErrNotFound
	}

	// Return a copy to prevent external modifications
	recordCopy := *record
	return &recordCopy, nil
}

// List implements repositories.DeviceRegistry
func (m *MemoryDeviceRegistry) List(ctx context.Context) ([]*entities.DeviceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*entities.DeviceRecord, 0, len(m.records))
	for _, record := range m.records {
		recordCopy := *record
		records = append(records, &recordCopy)
	}
	return records, nil
}

// Update implements repositories.DeviceRegistry
func (m *MemoryDeviceRegistry) Update(ctx context.Context, record *entities.DeviceRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.SpeakerID == "" {
		return errors.New("speaker ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	recordCopy := *record
	if existing, exists := m.records[record.SpeakerID]; exists {
		recordCopy.ID = existing.ID
		recordCopy.CreatedAt = existing.CreatedAt
	} else {
		if recordCopy.ID == "" {
			recordCopy.ID = uuid.New().String()
		}
		recordCopy.CreatedAt = now
	}
	recordCopy.UpdatedAt = now

	m.records[record.SpeakerID] = &recordCopy
	record.ID = recordCopy.ID
	record.CreatedAt = recordCopy.CreatedAt
	record.UpdatedAt = recordCopy.UpdatedAt
	return nil
}

// Remove implements repositories.DeviceRegistry
func (m *MemoryDeviceRegistry) Remove(ctx context.Context, speakerID string) error {
	if speakerID == "" {
		return errors.New("speaker ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, speakerID)
	return nil
}
