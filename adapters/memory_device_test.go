package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/domain/repositories"
)

func TestMemoryDeviceRegistry_CRUD(t *testing.T) {
	reg := NewMemoryDeviceRegistry()
	ctx := context.Background()

	if _, err := reg.GetBySpeakerID(ctx, "kitchen"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	record := &entities.DeviceRecord{SpeakerID: "kitchen", Name: "Kitchen"}
	if err := reg.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if record.ID == "" {
		t.Error("Update must assign an ID to a new record")
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Error("Update must stamp timestamps")
	}

	got, err := reg.GetBySpeakerID(ctx, "kitchen")
	if err != nil {
		t.Fatalf("GetBySpeakerID failed: %v", err)
	}
	if got.Name != "Kitchen" {
		t.Errorf("Name = %q", got.Name)
	}

	// updating preserves identity and creation time
	update := &entities.DeviceRecord{SpeakerID: "kitchen", Name: "Kitchen v2"}
	if err := reg.Update(ctx, update); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if update.ID != record.ID {
		t.Errorf("ID changed from %q to %q", record.ID, update.ID)
	}
	if !update.CreatedAt.Equal(record.CreatedAt) {
		t.Error("CreatedAt must be preserved on update")
	}

	records, err := reg.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Kitchen v2" {
		t.Errorf("records = %+v", records)
	}

	if err := reg.Remove(ctx, "kitchen"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := reg.GetBySpeakerID(ctx, "kitchen"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after removal", err)
	}

	// removing an absent record is not an error
	if err := reg.Remove(ctx, "kitchen"); err != nil {
		t.Errorf("Remove of absent record failed: %v", err)
	}
}

func TestMemoryDeviceRegistry_CopyOnReturn(t *testing.T) {
	reg := NewMemoryDeviceRegistry()
	ctx := context.Background()

	if err := reg.Update(ctx, &entities.DeviceRecord{SpeakerID: "kitchen", Name: "Kitchen"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := reg.GetBySpeakerID(ctx, "kitchen")
	got.Name = "mutated"

	again, _ := reg.GetBySpeakerID(ctx, "kitchen")
	if again.Name != "Kitchen" {
		t.Error("callers must not be able to mutate stored records")
	}
}

func TestMemoryDeviceRegistry_EmptySpeakerID(t *testing.T) {
	reg := NewMemoryDeviceRegistry()
	ctx := context.Background()

	if _, err := reg.GetBySpeakerID(ctx, ""); err == nil {
		t.Error("empty speaker ID must be rejected")
	}
	if err := reg.Update(ctx, &entities.DeviceRecord{}); err == nil {
		t.Error("record without speaker ID must be rejected")
	}
}
