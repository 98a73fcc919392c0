package localentity

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
)

func TestFactory_CreateEntities(t *testing.T) {
	f := NewFactory(zap.NewNop())
	ctx := context.Background()
	sp := entities.NewSpeaker("kitchen", true)

	set, err := f.CreateEntities(ctx, sp)
	if err != nil {
		t.Fatalf("CreateEntities failed: %v", err)
	}
	if set.Online == nil || set.Volume == nil || set.Filter == nil {
		t.Fatal("missing entity handles")
	}
	if set.Volume.Value() != defaultVolume {
		t.Errorf("Volume = %d, want default %d", set.Volume.Value(), defaultVolume)
	}
	if set.Filter.CurrentOption() != "0" {
		t.Errorf("Filter = %q, want 0", set.Filter.CurrentOption())
	}

	// repeated calls return the same handles
	again, err := f.CreateEntities(ctx, sp)
	if err != nil {
		t.Fatalf("CreateEntities failed: %v", err)
	}
	if again.Volume != set.Volume {
		t.Error("handles must be reused per speaker")
	}

	other, _ := f.CreateEntities(ctx, entities.NewSpeaker("hall", true))
	if other.Volume == set.Volume {
		t.Error("handles must be separate per speaker")
	}
}

func TestVolumeHandle_SetDesired(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{45, 40},
		{100, 100},
		{150, 100},
		{-5, 0},
		{7, 0},
		{30, 30},
	}
	for _, tt := range tests {
		h := &VolumeHandle{}
		h.SetDesired(tt.in)
		if got := h.Value(); got != tt.want {
			t.Errorf("SetDesired(%d) -> %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFilterHandle_SelectOptionClamps(t *testing.T) {
	h := &FilterHandle{}
	h.SelectOption(9)
	if h.CurrentOption() != "4" {
		t.Errorf("CurrentOption = %q, want 4", h.CurrentOption())
	}
	h.SelectOption(-1)
	if h.CurrentOption() != "0" {
		t.Errorf("CurrentOption = %q, want 0", h.CurrentOption())
	}
}

func TestOnlineHandle(t *testing.T) {
	h := &OnlineHandle{}
	if h.Online() {
		t.Error("new handle should be offline")
	}
	h.SetOnline(true)
	if !h.Online() {
		t.Error("handle should be online")
	}
}
