package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/repositories"
)

func TestIntentService_Handle(t *testing.T) {
	svc := NewIntentService(zap.NewNop())
	svc.Register("LightsOn", func(ctx context.Context, intent string, slots map[string]repositories.Slot) (*repositories.IntentResponse, error) {
		room, _ := slots["room"].Value.(string)
		if room == "" {
			return nil, fmt.Errorf("%w: room missing", repositories.ErrInvalidSlots)
		}
		return &repositories.IntentResponse{Speech: "lights on in " + room}, nil
	})

	ctx := context.Background()

	t.Run("case insensitive lookup", func(t *testing.T) {
		resp, err := svc.Handle(ctx, "lvt", "lightson", map[string]repositories.Slot{
			"room": {Value: "kitchen"},
		})
		if err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		if resp.Speech != "lights on in kitchen" {
			t.Errorf("Speech = %q", resp.Speech)
		}
	})

	t.Run("invalid slots", func(t *testing.T) {
		_, err := svc.Handle(ctx, "lvt", "LightsOn", nil)
		if !errors.Is(err, repositories.ErrInvalidSlots) {
			t.Errorf("err = %v, want ErrInvalidSlots", err)
		}
	})

	t.Run("unknown intent", func(t *testing.T) {
		_, err := svc.Handle(ctx, "lvt", "MakeCoffee", nil)
		if !errors.Is(err, repositories.ErrUnknownIntent) {
			t.Errorf("err = %v, want ErrUnknownIntent", err)
		}
	})
}

func TestIntentService_NilResponseNormalized(t *testing.T) {
	svc := NewIntentService(zap.NewNop())
	svc.Register("Noop", func(ctx context.Context, intent string, slots map[string]repositories.Slot) (*repositories.IntentResponse, error) {
		return nil, nil
	})

	resp, err := svc.Handle(context.Background(), "lvt", "Noop", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp == nil || resp.Speech != "" {
		t.Errorf("resp = %+v, want empty response", resp)
	}
}

func TestIntentService_RegisterReplaces(t *testing.T) {
	svc := NewIntentService(zap.NewNop())
	svc.Register("Ping", func(ctx context.Context, intent string, slots map[string]repositories.Slot) (*repositories.IntentResponse, error) {
		return &repositories.IntentResponse{Speech: "old"}, nil
	})
	svc.Register("ping", func(ctx context.Context, intent string, slots map[string]repositories.Slot) (*repositories.IntentResponse, error) {
		return &repositories.IntentResponse{Speech: "new"}, nil
	})

	resp, err := svc.Handle(context.Background(), "lvt", "Ping", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.Speech != "new" {
		t.Errorf("Speech = %q, want new", resp.Speech)
	}
}
