package session

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/adapters"
	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/domain/repositories"
)

// stub entity handles

type stubOnline struct {
	mu     sync.Mutex
	online bool
}

func (h *stubOnline) SetOnline(online bool) {
	h.mu.Lock()
	h.online = online
	h.mu.Unlock()
}

type stubVolume struct {
	mu     sync.Mutex
	online bool
	value  int
}

func (h *stubVolume) SetOnline(online bool) {
	h.mu.Lock()
	h.online = online
	h.mu.Unlock()
}

func (h *stubVolume) SetValue(value int) {
	h.mu.Lock()
	h.value = value
	h.mu.Unlock()
}

func (h *stubVolume) Value() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

type stubFilter struct {
	mu     sync.Mutex
	online bool
	level  int
}

func (h *stubFilter) SetOnline(online bool) {
	h.mu.Lock()
	h.online = online
	h.mu.Unlock()
}

func (h *stubFilter) SelectOption(level int) {
	h.mu.Lock()
	h.level = level
	h.mu.Unlock()
}

func (h *stubFilter) CurrentOption() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strconv.Itoa(h.level)
}

// stubFactory hands out fresh stub handles with the default volume.
type stubFactory struct{}

func (stubFactory) CreateEntities(ctx context.Context, sp *entities.Speaker) (entities.SpeakerEntities, error) {
	return entities.SpeakerEntities{
		Online: &stubOnline{},
		Volume: &stubVolume{value: 30},
		Filter: &stubFilter{},
	}, nil
}

// stubHandler records intent invocations and returns canned results.
type stubHandler struct {
	mu       sync.Mutex
	calls    []string
	response *repositories.IntentResponse
	err      error
}

func (h *stubHandler) Handle(ctx context.Context, domain, intent string, slots map[string]repositories.Slot) (*repositories.IntentResponse, error) {
	h.mu.Lock()
	h.calls = append(h.calls, intent)
	h.mu.Unlock()
	return h.response, h.err
}

func (h *stubHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

// stubPublisher records published intents.
type stubPublisher struct {
	mu    sync.Mutex
	fired []entities.FiredIntent
	err   error
}

func (p *stubPublisher) Publish(ctx context.Context, fired entities.FiredIntent) error {
	p.mu.Lock()
	p.fired = append(p.fired, fired)
	p.mu.Unlock()
	return p.err
}

func newTestRegistry() *Registry {
	return NewRegistry(adapters.NewMemoryDeviceRegistry(), stubFactory{}, zap.NewNop())
}

func newTestSession(handler repositories.IntentHandler) *Session {
	return New(newTestRegistry(), handler, zap.NewNop())
}

// addSpeaker registers a connected speaker through the roster path.
func addSpeaker(reg *Registry, id string, connected bool) *entities.Speaker {
	reg.Upsert(context.Background(), map[string]any{
		"Id":        id,
		"Name":      "Speaker " + id,
		"Connected": connected,
		"Volume":    30,
		"Filter":    0,
	})
	sp, _ := reg.Get(id)
	return sp
}
