// Package localentity provides in-process entity handles for speakers. Each
// handle keeps desired and reported state in memory so callers without an
// external entity platform still get working volume and filter controls.
package localentity

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
)

const (
	defaultVolume = 30
	volumeMin     = 0
	volumeMax     = 100
	volumeStep    = 10
)

// Factory creates and caches entity handles per speaker.
type Factory struct {
	mu      sync.Mutex
	created map[string]entities.SpeakerEntities
	logger  *zap.Logger
}

func NewFactory(logger *zap.Logger) *Factory {
	return &Factory{
		created: make(map[string]entities.SpeakerEntities),
		logger:  logger,
	}
}

// CreateEntities returns the handles for a speaker, creating them on first
// call and reusing them afterwards.
func (f *Factory) CreateEntities(ctx context.Context, speaker *entities.Speaker) (entities.SpeakerEntities, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.created[speaker.ID()]; ok {
		return existing, nil
	}

	set := entities.SpeakerEntities{
		Online: &OnlineHandle{},
		Volume: &VolumeHandle{desired: defaultVolume},
		Filter: &FilterHandle{},
	}
	f.created[speaker.ID()] = set
	f.logger.Debug("Created entity handles for speaker",
		zap.String("speaker_id", speaker.ID()))
	return set, nil
}

// OnlineHandle is a connectivity flag.
type OnlineHandle struct {
	mu     sync.Mutex
	online bool
}

func (h *OnlineHandle) SetOnline(online bool) {
	h.mu.Lock()
	h.online = online
	h.mu.Unlock()
}

func (h *OnlineHandle) Online() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online
}

// VolumeHandle holds the desired volume. SetValue adopts the server-reported
// volume; SetDesired is the local control surface.
type VolumeHandle struct {
	mu      sync.Mutex
	online  bool
	desired int
}

func (h *VolumeHandle) SetOnline(online bool) {
	h.mu.Lock()
	h.online = online
	h.mu.Unlock()
}

func (h *VolumeHandle) SetValue(value int) {
	h.mu.Lock()
	h.desired = value
	h.mu.Unlock()
}

func (h *VolumeHandle) Value() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.desired
}

// SetDesired clamps to the slider range and rounds down to the step.
func (h *VolumeHandle) SetDesired(value int) {
	if value < volumeMin {
		value = volumeMin
	}
	if value > volumeMax {
		value = volumeMax
	}
	value -= value % volumeStep
	h.mu.Lock()
	h.desired = value
	h.mu.Unlock()
}

// FilterHandle holds the desired importance filter level as an option string.
type FilterHandle struct {
	mu      sync.Mutex
	online  bool
	desired int
}

func (h *FilterHandle) SetOnline(online bool) {
	h.mu.Lock()
	h.online = online
	h.mu.Unlock()
}

func (h *FilterHandle) SelectOption(level int) {
	if level < 0 {
		level = 0
	}
	if level > entities.MaxFilter {
		level = entities.MaxFilter
	}
	h.mu.Lock()
	h.desired = level
	h.mu.Unlock()
}

func (h *FilterHandle) CurrentOption() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strconv.Itoa(h.desired)
}
