package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/domain/repositories"
)

// Registry is the in-memory map of known speakers. Upserts come from the
// session's dispatch loop; reads come from command builders and the admin
// API on arbitrary goroutines.
type Registry struct {
	mu           sync.RWMutex
	speakers     map[string]*entities.Speaker
	serverOnline bool

	devices repositories.DeviceRegistry
	factory repositories.EntityFactory
	logger  *zap.Logger
}

func NewRegistry(devices repositories.DeviceRegistry, factory repositories.EntityFactory, logger *zap.Logger) *Registry {
	return &Registry{
		speakers: make(map[string]*entities.Speaker),
		devices:  devices,
		factory:  factory,
		logger:   logger,
	}
}

// SetServerOnline propagates the session connectivity into every speaker's
// derived online state and entity handles.
func (r *Registry) SetServerOnline(online bool) {
	r.mu.Lock()
	r.serverOnline = online
	speakers := make([]*entities.Speaker, 0, len(r.speakers))
	for _, sp := range r.speakers {
		speakers = append(speakers, sp)
	}
	r.mu.Unlock()

	for _, sp := range speakers {
		sp.SetServerOnline(online)
		sp.SyncEntities()
	}
}

// Upsert creates or updates the speaker described by a server info mapping,
// then reconciles the persisted device record and entity handles.
func (r *Registry) Upsert(ctx context.Context, info map[string]any) {
	id, _ := info["Id"].(string)
	if id == "" {
		return
	}

	r.mu.Lock()
	sp, known := r.speakers[id]
	if !known {
		sp = entities.NewSpeaker(id, r.serverOnline)
		r.speakers[id] = sp
	}
	r.mu.Unlock()

	prev := sp.DeviceInfo()
	sp.Update(info)
	next := sp.DeviceInfo()

	record, err := r.devices.GetBySpeakerID(ctx, id)
	switch {
	case err == nil:
		if prev.Name != next.Name || prev.Model != next.Model || prev.SWVersion != next.SWVersion {
			record.Name = next.Name
			record.Model = next.Model
			record.SWVersion = next.SWVersion
			record.SuggestedArea = next.SuggestedArea
			if err := r.devices.Update(ctx, record); err != nil {
				r.logger.Error("Error updating device record",
					zap.String("speaker", id), zap.Error(err))
			}
		}
		r.ensureEntities(ctx, sp)
	case errors.Is(err, repositories.ErrNotFound):
		if sp.Online() {
			if err := r.devices.Update(ctx, &next); err != nil {
				r.logger.Error("Error creating device record",
					zap.String("speaker", id), zap.Error(err))
			}
			r.ensureEntities(ctx, sp)
		}
	default:
		r.logger.Error("Error reading device registry",
			zap.String("speaker", id), zap.Error(err))
	}

	sp.SyncEntities()
}

func (r *Registry) ensureEntities(ctx context.Context, sp *entities.Speaker) {
	if r.factory == nil {
		return
	}
	e := sp.Entities()
	if e.Online != nil || e.Volume != nil || e.Filter != nil {
		return
	}
	created, err := r.factory.CreateEntities(ctx, sp)
	if err != nil {
		r.logger.Error("Error creating speaker entities",
			zap.String("speaker", sp.ID()), zap.Error(err))
		return
	}
	sp.SetEntities(created)
}

// Delete removes a speaker, cascading to the device registry when a record
// exists for it.
func (r *Registry) Delete(ctx context.Context, id string) {
	r.mu.Lock()
	_, known := r.speakers[id]
	delete(r.speakers, id)
	r.mu.Unlock()
	if !known {
		return
	}

	if _, err := r.devices.GetBySpeakerID(ctx, id); err == nil {
		if err := r.devices.Remove(ctx, id); err != nil {
			r.logger.Error("Error removing device record",
				zap.String("speaker", id), zap.Error(err))
		}
	}
}

func (r *Registry) Get(id string) (*entities.Speaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sp, ok := r.speakers[id]
	return sp, ok
}

// IDs returns the ids of every known speaker.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.speakers))
	for id := range r.speakers {
		ids = append(ids, id)
	}
	return ids
}

// All returns every known speaker.
func (r *Registry) All() []*entities.Speaker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	speakers := make([]*entities.Speaker, 0, len(r.speakers))
	for _, sp := range r.speakers {
		speakers = append(speakers, sp)
	}
	return speakers
}

// OutOfSyncPayload collects the desired state of every out-of-sync speaker,
// keyed by speaker id. In-sync speakers are omitted.
func (r *Registry) OutOfSyncPayload() map[string]map[string]int {
	payload := make(map[string]map[string]int)
	for _, sp := range r.All() {
		if sp.OutOfSync() {
			payload[sp.ID()] = map[string]int{
				"Volume": sp.Volume(),
				"Filter": sp.Filter(),
			}
		}
	}
	return payload
}

// SeedFromDevices creates speakers for device records persisted by earlier
// runs, so their entity handles exist before the server roster arrives.
func (r *Registry) SeedFromDevices(ctx context.Context) {
	records, err := r.devices.List(ctx)
	if err != nil {
		r.logger.Error("Error listing device registry", zap.Error(err))
		return
	}
	for _, record := range records {
		if record.SpeakerID == "" {
			continue
		}
		r.mu.Lock()
		sp, known := r.speakers[record.SpeakerID]
		if !known {
			sp = entities.NewSpeaker(record.SpeakerID, r.serverOnline)
			r.speakers[record.SpeakerID] = sp
		}
		r.mu.Unlock()
		r.ensureEntities(ctx, sp)
	}
}

// Parse resolves loosely typed speaker references against the registry.
// A reference may be a speaker id, a device record id, an area id, or an
// entity id of the form "lvt_<speaker>_<entity>". With activeOnly set, only
// speakers that are online with nonzero volume qualify.
func (r *Registry) Parse(ctx context.Context, refs any, activeOnly bool) []*entities.Speaker {
	var all []*entities.Speaker
	for _, sp := range r.All() {
		if !activeOnly || (sp.Online() && sp.Volume() > 0) {
			all = append(all, sp)
		}
	}

	ids := refStrings(refs)
	if len(ids) == 0 {
		return all
	}

	var parsed []*entities.Speaker
	for _, ref := range ids {
		// "lvt_kitchen_volume" also resolves speaker "kitchen"
		embedded := ""
		if a := strings.Index(ref, "lvt_"); a >= 0 {
			if b := strings.LastIndex(ref, "_"); b > a+4 {
				embedded = ref[a+4 : b]
			}
		}

		for _, sp := range all {
			if containsSpeaker(parsed, sp) {
				continue
			}
			matched := sp.ID() == ref || (embedded != "" && sp.ID() == embedded)
			if !matched {
				if record, err := r.devices.GetBySpeakerID(ctx, sp.ID()); err == nil {
					matched = record.ID == ref || (record.AreaID != "" && record.AreaID == ref)
				}
			}
			if matched {
				parsed = append(parsed, sp)
			}
		}
	}
	return parsed
}

func containsSpeaker(list []*entities.Speaker, sp *entities.Speaker) bool {
	for _, s := range list {
		if s == sp {
			return true
		}
	}
	return false
}

// refStrings flattens the accepted speaker reference shapes: a single
// string, a list, or a map keyed by reference.
func refStrings(refs any) []string {
	switch v := refs.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		out := make([]string, 0, len(v))
		for key := range v {
			out = append(out, key)
		}
		return out
	default:
		return nil
	}
}
