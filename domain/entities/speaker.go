package entities

import (
	"fmt"
	"sync"
)

// Speaker tracks one remote LVT terminal: the raw info mapping last reported
// by the server plus the locally held entity handles carrying desired state.
// Speakers are owned by the session registry; everything else holds
// references only.
type Speaker struct {
	id string

	mu           sync.RWMutex
	info         map[string]any
	serverOnline bool
	entities     SpeakerEntities
}

func NewSpeaker(id string, serverOnline bool) *Speaker {
	return &Speaker{
		id:           id,
		info:         map[string]any{},
		serverOnline: serverOnline,
	}
}

func (s *Speaker) ID() string {
	return s.id
}

// Update replaces the last-reported info mapping.
func (s *Speaker) Update(info map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info == nil {
		info = map[string]any{}
	}
	s.info = info
}

func (s *Speaker) SetServerOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverOnline = online
}

func (s *Speaker) SetEntities(e SpeakerEntities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = e
}

func (s *Speaker) Entities() SpeakerEntities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities
}

func (s *Speaker) Name() string {
	if name, ok := s.infoString("Name"); ok {
		return name
	}
	return fmt.Sprintf("LVT Speaker [%s]", s.id)
}

// Online reports whether the speaker is reachable. It is false whenever the
// server session itself is offline, regardless of the last-reported
// connectivity flag.
func (s *Speaker) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.serverOnline {
		return false
	}
	connected, ok := s.info["Connected"].(bool)
	return ok && connected
}

// Volume is the locally desired volume, 30 until a volume handle exists.
func (s *Speaker) Volume() int {
	e := s.Entities()
	if e.Volume == nil {
		return 30
	}
	return e.Volume.Value()
}

// Filter is the locally desired importance filter level.
func (s *Speaker) Filter() int {
	e := s.Entities()
	if e.Filter == nil {
		return 0
	}
	return ParseLevel(e.Filter.CurrentOption(), MaxFilter)
}

// OutOfSync reports whether the locally desired volume or filter differs
// from the value last reported by the server.
func (s *Speaker) OutOfSync() bool {
	e := s.Entities()
	result := false
	if e.Volume != nil {
		reported, ok := s.infoInt("Volume")
		result = !ok || s.Volume() != reported
	}
	if e.Filter != nil {
		reported, ok := s.infoInt("Filter")
		if !ok {
			reported = 0
		}
		result = result || s.Filter() != reported
	}
	return result
}

func (s *Speaker) Version() string {
	v, _ := s.infoString("Version")
	return v
}

func (s *Speaker) Address() string {
	v, _ := s.infoString("Address")
	return v
}

func (s *Speaker) Location() string {
	v, _ := s.infoString("Location")
	return v
}

// ReportedVolume returns the server-side volume, or false when never reported.
func (s *Speaker) ReportedVolume() (int, bool) {
	return s.infoInt("Volume")
}

// ReportedFilter returns the server-side filter, or false when never reported.
func (s *Speaker) ReportedFilter() (int, bool) {
	return s.infoInt("Filter")
}

// DeviceInfo builds the device record fields describing this speaker.
func (s *Speaker) DeviceInfo() DeviceRecord {
	return DeviceRecord{
		SpeakerID:     s.id,
		Name:          s.Name(),
		Manufacturer:  "Lite Voice Terminal",
		Model:         fmt.Sprintf("Speaker at %s", s.Address()),
		SWVersion:     s.Version(),
		SuggestedArea: s.Location(),
	}
}

// SyncEntities pushes the current reported state into the entity handles.
func (s *Speaker) SyncEntities() {
	online := s.Online()
	e := s.Entities()

	if e.Online != nil {
		e.Online.SetOnline(online)
	}
	if e.Volume != nil {
		e.Volume.SetOnline(online)
		if v, ok := s.infoInt("Volume"); ok {
			e.Volume.SetValue(v)
		}
	}
	if e.Filter != nil {
		e.Filter.SetOnline(online)
		if v, ok := s.infoInt("Filter"); ok {
			e.Filter.SelectOption(v)
		}
	}
}

func (s *Speaker) infoString(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.info[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

func (s *Speaker) infoInt(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch v := s.info[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
