package entities

import (
	"strconv"
	"strings"
)

// Importance and filter levels on the wire.
const (
	MaxImportance = 3
	MaxFilter     = 4
)

// OnlineEntity is a connectivity flag handle exposed to the host UI.
type OnlineEntity interface {
	SetOnline(online bool)
}

// VolumeEntity is a numeric volume handle. SetValue pushes server-reported
// state inward; Value reads back the locally desired volume.
type VolumeEntity interface {
	SetOnline(online bool)
	SetValue(value int)
	Value() int
}

// FilterEntity is an importance-filter selector handle. Options are level
// strings, possibly suffixed with a label ("2:important").
type FilterEntity interface {
	SetOnline(online bool)
	SelectOption(level int)
	CurrentOption() string
}

// SpeakerEntities is the fixed set of per-speaker entity handles. Each is
// optional and created lazily once the speaker first appears online.
type SpeakerEntities struct {
	Online OnlineEntity
	Volume VolumeEntity
	Filter FilterEntity
}

// ParseLevel extracts the numeric level from a possibly colon-suffixed value
// ("2:high" parses to 2) and clamps it to [0, max]. Anything unparseable
// yields 0.
func ParseLevel(v any, max int) int {
	var level int
	switch t := v.(type) {
	case int:
		level = t
	case float64:
		level = int(t)
	case string:
		head, _, _ := strings.Cut(t, ":")
		n, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			return 0
		}
		level = n
	default:
		return 0
	}
	if level < 0 {
		return 0
	}
	if level > max {
		return max
	}
	return level
}
