package entities

import "time"

// DeviceRecord is the persisted registry entry for one speaker.
type DeviceRecord struct {
	ID            string    `json:"id" bson:"_id"`
	SpeakerID     string    `json:"speaker_id" bson:"speaker_id"`
	Name          string    `json:"name" bson:"name"`
	Manufacturer  string    `json:"manufacturer" bson:"manufacturer"`
	Model         string    `json:"model" bson:"model"`
	SWVersion     string    `json:"sw_version" bson:"sw_version"`
	SuggestedArea string    `json:"suggested_area" bson:"suggested_area"`
	AreaID        string    `json:"area_id" bson:"area_id"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}
