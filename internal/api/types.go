package api

import "time"

// LoginRequest represents the request payload for API authentication
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response payload for API authentication
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SpeakerResponse describes one speaker and its current state
type SpeakerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Online    bool   `json:"online"`
	Volume    int    `json:"volume"`
	Filter    int    `json:"filter"`
	Version   string `json:"version,omitempty"`
	Address   string `json:"address,omitempty"`
	Location  string `json:"location,omitempty"`
	OutOfSync bool   `json:"out_of_sync"`
}

// StatusResponse describes the terminal session state
type StatusResponse struct {
	Started    bool   `json:"started"`
	Online     bool   `json:"online"`
	Authorized bool   `json:"authorized"`
	Server     string `json:"server"`
	Port       int    `json:"port"`
	SSLMode    int    `json:"ssl_mode"`
	Speakers   int    `json:"speakers"`
}

// VolumeRequest sets the desired volume for a speaker
type VolumeRequest struct {
	Volume int `json:"volume"`
}

// FilterRequest sets the desired importance filter for a speaker
type FilterRequest struct {
	Filter int `json:"filter"`
}

// ProbeRequest checks whether a server accepts the given credentials
type ProbeRequest struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
}

// ProbeResponse reports the probe outcome
type ProbeResponse struct {
	Reachable bool `json:"reachable"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
