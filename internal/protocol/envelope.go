package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message tags understood by the LVT server API.
const (
	MsgAuthorize      = "Authorize"
	MsgError          = "Error"
	MsgServerStatus   = "ServerStatus"
	MsgSetIntents     = "SetIntents"
	MsgFireIntent     = "FireIntent"
	MsgStatus         = "Status"
	MsgVolume         = "Volume"
	MsgPlay           = "Play"
	MsgSay            = "Say"
	MsgNegotiate      = "Negotiate"
	MsgListeningStart = "ListeningStart"
	MsgListeningStop  = "ListeningStop"
	MsgRestart        = "Restart"
)

var (
	ErrMissingMessage = errors.New("envelope missing Message tag")
	ErrBadPayload     = errors.New("envelope Data is not valid JSON")
)

// Envelope is the outer JSON wrapper around every wire frame. The Data field
// holds the JSON-encoded string of the payload, not the payload object itself;
// the server expects this double encoding on both directions.
type Envelope struct {
	Message    string `json:"Message"`
	StatusCode int    `json:"StatusCode"`
	Status     string `json:"Status,omitempty"`
	Data       string `json:"Data,omitempty"`
}

// NewEnvelope builds an outbound envelope, serializing payload into the
// nested Data string. A nil payload leaves Data empty.
func NewEnvelope(message string, statusCode int, status string, payload any) (Envelope, error) {
	env := Envelope{
		Message:    message,
		StatusCode: statusCode,
		Status:     status,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode payload for %s: %w", message, err)
		}
		env.Data = string(data)
	}
	return env, nil
}

// Inbound is a decoded wire frame. Data holds the inner payload JSON,
// already unwrapped from the double encoding, or nil when absent.
type Inbound struct {
	Message    string
	StatusCode int
	Status     string
	Data       json.RawMessage
}

// Decode parses a raw text frame through both envelope stages. Any failure
// at either stage returns an error and the frame must be discarded whole;
// no partially decoded message is ever produced.
func Decode(frame []byte) (Inbound, error) {
	var raw struct {
		Message    *string `json:"Message"`
		StatusCode *int    `json:"StatusCode"`
		Status     *string `json:"Status"`
		Data       *string `json:"Data"`
	}
	if err := json.Unmarshal(frame, &raw); err != nil {
		return Inbound{}, fmt.Errorf("decode envelope: %w", err)
	}
	if raw.Message == nil {
		return Inbound{}, ErrMissingMessage
	}

	in := Inbound{Message: *raw.Message}
	if raw.StatusCode != nil {
		in.StatusCode = *raw.StatusCode
	}
	if raw.Status != nil {
		in.Status = *raw.Status
	}
	if raw.Data != nil {
		inner := []byte(*raw.Data)
		if !json.Valid(inner) {
			return Inbound{}, ErrBadPayload
		}
		in.Data = json.RawMessage(inner)
	}
	return in, nil
}

// DecodePayload unmarshals the inner payload into v. Inbound frames without
// a payload yield ErrBadPayload.
func (in Inbound) DecodePayload(v any) error {
	if in.Data == nil {
		return ErrBadPayload
	}
	return json.Unmarshal(in.Data, v)
}
