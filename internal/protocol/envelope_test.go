package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewEnvelope_DoubleEncodesPayload(t *testing.T) {
	env, err := NewEnvelope(MsgSay, 0, "", map[string]any{"Say": "hello", "Importance": 1})
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}

	if env.Message != MsgSay {
		t.Errorf("Message = %q, want %q", env.Message, MsgSay)
	}

	// The payload must be a JSON string nested inside the outer object
	frame, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var outer map[string]any
	if err := json.Unmarshal(frame, &outer); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	data, ok := outer["Data"].(string)
	if !ok {
		t.Fatalf("Data field is %T, want string", outer["Data"])
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("inner payload is not valid JSON: %v", err)
	}
	if payload["Say"] != "hello" {
		t.Errorf("payload Say = %v, want hello", payload["Say"])
	}
}

func TestNewEnvelope_NilPayloadOmitsData(t *testing.T) {
	env, err := NewEnvelope(MsgAuthorize, 0, "secret", nil)
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	if env.Data != "" {
		t.Errorf("Data = %q, want empty", env.Data)
	}

	frame, _ := json.Marshal(env)
	if strings.Contains(string(frame), "Data") {
		t.Errorf("frame should omit Data field: %s", frame)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	env, err := NewEnvelope(MsgFireIntent, 0, "", map[string]any{"Intent": "LightsOn"})
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	frame, _ := json.Marshal(env)

	in, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if in.Message != MsgFireIntent {
		t.Errorf("Message = %q, want %q", in.Message, MsgFireIntent)
	}

	var payload struct {
		Intent string `json:"Intent"`
	}
	if err := in.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if payload.Intent != "LightsOn" {
		t.Errorf("Intent = %q, want LightsOn", payload.Intent)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not JSON", `hello`, nil},
		{"missing message", `{"StatusCode":0}`, ErrMissingMessage},
		{"inner data not JSON", `{"Message":"Status","Data":"{oops"}`, ErrBadPayload},
		{"data wrong type", `{"Message":"Status","Data":42}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame))
			if err == nil {
				t.Fatal("Decode succeeded, want error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode_StatusCodePassthrough(t *testing.T) {
	in, err := Decode([]byte(`{"Message":"Authorize","StatusCode":1,"Status":"Bad password"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if in.StatusCode != 1 {
		t.Errorf("StatusCode = %d, want 1", in.StatusCode)
	}
	if in.Status != "Bad password" {
		t.Errorf("Status = %q, want Bad password", in.Status)
	}
	if in.Data != nil {
		t.Errorf("Data = %v, want nil", in.Data)
	}
}

func TestDecodePayload_NoData(t *testing.T) {
	in := Inbound{Message: MsgStatus}
	var v map[string]any
	if err := in.DecodePayload(&v); !errors.Is(err, ErrBadPayload) {
		t.Errorf("error = %v, want ErrBadPayload", err)
	}
}
