package config

import (
	"testing"
)

func TestParseSSLMode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"zero", "0", 0},
		{"one", "1", 1},
		{"two", "2", 2},
		{"out of range high", "3", 0},
		{"negative", "-1", 0},
		{"garbage", "secure", 0},
		{"descriptive option", SSLModes[1], 1},
		{"descriptive full", SSLModes[2], 2},
		{"padded", " 1 ", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSSLMode(tt.in); got != tt.want {
				t.Errorf("ParseSSLMode(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"LVT_SERVER", "LVT_PORT", "LVT_PASSWORD", "LVT_SSL_MODE", "PORT", "API_USERNAME"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Server != DefaultServer {
		t.Errorf("Server = %q, want %q", cfg.Server, DefaultServer)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.SSLMode != 0 {
		t.Errorf("SSLMode = %d, want 0", cfg.SSLMode)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.APIUser != "admin" {
		t.Errorf("APIUser = %q, want admin", cfg.APIUser)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LVT_SERVER", "lvt.local")
	t.Setenv("LVT_PORT", "2701")
	t.Setenv("LVT_PASSWORD", "secret")
	t.Setenv("LVT_SSL_MODE", "2")

	cfg := Load()
	if cfg.Server != "lvt.local" || cfg.Port != 2701 {
		t.Errorf("target = %s:%d", cfg.Server, cfg.Port)
	}
	if cfg.Password != "secret" {
		t.Errorf("Password = %q", cfg.Password)
	}
	if cfg.SSLMode != 2 {
		t.Errorf("SSLMode = %d, want 2", cfg.SSLMode)
	}
}

func TestLoad_BadPortFallsBack(t *testing.T) {
	t.Setenv("LVT_PORT", "not-a-port")
	if cfg := Load(); cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
}
