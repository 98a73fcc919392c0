package config

import (
	"os"
	"strconv"
	"strings"
)

// Connection defaults matching the LVT server distribution.
const (
	DefaultServer = "127.0.0.1"
	DefaultPort   = 2700
)

// SSLModes are the descriptive option strings offered during setup. Their
// index is the numeric mode.
var SSLModes = []string{
	"0: Unsecured connection",
	"1: SSL, no certificate validation",
	"2: SSL with valid certificate only",
}

// Config carries everything read from the environment at startup.
type Config struct {
	Server      string
	Port        int
	Password    string
	SSLMode     int
	IntentsFile string

	HTTPPort    string
	JWTSecret   string
	APIUser     string
	APIPassword string
	MongoURI    string
	RedisURL    string
}

// Load reads configuration from the environment. A .env file, when present,
// is loaded by the caller beforehand via godotenv.
func Load() *Config {
	cfg := &Config{
		Server:      getenv("LVT_SERVER", DefaultServer),
		Port:        DefaultPort,
		Password:    os.Getenv("LVT_PASSWORD"),
		SSLMode:     ParseSSLMode(os.Getenv("LVT_SSL_MODE")),
		IntentsFile: os.Getenv("LVT_INTENTS_FILE"),
		HTTPPort:    getenv("PORT", "8080"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		APIUser:     getenv("API_USERNAME", "admin"),
		APIPassword: os.Getenv("API_PASSWORD"),
		MongoURI:    os.Getenv("MONGODB_URI"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}
	if port, err := strconv.Atoi(os.Getenv("LVT_PORT")); err == nil && port > 0 {
		cfg.Port = port
	}
	return cfg
}

// ParseSSLMode accepts either a bare mode number or one of the descriptive
// SSLModes strings. Anything else parses as mode 0.
func ParseSSLMode(v string) int {
	v = strings.TrimSpace(v)
	for i, option := range SSLModes {
		if v == option {
			return i
		}
	}
	mode, err := strconv.Atoi(v)
	if err != nil || mode < 0 || mode > 2 {
		return 0
	}
	return mode
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
