package config

import (
	"fmt"
	"os"
	"time"
)

const (
	BackendJSON   = "json"
	BackendBbolt  = "bbolt"
	BackendMemory = "memory"
)

type Config struct {
	APIAddr        string
	DataDir        string
	StorageBackend string

	// PresenceTimeout is the single threshold deriving online/offline from
	// heartbeat recency.
	PresenceTimeout time.Duration
	TypingTTL       time.Duration
	CallTTL         time.Duration
	CallLinger      time.Duration
	SweepInterval   time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		APIAddr:        getEnv("API_ADDR", ":8080"),
		DataDir:        getEnv("DATA_DIR", "data"),
		StorageBackend: getEnv("STORAGE_BACKEND", BackendJSON),
	}

	for _, d := range []struct {
		dst      *time.Duration
		key      string
		fallback string
	}{
		{&cfg.PresenceTimeout, "PRESENCE_TIMEOUT", "5m"},
		{&cfg.TypingTTL, "TYPING_TTL", "5s"},
		{&cfg.CallTTL, "CALL_TTL", "5m"},
		{&cfg.CallLinger, "CALL_LINGER", "30s"},
		{&cfg.SweepInterval, "SWEEP_INTERVAL", "2m"},
	} {
		v, err := time.ParseDuration(getEnv(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendJSON, BackendBbolt, BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of %s, %s, %s", BackendJSON, BackendBbolt, BackendMemory)
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"PRESENCE_TIMEOUT", c.PresenceTimeout},
		{"TYPING_TTL", c.TypingTTL},
		{"CALL_TTL", c.CallTTL},
		{"CALL_LINGER", c.CallLinger},
		{"SWEEP_INTERVAL", c.SweepInterval},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be greater than 0", d.name)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
