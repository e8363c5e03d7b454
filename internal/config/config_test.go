package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{DSN: "postgres://localhost/l10n"},
		Memory:   MemoryConfig{MinQuality: 0.7, MaxResults: 100},
		Propagation: PropagationConfig{
			MaxRetries:   3,
			RetryBackoff: 25 * time.Millisecond,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("min quality out of range", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Memory.MinQuality = 1.0
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("zero retries", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Propagation.MaxRetries = 0
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("zero backoff", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Propagation.RetryBackoff = 0
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error")
		}
	})
}
