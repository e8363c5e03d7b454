package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Memory      MemoryConfig      `yaml:"memory"`
	Propagation PropagationConfig `yaml:"propagation"`
	Log         LogConfig         `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// MemoryConfig holds translation memory matching settings.
type MemoryConfig struct {
	// MinQuality is the default minimal Levenshtein ratio a match must
	// exceed to be returned.
	MinQuality float64 `yaml:"min_quality" env:"MEMORY_MIN_QUALITY" env-default:"0.7"`
	// MaxResults caps the number of matches a single lookup returns.
	MaxResults int `yaml:"max_results" env:"MEMORY_MAX_RESULTS" env-default:"100"`
}

// PropagationConfig holds stats propagation settings.
type PropagationConfig struct {
	// MaxRetries bounds retries of the whole propagation unit on
	// transient conflicts (serialization failures, deadlocks).
	MaxRetries uint64 `yaml:"max_retries" env:"PROPAGATION_MAX_RETRIES" env-default:"3"`
	// RetryBackoff is the initial backoff between retry attempts.
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"PROPAGATION_RETRY_BACKOFF" env-default:"25ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
