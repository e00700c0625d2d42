// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// QueueSize bounds the in-memory feed queue across all partitions.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of feed workers, one per queue partition.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many feed update ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`
	// ShardCount configures the number of shards in the match store.
	ShardCount int `koanf:"shard_count"`
	// MaxListLimit caps GET /matches?limit.
	MaxListLimit int `koanf:"max_list_limit"`
	// NATSURL enables broadcasting match views when set.
	NATSURL string `koanf:"nats_url"`
	// NATSSubjectPrefix is prepended to the match id when publishing.
	NATSSubjectPrefix string `koanf:"nats_subject_prefix"`
	// CORSOrigins is a comma separated list of origins allowed to call the API.
	CORSOrigins string `koanf:"cors_origins"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		QueueSize:         100_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        500_000,
		ShardCount:        16,
		MaxListLimit:      100,
		NATSSubjectPrefix: "pulse.matches",
		CORSOrigins:       "*",
	}
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxListLimit < 1 {
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	}
	if c.NATSURL != "" && strings.TrimSpace(c.NATSSubjectPrefix) == "" {
		return fmt.Errorf("%w: nats_subject_prefix must not be empty when nats_url is set", ErrInvalidConfig)
	}
	return nil
}

// AllowedOrigins splits CORSOrigins into trimmed, non-empty origins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
