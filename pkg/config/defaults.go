package config

import (
	"strings"
	"time"

	"github.com/marmos91/dittosmb/internal/telemetry"
	"github.com/marmos91/dittosmb/pkg/bufpool"
	"github.com/marmos91/dittosmb/pkg/metrics"
	"github.com/marmos91/dittosmb/pkg/oplock"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyShutdownTimeoutDefaults(cfg)
	applyMetadataDefaults(&cfg.Metadata)
	applyOplockDefaults(&cfg.Oplock)
	applyServerDefaults(&cfg.Server)
	applyIdentityDefaults(&cfg.Identity)
	applyShareDefaults(cfg)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *telemetry.Config) {
	def := telemetry.DefaultConfig()

	if cfg.ServiceName == "" {
		cfg.ServiceName = def.ServiceName
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = def.ServiceVersion
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	// A zero sample rate would drop every trace; treat it as unset.
	if cfg.SampleRate == 0 {
		cfg.SampleRate = def.SampleRate
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = def.Profiling.Endpoint
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = def.Profiling.ProfileTypes
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = metrics.DefaultPort
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	cfg.Type = strings.ToLower(cfg.Type)
}

func applyOplockDefaults(cfg *oplock.Config) {
	if cfg.BreakTimeout == 0 {
		cfg.BreakTimeout = oplock.DefaultBreakTimeout
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.TimeZone == "" {
		cfg.TimeZone = "Local"
	}

	def := bufpool.DefaultConfig()
	if cfg.Buffers.NameSize == 0 {
		cfg.Buffers.NameSize = def.NameSize
	}
	if cfg.Buffers.PathSize == 0 {
		cfg.Buffers.PathSize = def.PathSize
	}
	if cfg.Buffers.RequestSize == 0 {
		cfg.Buffers.RequestSize = def.RequestSize
	}
}

func applyIdentityDefaults(cfg *IdentityConfig) {
	if cfg.Username == "" && !cfg.Guest {
		cfg.Username = "guest"
		cfg.Guest = true
	}
}

func applyShareDefaults(cfg *Config) {
	for i := range cfg.Shares {
		s := &cfg.Shares[i]
		s.Name = strings.TrimSpace(s.Name)
		if s.Type == "" {
			s.Type = "disk"
		}
		s.Type = strings.ToLower(s.Type)
	}
}

// GetDefaultConfig returns a Config with all default values applied: an
// in-memory store, one disk share named "data" and the IPC$ share.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Telemetry: telemetry.DefaultConfig(),
		Shares: []ShareConfig{
			{Name: "data", Type: "disk"},
			{Name: "IPC$", Type: "ipc", Comment: "Remote IPC"},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
