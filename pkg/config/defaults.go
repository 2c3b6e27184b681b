package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/acquire/internal/bytesize"
)

// ApplyDefaults fills in any unspecified configuration fields with sensible
// defaults. Explicit (non-zero) values are always preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyHashIndexDefaults(&cfg.HashIndex)
	applyBlobStoreDefaults(&cfg.BlobStore)
	applyMetricsDefaults(&cfg.Metrics)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Engine.MaximumPendingFiles and Engine.MinCallToFileStore are left at
	// zero when unspecified: acquire.Config.normalized() already supplies
	// the engine's own defaults from the same constants, so duplicating
	// them here would just risk the two drifting apart.
}

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

func applyHashIndexDefaults(cfg *HashIndexConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
}

func applyBlobStoreDefaults(cfg *BlobStoreConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// DefaultConfig returns a complete, valid Config with every field at its
// default value. Used when no config file is found.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

const (
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsPort     = 9477
)

// byteSizeDecodeHook lets mapstructure populate bytesize.ByteSize fields
// from human-readable strings like "1Gi" or "500MB" in the config file,
// the same convention bytesize.ParseByteSize parses everywhere else.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		s, ok := data.(string)
		if !ok {
			return data, nil
		}
		return bytesize.ParseByteSize(s)
	}
}
