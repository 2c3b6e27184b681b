// Package config loads the acquisition daemon's static configuration:
// logging, the engine's admission/batching knobs, and the collaborator
// backends (hash index, blob store) it should construct at startup.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (ACQUIRE_*), for keys present in the file
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// When no configuration file is found, the defaults are used as they are
// and environment variables are not consulted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/acquire/internal/bytesize"
)

// Config is the acquisition daemon's static configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ShutdownTimeout bounds how long the daemon waits for its metrics and
	// status HTTP servers to shut down gracefully.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Engine carries the MultiGetFile-equivalent flow's admission and
	// batching knobs, frozen at Start for every flow this daemon runs.
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`

	// HashIndex selects and configures the file-hash-index collaborator.
	HashIndex HashIndexConfig `mapstructure:"hash_index" yaml:"hash_index"`

	// BlobStore selects and configures the blob-store collaborator.
	BlobStore BlobStoreConfig `mapstructure:"blob_store" yaml:"blob_store"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// EngineConfig mirrors acquire.Config, expressed in config-file terms so it
// can be loaded once at startup and handed to every Engine this daemon
// constructs.
type EngineConfig struct {
	// MaximumPendingFiles bounds pendingHashes and pendingFiles
	// independently. Zero means the engine's own default (1000).
	MaximumPendingFiles int `mapstructure:"maximum_pending_files" validate:"omitempty,gt=0" yaml:"maximum_pending_files"`

	// FileSize caps bytes downloaded per file; supports human-readable
	// sizes ("1Gi", "500MB"). Zero means "use stat size".
	FileSize bytesize.ByteSize `mapstructure:"file_size" yaml:"file_size,omitempty"`

	// UseExternalStores is forwarded verbatim to the hash index's
	// CheckHashes calls.
	UseExternalStores bool `mapstructure:"use_external_stores" yaml:"use_external_stores"`

	// MinCallToFileStore overrides the engine's batching threshold default
	// (200). Mostly useful for tests that want to observe batching at
	// small scale; operators should leave this at zero in production.
	MinCallToFileStore int `mapstructure:"min_call_to_file_store" validate:"omitempty,gt=0" yaml:"min_call_to_file_store"`
}

// HashIndexConfig selects and configures the file-hash-index collaborator.
type HashIndexConfig struct {
	// Backend selects the concrete implementation: "memory" or "badger".
	Backend string `mapstructure:"backend" validate:"required,oneof=memory badger" yaml:"backend"`

	// Path is the on-disk directory for the badger backend. Required when
	// Backend is "badger".
	Path string `mapstructure:"path" validate:"required_if=Backend badger" yaml:"path,omitempty"`
}

// BlobStoreConfig selects and configures the blob-store collaborator.
type BlobStoreConfig struct {
	// Backend selects the concrete implementation: "memory", "diskfs", or
	// "s3".
	Backend string `mapstructure:"backend" validate:"required,oneof=memory diskfs s3" yaml:"backend"`

	// Path is the on-disk root directory for the diskfs backend. Required
	// when Backend is "diskfs".
	Path string `mapstructure:"path" validate:"required_if=Backend diskfs" yaml:"path,omitempty"`

	// Bucket is the S3 bucket name. Required when Backend is "s3".
	Bucket string `mapstructure:"bucket" validate:"required_if=Backend s3" yaml:"bucket,omitempty"`

	// KeyPrefix is prepended to every object key in the S3 backend.
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`

	// Region is the AWS region the S3 client targets. Defaults to the SDK's
	// standard credential chain resolution when empty.
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores
	// (MinIO, LocalStack).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
}

// MetricsConfig configures the Prometheus metrics HTTP server. When Enabled
// is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ACQUIRE_*), for keys present in the file
//  2. Configuration file
//  3. Default values
//
// If no configuration file is found, Load returns DefaultConfig unchanged;
// environment variables are then ignored.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := DefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path in YAML form, matching its yaml tags.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: failed to write file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("ACQUIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(DefaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// DefaultConfigDir returns the default search directory for config.yaml:
// $XDG_CONFIG_HOME/acquire, falling back to $HOME/.config/acquire.
func DefaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "acquire")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".acquire")
	}
	return filepath.Join(home, ".config", "acquire")
}

// DefaultConfigPath returns the default config.yaml path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}
