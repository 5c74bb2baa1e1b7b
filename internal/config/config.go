// Package config defines the cgloom command line configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/jcalabro/cgloom/registry"
	"github.com/jcalabro/cgloom/store"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Defaults.
const (
	DefaultBackend        = BackendFile
	DefaultRecord         = registry.DefaultRecord
	DefaultFilterSize     = registry.DefaultSize
	DefaultFilterHashes   = registry.DefaultK
	DefaultFileDir        = ".cgloom"
	DefaultRedisURL       = "redis://localhost:6379/0"
	DefaultLogLevel       = "info"
	DefaultCompress       = false
	DefaultMaxRecordBytes = 0
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full command line configuration.
type Config struct {
	Backend        string            `mapstructure:"backend"`
	Record         string            `mapstructure:"record"`
	Compress       bool              `mapstructure:"compress"`
	MaxRecordBytes int               `mapstructure:"max_record_bytes"`
	Filter         FilterConfig      `mapstructure:"filter"`
	File           FileConfig        `mapstructure:"file"`
	Redis          store.RedisConfig `mapstructure:"redis"`
	Log            LogConfig         `mapstructure:"log"`
}

// FilterConfig holds the shape of a freshly created filter.
type FilterConfig struct {
	Size   uint64 `mapstructure:"size"`
	Hashes uint64 `mapstructure:"hashes"`
}

// FileConfig configures the file backend.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	NoColor bool   `mapstructure:"no_color"`
}

// Validate checks the configuration for values the tool cannot use.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}

	if err := store.ValidateKey(c.Record); err != nil {
		return fmt.Errorf("%w: record: %w", ErrInvalidConfig, err)
	}
	if c.Filter.Size == 0 {
		return fmt.Errorf("%w: filter.size must be positive", ErrInvalidConfig)
	}
	if c.Filter.Hashes == 0 {
		return fmt.Errorf("%w: filter.hashes must be positive", ErrInvalidConfig)
	}
	if c.MaxRecordBytes < 0 {
		return fmt.Errorf("%w: max_record_bytes must not be negative", ErrInvalidConfig)
	}
	if c.Backend == BackendFile && c.File.Dir == "" {
		return fmt.Errorf("%w: file.dir is required for the file backend", ErrInvalidConfig)
	}
	if c.Backend == BackendRedis && c.Redis.URL == "" {
		return fmt.Errorf("%w: redis.url is required for the redis backend", ErrInvalidConfig)
	}

	return nil
}
