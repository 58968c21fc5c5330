// Package config provides centralized configuration for the service. Runtime
// settings load from environment variables with defaults and are validated on
// startup to fail fast on misconfiguration; the location timezone table and
// threshold overrides load from a YAML file so operators can add stores
// without code changes.
package config

import (
	"strconv"
	"time"

	"github.com/retailkit/poscanon/internal/pipeline"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Pipeline PipelineConfig
	Upload   UploadConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds the optional Postgres sink settings. An empty URL
// disables persistence; runs still return their full result.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections kept open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// PipelineConfig holds normalization and detection settings.
type PipelineConfig struct {
	// LocationsFile is the YAML file holding the location timezone table and
	// optional threshold overrides (default: locations.yaml)
	LocationsFile string `env:"LOCATIONS_FILE" default:"locations.yaml"`

	// VoidSpikeMultiplier flags days whose void count exceeds this multiple
	// of the location's median daily voids (default: 2.0)
	VoidSpikeMultiplier float64 `env:"VOID_SPIKE_MULTIPLIER" default:"2.0"`

	// HighDiscountThreshold flags discount rates above this fraction (default: 0.30)
	HighDiscountThreshold float64 `env:"HIGH_DISCOUNT_THRESHOLD" default:"0.30"`

	// TaxMismatchTolerance is the currency amount of allowed tax drift (default: 0.05)
	TaxMismatchTolerance float64 `env:"TAX_MISMATCH_TOLERANCE" default:"0.05"`

	// StaffVoidRateThreshold flags staff void rates above this fraction (default: 0.05)
	StaffVoidRateThreshold float64 `env:"STAFF_VOID_RATE_THRESHOLD" default:"0.05"`
}

// UploadConfig holds file upload limits.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// Timeout is the maximum duration for processing one upload (default: 5m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"5m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Thresholds builds the detector thresholds from the environment settings.
func (c *PipelineConfig) Thresholds() pipeline.Thresholds {
	return pipeline.Thresholds{
		VoidSpikeMultiplier:    c.VoidSpikeMultiplier,
		HighDiscountThreshold:  c.HighDiscountThreshold,
		TaxMismatchTolerance:   c.TaxMismatchTolerance,
		StaffVoidRateThreshold: c.StaffVoidRateThreshold,
	}
}
