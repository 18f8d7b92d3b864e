// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Import    ImportConfig
	Scheduler SchedulerConfig
	Drop      DropConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For headers are honored
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	URL string `envconfig:"DATABASE_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `envconfig:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `envconfig:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending migrations on server start (default: true)
	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// ImportConfig holds file import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 50MB)
	MaxFileSize int64 `envconfig:"IMPORT_MAX_FILE_SIZE" default:"52428800"`

	// DefaultDelimiter is used for new schedules that do not set one (default: ,)
	DefaultDelimiter string `envconfig:"IMPORT_DEFAULT_DELIMITER" default:","`

	// PreviewLimit is the number of records returned by a preview (default: 10)
	PreviewLimit int `envconfig:"IMPORT_PREVIEW_LIMIT" default:"10"`

	// ServiceTypes is the comma-separated set of accepted service type codes
	ServiceTypes []string `envconfig:"IMPORT_SERVICE_TYPES" default:"meter_exchange,meter_install,meter_repair,meter_read,inspection"`

	// DefaultServiceType replaces unrecognized service types (default: meter_exchange)
	DefaultServiceType string `envconfig:"IMPORT_DEFAULT_SERVICE_TYPE" default:"meter_exchange"`

	// RunTimeout bounds a single import run; 0 disables the limit (default: 0)
	RunTimeout time.Duration `envconfig:"IMPORT_RUN_TIMEOUT" default:"0s"`

	// MaxConcurrentAdHoc caps parallel ad-hoc imports and previews (default: 5)
	MaxConcurrentAdHoc int `envconfig:"IMPORT_MAX_CONCURRENT_ADHOC" default:"5"`

	// AdHocWait is how long a request waits for a free import slot (default: 30s)
	AdHocWait time.Duration `envconfig:"IMPORT_ADHOC_WAIT" default:"30s"`
}

// SchedulerConfig holds polling scheduler settings.
type SchedulerConfig struct {
	// Enabled starts the polling loop with the server (default: true)
	Enabled bool `envconfig:"SCHEDULER_ENABLED" default:"true"`

	// TickInterval is how often schedules are checked; at most 15m (default: 1m)
	TickInterval time.Duration `envconfig:"SCHEDULER_TICK_INTERVAL" default:"1m"`

	// JitterStdev spreads ticks of several replicas apart; 0 disables it (default: 0)
	JitterStdev time.Duration `envconfig:"SCHEDULER_JITTER_STDEV" default:"0s"`

	// MaxConcurrentRuns caps schedules executed in parallel per tick (default: 4)
	MaxConcurrentRuns int `envconfig:"SCHEDULER_MAX_CONCURRENT_RUNS" default:"4"`
}

// DropConfig selects and configures the drop location provider.
type DropConfig struct {
	// Provider is fs or minio (default: fs)
	Provider string `envconfig:"DROP_PROVIDER" default:"fs"`

	// RootDir holds one subdirectory per project for the fs provider (default: ./drop)
	RootDir string `envconfig:"DROP_ROOT_DIR" default:"./drop"`

	// Endpoint is the S3-compatible host:port for the minio provider
	Endpoint string `envconfig:"DROP_ENDPOINT"`

	// AccessKey is the access key for the minio provider
	AccessKey string `envconfig:"DROP_ACCESS_KEY"`

	// SecretKey is the secret key for the minio provider
	SecretKey string `envconfig:"DROP_SECRET_KEY"`

	// Bucket holds one prefix per project for the minio provider
	Bucket string `envconfig:"DROP_BUCKET"`

	// UseSSL enables TLS for the minio provider (default: true)
	UseSSL bool `envconfig:"DROP_USE_SSL" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
