package config

import (
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	// Sections are processed one by one so each field reads its tag name
	// without a section prefix.
	sections := []interface{}{
		&cfg.Server, &cfg.Database, &cfg.Import, &cfg.Scheduler, &cfg.Drop, &cfg.Logging,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// normalize trims list entries and lowercases enum-like values.
func (c *Config) normalize() {
	c.Server.TrustedProxies = trimList(c.Server.TrustedProxies)
	c.Import.ServiceTypes = trimList(c.Import.ServiceTypes)
	c.Import.DefaultServiceType = strings.TrimSpace(c.Import.DefaultServiceType)
	c.Drop.Provider = strings.ToLower(strings.TrimSpace(c.Drop.Provider))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	for _, cidr := range c.Server.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is not a CIDR", cidr))
		}
	}

	// Import validation
	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	if utf8.RuneCountInString(c.Import.DefaultDelimiter) != 1 {
		errs = append(errs, fmt.Sprintf("IMPORT_DEFAULT_DELIMITER (%q) must be a single character", c.Import.DefaultDelimiter))
	}
	if c.Import.PreviewLimit <= 0 {
		errs = append(errs, "IMPORT_PREVIEW_LIMIT must be positive")
	}
	if len(c.Import.ServiceTypes) == 0 {
		errs = append(errs, "IMPORT_SERVICE_TYPES must list at least one code")
	} else if !containsString(c.Import.ServiceTypes, c.Import.DefaultServiceType) {
		errs = append(errs, fmt.Sprintf("IMPORT_DEFAULT_SERVICE_TYPE (%q) must be one of IMPORT_SERVICE_TYPES", c.Import.DefaultServiceType))
	}
	if c.Import.RunTimeout < 0 {
		errs = append(errs, "IMPORT_RUN_TIMEOUT must be non-negative")
	}
	if c.Import.MaxConcurrentAdHoc <= 0 {
		errs = append(errs, "IMPORT_MAX_CONCURRENT_ADHOC must be positive")
	}

	// Scheduler validation
	if c.Scheduler.TickInterval <= 0 {
		errs = append(errs, "SCHEDULER_TICK_INTERVAL must be positive")
	}
	if c.Scheduler.JitterStdev < 0 {
		errs = append(errs, "SCHEDULER_JITTER_STDEV must be non-negative")
	}
	if c.Scheduler.MaxConcurrentRuns <= 0 {
		errs = append(errs, "SCHEDULER_MAX_CONCURRENT_RUNS must be positive")
	}

	// Drop location validation
	switch c.Drop.Provider {
	case "fs":
		if c.Drop.RootDir == "" {
			errs = append(errs, "DROP_ROOT_DIR is required for the fs provider")
		}
	case "minio":
		if c.Drop.Endpoint == "" {
			errs = append(errs, "DROP_ENDPOINT is required for the minio provider")
		}
		if c.Drop.Bucket == "" {
			errs = append(errs, "DROP_BUCKET is required for the minio provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("DROP_PROVIDER (%q) must be one of: fs, minio", c.Drop.Provider))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs and drop credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d, AutoMigrate: %v}, ",
		c.Database.MaxConns, c.Database.MinConns, c.Database.AutoMigrate))
	b.WriteString(fmt.Sprintf("Import: {MaxFileSize: %d, ServiceTypes: %v, RunTimeout: %s}, ",
		c.Import.MaxFileSize, c.Import.ServiceTypes, c.Import.RunTimeout))
	b.WriteString(fmt.Sprintf("Scheduler: {Enabled: %v, TickInterval: %s, MaxConcurrentRuns: %d}, ",
		c.Scheduler.Enabled, c.Scheduler.TickInterval, c.Scheduler.MaxConcurrentRuns))
	b.WriteString(fmt.Sprintf("Drop: {Provider: %q, RootDir: %q, Endpoint: %q, Bucket: %q, Credentials: [MASKED]}, ",
		c.Drop.Provider, c.Drop.RootDir, c.Drop.Endpoint, c.Drop.Bucket))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
