// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for opsgate.
package config

// Config is the top-level configuration structure.
type Config struct {
	// Listen is the gateway bind address. Defaults to 127.0.0.1:8080.
	Listen string `yaml:"listen"`

	// APIKey authenticates callers. Required for the tool endpoints
	// to be mounted; typically injected as ${OPSGATE_API_KEY}.
	APIKey string `yaml:"api_key"`

	Database    DatabaseConfig    `yaml:"database"`
	Policy      PolicyConfig      `yaml:"policy"`
	RateLimits  RateLimitConfig   `yaml:"rate_limits"`
	Audit       AuditConfig       `yaml:"audit"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// SeedDemo inserts the demo customers on startup when the customers
	// table is empty.
	SeedDemo bool `yaml:"seed_demo"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	// Path is the database file path. Defaults to opsgate.db in the
	// working directory.
	Path string `yaml:"path"`
}

// PolicyConfig is the tool allow-list.
type PolicyConfig struct {
	// Allow lists glob patterns of permitted tool names.
	// Empty means all tools are allowed.
	Allow []string `yaml:"allow"`
}

// RateLimitConfig holds the per-caller request limit.
type RateLimitConfig struct {
	RequestsPerMin int `yaml:"requests_per_min"`
}

// AuditConfig locates the append-only audit log.
type AuditConfig struct {
	// Path is the JSONL audit log file. Defaults to audit.log next to
	// the database.
	Path string `yaml:"path"`
}

// TracingConfig configures the optional OTLP trace exporter.
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// MaintenanceConfig schedules the housekeeping job.
type MaintenanceConfig struct {
	// Schedule is a five-field cron expression. Defaults to hourly.
	Schedule string `yaml:"schedule"`
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "opsgate.db"
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "audit.log"
	}
	if c.Maintenance.Schedule == "" {
		c.Maintenance.Schedule = "0 * * * *"
	}
}
