package gateway

import "time"

// Config holds the HTTP gateway configuration.
type Config struct {
	// Bind is the listen address. Defaults to loopback.
	Bind string `yaml:"bind"`

	// APIKey authenticates callers via the X-API-Key header.
	// The tool, confirm, and discovery endpoints are not mounted
	// without it.
	APIKey string `yaml:"api_key"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}
