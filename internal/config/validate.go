package config

import (
	"fmt"
	"net"

	"github.com/opsgate/opsgate/internal/tool"
)

// Validate checks the configuration for structural problems before any
// component is constructed.
func Validate(cfg *Config) error {
	if _, err := net.ResolveTCPAddr("tcp", cfg.Listen); err != nil {
		return fmt.Errorf("config: invalid listen address %q: %w", cfg.Listen, err)
	}

	if cfg.RateLimits.RequestsPerMin < 0 {
		return fmt.Errorf("config: requests_per_min must be non-negative, got %d",
			cfg.RateLimits.RequestsPerMin)
	}

	// Policy patterns are compiled here so a typo fails at startup,
	// not on the first denied invocation.
	if _, err := tool.NewGate(cfg.Policy.Allow); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}
