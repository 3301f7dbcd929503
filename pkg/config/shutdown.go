package config

import (
	"fmt"
	"time"
)

// maxShutdownTimeout is the upper bound of ShutdownConfig.Timeout.
const maxShutdownTimeout = 2 * time.Minute

// ShutdownConfig bounds the graceful stop of every server and the telemetry flush.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	return fmt.Sprintf("\n--- Shutdown ---\n  shutdown.timeout: %s\n", c.Timeout)
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 || c.Timeout > maxShutdownTimeout {
		return fmt.Errorf("shutdown timeout must be in (0, %s], got %s", maxShutdownTimeout, c.Timeout)
	}
	return nil
}

