package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/rocketcart/pkg/config"
	"github.com/abgdnv/rocketcart/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Store      StoreConfig             `koanf:"store"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

// StoreConfig selects the product store. The memory store is filled from SeedFile when set.
type StoreConfig struct {
	Driver   string `koanf:"driver"`
	SeedFile string `koanf:"seedfile"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString("\n--- Store ---\n")
	b.WriteString(fmt.Sprintf("  store.driver: %s\n", c.Store.Driver))
	b.WriteString(fmt.Sprintf("  store.seedfile: %s\n", c.Store.SeedFile))
	if c.Store.Driver == StorePostgres {
		b.WriteString(c.Database.String())
	}
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.GRPC.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "", StoreMemory:
		c.Store.Driver = StoreMemory
	case StorePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	return nil
}
