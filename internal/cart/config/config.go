package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/rocketcart/pkg/config"
	"github.com/abgdnv/rocketcart/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Storage drivers.
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Notification drivers.
const (
	NotifyLog  = "log"
	NotifyNATS = "nats"
)

type Config struct {
	HTTPServer    config.HTTPConfig       `koanf:"server"`
	GRPC          config.GrpcServerConfig `koanf:"grpc"`
	Catalog       config.HTTPClientConfig `koanf:"catalog"`
	Resilience    config.ResilienceConfig `koanf:"resilience"`
	Cart          CartConfig              `koanf:"cart"`
	Storage       StorageConfig           `koanf:"storage"`
	Database      config.DatabaseConfig   `koanf:"database"`
	Redis         config.RedisConfig      `koanf:"redis"`
	Notifications NotificationsConfig     `koanf:"notifications"`
	NATS          config.NATSConfig       `koanf:"nats"`
	Log           config.LogConfig        `koanf:"log"`
	PProf         config.PProfConfig      `koanf:"pprof"`
	Telemetry     config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown      config.ShutdownConfig   `koanf:"shutdown"`
}

// CartConfig tunes the Cart Store.
type CartConfig struct {
	// FetchTimeout bounds each catalog call made by a mutation.
	FetchTimeout time.Duration `koanf:"fetchtimeout"`
	// PublishEvents sends cart.updated events over NATS.
	PublishEvents bool `koanf:"publishevents"`
}

// StorageConfig selects where the cart snapshot lives.
type StorageConfig struct {
	Driver string `koanf:"driver"`
	Key    string `koanf:"key"`
	// Dir is the directory of the file driver.
	Dir string `koanf:"dir"`
}

type NotificationsConfig struct {
	Driver string `koanf:"driver"`
}

// UsesNATS reports whether any component needs a NATS connection.
func (c *Config) UsesNATS() bool {
	return c.Notifications.Driver == NotifyNATS || c.Cart.PublishEvents
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(c.Catalog.String())
	b.WriteString(c.Resilience.String())
	b.WriteString("\n--- Cart ---\n")
	b.WriteString(fmt.Sprintf("  cart.fetchtimeout: %s\n", c.Cart.FetchTimeout))
	b.WriteString(fmt.Sprintf("  cart.publishevents: %t\n", c.Cart.PublishEvents))
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  storage.driver: %s\n", c.Storage.Driver))
	b.WriteString(fmt.Sprintf("  storage.key: %s\n", c.Storage.Key))
	b.WriteString(fmt.Sprintf("  storage.dir: %s\n", c.Storage.Dir))
	switch c.Storage.Driver {
	case StoragePostgres:
		b.WriteString(c.Database.String())
	case StorageRedis:
		b.WriteString(c.Redis.String())
	}
	b.WriteString("\n--- Notifications ---\n")
	b.WriteString(fmt.Sprintf("  notifications.driver: %s\n", c.Notifications.Driver))
	if c.UsesNATS() {
		b.WriteString(c.NATS.String())
	}
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid and fills in driver defaults.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.GRPC.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	if c.Cart.FetchTimeout < 0 {
		return fmt.Errorf("invalid cart fetch timeout: %s", c.Cart.FetchTimeout)
	}
	switch c.Storage.Driver {
	case "", StorageFile:
		c.Storage.Driver = StorageFile
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage directory is not configured")
		}
	case StorageMemory:
	case StorageRedis:
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	case StoragePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}
	switch c.Notifications.Driver {
	case "":
		c.Notifications.Driver = NotifyLog
	case NotifyLog, NotifyNATS:
	default:
		return fmt.Errorf("unknown notifications driver: %q", c.Notifications.Driver)
	}
	if c.UsesNATS() {
		if err := c.NATS.Validate(); err != nil {
			return err
		}
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
