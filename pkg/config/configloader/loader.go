// Package configloader assembles a service configuration from a YAML file, a .env file and the process environment.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

// Option customizes where the loader looks for its sources.
type Option func(*options)

type options struct {
	configFile string
	envFile    string
}

// WithConfigFile overrides the YAML file path (default "config.yaml").
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithEnvFile overrides the dotenv file path (default ".env").
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// Load reads the configuration for serviceName into a new T and validates it.
// Sources, lowest priority first: YAML file, .env file, process environment.
// Environment keys use the <SERVICE>_ prefix and "_" as the path separator,
// so CART_CATALOG_TIMEOUT maps to catalog.timeout.
func Load[T any, PT interface {
	*T
	Validator
}](serviceName string, opts ...Option) (PT, error) {
	o := options{configFile: "config.yaml", envFile: ".env"}
	if path := os.Getenv(fmt.Sprintf("%s_CONFIG_FILE", strings.ToUpper(serviceName))); path != "" {
		o.configFile = path
	}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")
	envPrefix := fmt.Sprintf("%s_", strings.ToUpper(serviceName))

	// 1. Load configuration from yaml file
	if err := k.Load(file.Provider(o.configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", o.configFile, err)
		}
	}

	// 2. Load environment variables from .env file
	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}
	if envFileMap, err := godotenv.Read(o.envFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			envMap[envTransformer(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 3. Load environment variables from the system, the highest priority
	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	cfg := PT(new(T))
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
