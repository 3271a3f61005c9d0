package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (PARCELSCOUT_*)
// 2. Config file (.parcelscout/config.yml or .parcelscout/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".parcelscout")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// Enable environment variable overrides
	// (e.g., PARCELSCOUT_DATABASE_PASSWORD)
	v.SetEnvPrefix("PARCELSCOUT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.name")
	v.BindEnv("database.sslmode")
	v.BindEnv("database.max_conns")

	v.BindEnv("registry.reload_minutes")

	v.BindEnv("cache.detail_capacity")
	v.BindEnv("cache.detail_ttl_minutes")

	v.BindEnv("search.default_limit")
	v.BindEnv("search.max_limit")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.name", defaults.Database.Name)
	v.SetDefault("database.sslmode", defaults.Database.SSLMode)
	v.SetDefault("database.max_conns", defaults.Database.MaxConns)

	v.SetDefault("registry.reload_minutes", defaults.Registry.ReloadMinutes)

	v.SetDefault("cache.detail_capacity", defaults.Cache.DetailCapacity)
	v.SetDefault("cache.detail_ttl_minutes", defaults.Cache.DetailTTLMinutes)

	v.SetDefault("search.default_limit", defaults.Search.DefaultLimit)
	v.SetDefault("search.max_limit", defaults.Search.MaxLimit)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
