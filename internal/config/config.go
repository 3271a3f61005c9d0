// Package config loads parcelscout configuration from .parcelscout/config.yml
// with environment variable overrides.
package config

import (
	"github.com/scoutdata/parcelscout/internal/database"
)

// Config represents the complete parcelscout configuration.
type Config struct {
	Database database.Config `yaml:"database" mapstructure:"database"`
	Registry RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Cache    CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Search   SearchConfig    `yaml:"search" mapstructure:"search"`
}

// RegistryConfig controls filter registry loading.
type RegistryConfig struct {
	ReloadMinutes int `yaml:"reload_minutes" mapstructure:"reload_minutes"` // 0 disables periodic reload
}

// CacheConfig bounds the in-memory property detail cache.
type CacheConfig struct {
	DetailCapacity   int `yaml:"detail_capacity" mapstructure:"detail_capacity"`       // max cached parcel details
	DetailTTLMinutes int `yaml:"detail_ttl_minutes" mapstructure:"detail_ttl_minutes"` // staleness bound per entry
}

// SearchConfig bounds search result pages.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit"`
	MaxLimit     int `yaml:"max_limit" mapstructure:"max_limit"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Database: database.Config{
			Host:     "localhost",
			Port:     5432,
			User:     "parcelscout",
			Name:     "parcelscout",
			SSLMode:  "prefer",
			MaxConns: 10,
		},
		Registry: RegistryConfig{
			ReloadMinutes: 15,
		},
		Cache: CacheConfig{
			DetailCapacity:   10_000,
			DetailTTLMinutes: 10,
		},
		Search: SearchConfig{
			DefaultLimit: 50,
			MaxLimit:     200,
		},
	}
}
