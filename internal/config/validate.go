package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scoutdata/parcelscout/internal/database"
)

var (
	// ErrInvalidDatabase indicates incomplete database connection settings
	ErrInvalidDatabase = errors.New("invalid database settings")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrInvalidSearchLimits indicates invalid search page limits
	ErrInvalidSearchLimits = errors.New("invalid search limits")

	// ErrInvalidReload indicates an invalid registry reload interval
	ErrInvalidReload = errors.New("invalid registry reload interval")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateDatabase(&cfg.Database); err != nil {
		errs = append(errs, err)
	}
	if cfg.Registry.ReloadMinutes < 0 {
		errs = append(errs, fmt.Errorf("%w: reload_minutes cannot be negative, got %d", ErrInvalidReload, cfg.Registry.ReloadMinutes))
	}
	if err := validateCache(&cfg.Cache); err != nil {
		errs = append(errs, err)
	}
	if err := validateSearch(&cfg.Search); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateDatabase(cfg *database.Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Host) == "" {
		errs = append(errs, fmt.Errorf("%w: host is required", ErrInvalidDatabase))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port must be in 1-65535, got %d", ErrInvalidDatabase, cfg.Port))
	}
	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, fmt.Errorf("%w: database name is required", ErrInvalidDatabase))
	}
	if cfg.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("%w: max_conns cannot be negative, got %d", ErrInvalidDatabase, cfg.MaxConns))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateCache(cfg *CacheConfig) error {
	var errs []error

	if cfg.DetailCapacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: detail_capacity must be positive, got %d", ErrInvalidCacheSettings, cfg.DetailCapacity))
	}
	if cfg.DetailTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("%w: detail_ttl_minutes must be positive, got %d", ErrInvalidCacheSettings, cfg.DetailTTLMinutes))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateSearch(cfg *SearchConfig) error {
	var errs []error

	if cfg.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: default_limit must be positive, got %d", ErrInvalidSearchLimits, cfg.DefaultLimit))
	}
	if cfg.MaxLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_limit must be positive, got %d", ErrInvalidSearchLimits, cfg.MaxLimit))
	}
	if cfg.DefaultLimit > 0 && cfg.MaxLimit > 0 && cfg.DefaultLimit > cfg.MaxLimit {
		errs = append(errs, fmt.Errorf("%w: default_limit (%d) cannot exceed max_limit (%d)", ErrInvalidSearchLimits, cfg.DefaultLimit, cfg.MaxLimit))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
