package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/scoutdata/parcelscout/internal/config"
	"github.com/scoutdata/parcelscout/internal/database"
	"github.com/scoutdata/parcelscout/internal/property"
	"github.com/scoutdata/parcelscout/internal/registry"
	"github.com/scoutdata/parcelscout/internal/search"
)

// app bundles the wired services every command needs.
type app struct {
	cfg      *config.Config
	db       *database.DB
	registry *registry.Store
	searches *search.Service
	props    *property.Service
}

// bootstrap loads configuration, connects to the database, and loads the
// filter registry. Every command that touches the database goes through it.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := registry.NewStore(registry.NewPgSource(db.Pool))
	if err := store.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load filter registry: %w", err)
	}

	props, err := property.NewService(db,
		cfg.Cache.DetailCapacity,
		time.Duration(cfg.Cache.DetailTTLMinutes)*time.Minute)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create property service: %w", err)
	}

	limits := search.Limits{
		Default: cfg.Search.DefaultLimit,
		Max:     cfg.Search.MaxLimit,
	}

	return &app{
		cfg:      cfg,
		db:       db,
		registry: store,
		searches: search.NewService(store, db, limits),
		props:    props,
	}, nil
}

// close releases the app's resources in reverse construction order.
func (a *app) close() {
	if a.props != nil {
		a.props.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// startRegistryReload re-loads the filter registry on a fixed interval until
// the context is canceled. A failed reload keeps the previous snapshot.
func (a *app) startRegistryReload(ctx context.Context) {
	interval := time.Duration(a.cfg.Registry.ReloadMinutes) * time.Minute
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.registry.Reload(ctx)
			}
		}
	}()
}
