package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNotLoaded is returned by every lookup until Load has succeeded at least
// once. Dependent components must fail loudly rather than compile queries
// against an empty registry.
var ErrNotLoaded = errors.New("filter registry not loaded")

// UnknownFilterError indicates a filter key absent from the active registry.
type UnknownFilterError struct {
	Key string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("unknown filter key: %q", e.Key)
}

// UnknownJoinError indicates a source table with no registered join clause.
type UnknownJoinError struct {
	Table string
}

func (e *UnknownJoinError) Error() string {
	return fmt.Sprintf("no join definition for table: %q", e.Table)
}

// Source fetches the two metadata sets backing the registry. It is an
// interface so tests can load a Store from fixtures instead of Postgres.
type Source interface {
	FetchFilters(ctx context.Context) ([]FilterDefinition, error)
	FetchJoins(ctx context.Context) ([]JoinDefinition, error)
}

// snapshot is the immutable unit of caching. A snapshot is built once during
// Load and never mutated afterwards.
type snapshot struct {
	filters  []FilterDefinition
	byKey    map[string]FilterDefinition
	joins    map[string]JoinDefinition
	version  uint64
	loadedAt time.Time
}

// Store is the process-wide registry cache. Lookups read the current snapshot
// through an atomic pointer; Load replaces it wholesale, so concurrent
// readers see either the old or the new registry in full.
type Store struct {
	source  Source
	snap    atomic.Pointer[snapshot]
	version atomic.Uint64
}

// NewStore creates an unloaded Store backed by the given source.
func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Load fetches both metadata sets and atomically replaces the cached
// snapshot. If either fetch fails the current snapshot is left untouched, so
// a failed reload never leaves a partial cache behind.
func (s *Store) Load(ctx context.Context) error {
	var (
		filters []FilterDefinition
		joins   []JoinDefinition
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		filters, err = s.source.FetchFilters(ctx)
		if err != nil {
			return fmt.Errorf("fetch filter definitions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		joins, err = s.source.FetchJoins(ctx)
		if err != nil {
			return fmt.Errorf("fetch join definitions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	byKey := make(map[string]FilterDefinition, len(filters))
	for _, def := range filters {
		if _, dup := byKey[def.Key]; dup {
			return fmt.Errorf("duplicate filter key in registry: %q", def.Key)
		}
		if !def.Family.IsValid() {
			return fmt.Errorf("filter %q has unknown operator family %q", def.Key, def.Family)
		}
		byKey[def.Key] = def
	}

	joinsByTable := make(map[string]JoinDefinition, len(joins))
	for _, jd := range joins {
		if _, dup := joinsByTable[jd.Table]; dup {
			return fmt.Errorf("duplicate join definition for table: %q", jd.Table)
		}
		joinsByTable[jd.Table] = jd
	}

	s.snap.Store(&snapshot{
		filters:  filters,
		byKey:    byKey,
		joins:    joinsByTable,
		version:  s.version.Add(1),
		loadedAt: time.Now(),
	})
	log.Printf("[registry] loaded %d filters, %d join clauses", len(filters), len(joinsByTable))
	return nil
}

// Reload re-runs Load for periodic refresh callers. A failure is logged and
// the previous snapshot stays active.
func (s *Store) Reload(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		log.Printf("[registry] reload failed, keeping previous snapshot: %v", err)
	}
}

// Loaded reports whether a snapshot is available.
func (s *Store) Loaded() bool {
	return s.snap.Load() != nil
}

// Filter returns the active definition for key, ErrNotLoaded if no snapshot
// exists, or an UnknownFilterError.
func (s *Store) Filter(key string) (FilterDefinition, error) {
	snap := s.snap.Load()
	if snap == nil {
		return FilterDefinition{}, ErrNotLoaded
	}
	def, ok := snap.byKey[key]
	if !ok {
		return FilterDefinition{}, &UnknownFilterError{Key: key}
	}
	return def, nil
}

// Join returns the join definition for a source table, ErrNotLoaded if no
// snapshot exists, or an UnknownJoinError.
func (s *Store) Join(table string) (JoinDefinition, error) {
	snap := s.snap.Load()
	if snap == nil {
		return JoinDefinition{}, ErrNotLoaded
	}
	jd, ok := snap.joins[table]
	if !ok {
		return JoinDefinition{}, &UnknownJoinError{Table: table}
	}
	return jd, nil
}

// Filters returns all active definitions in registry priority order.
func (s *Store) Filters() ([]FilterDefinition, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap.filters, nil
}

// filterSummary is the catalog shape served to the natural-language
// extraction collaborator. It deliberately omits SQL details.
type filterSummary struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Type        Family   `json:"type"`
	Aliases     []string `json:"aliases,omitempty"`
	Values      []string `json:"values,omitempty"`
	Description string   `json:"description,omitempty"`
}

// DescribeByCategory serializes the active definitions grouped by category.
// The output is a read-only export consumed by the NL-extraction collaborator
// when it maps free text onto filter keys; the compiler itself never reads it.
func (s *Store) DescribeByCategory() (string, error) {
	filters, err := s.Filters()
	if err != nil {
		return "", err
	}

	grouped := make(map[string][]filterSummary)
	for _, def := range filters {
		category := def.Category
		if category == "" {
			category = "uncategorized"
		}
		grouped[category] = append(grouped[category], filterSummary{
			Key:         def.Key,
			Name:        def.Name,
			Type:        def.Family,
			Aliases:     def.Aliases,
			Values:      def.AllowedValues,
			Description: def.Description,
		})
	}

	data, err := json.Marshal(grouped)
	if err != nil {
		return "", fmt.Errorf("marshal registry catalog: %w", err)
	}
	return string(data), nil
}
