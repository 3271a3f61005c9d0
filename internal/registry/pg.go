package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const filtersQuery = `
SELECT filter_key, filter_name, COALESCE(category, ''), operator_family,
       source_table, source_columns, COALESCE(sql_template, ''),
       COALESCE(allowed_values, '{}'), COALESCE(nlq_aliases, '{}'),
       COALESCE(description, ''), is_active, priority
FROM filter_registry
WHERE is_active = true
ORDER BY priority DESC, filter_key`

const joinsQuery = `
SELECT source_table, table_alias, join_clause, COALESCE(extra_columns, '{}')
FROM filter_joins
ORDER BY source_table`

// pgSource reads registry metadata from the filter_registry and filter_joins
// tables.
type pgSource struct {
	pool *pgxpool.Pool
}

// NewPgSource creates a Source backed by the given Postgres pool.
func NewPgSource(pool *pgxpool.Pool) Source {
	return &pgSource{pool: pool}
}

func (s *pgSource) FetchFilters(ctx context.Context) ([]FilterDefinition, error) {
	rows, err := s.pool.Query(ctx, filtersQuery)
	if err != nil {
		return nil, fmt.Errorf("query filter_registry: %w", err)
	}
	defer rows.Close()

	var defs []FilterDefinition
	for rows.Next() {
		var (
			def    FilterDefinition
			family string
		)
		if err := rows.Scan(
			&def.Key, &def.Name, &def.Category, &family,
			&def.SourceTable, &def.SourceColumns, &def.SQLTemplate,
			&def.AllowedValues, &def.Aliases,
			&def.Description, &def.Active, &def.Priority,
		); err != nil {
			return nil, fmt.Errorf("scan filter definition: %w", err)
		}
		def.Family = Family(family)
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (s *pgSource) FetchJoins(ctx context.Context) ([]JoinDefinition, error) {
	rows, err := s.pool.Query(ctx, joinsQuery)
	if err != nil {
		return nil, fmt.Errorf("query filter_joins: %w", err)
	}
	defer rows.Close()

	var defs []JoinDefinition
	for rows.Next() {
		var jd JoinDefinition
		if err := rows.Scan(&jd.Table, &jd.Alias, &jd.JoinClause, &jd.ExtraColumns); err != nil {
			return nil, fmt.Errorf("scan join definition: %w", err)
		}
		defs = append(defs, jd)
	}
	return defs, rows.Err()
}
