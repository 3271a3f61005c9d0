package search

import (
	"context"
	"errors"
	"log"

	sq "github.com/Masterminds/squirrel"

	"github.com/scoutdata/parcelscout/internal/database"
	"github.com/scoutdata/parcelscout/internal/registry"
)

// Insight reports how many of the returned parcels also satisfy some other
// registered condition, e.g. "12 of the 50 results are tax delinquent".
type Insight struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int64  `json:"count"`
	Total int    `json:"total"`
}

// errSkipInsight marks a requested insight key that cannot produce a count,
// either because the key is unknown or its family has no insight semantics.
var errSkipInsight = errors.New("insight not computable for key")

// InsightRunner computes per-result-set insight counts. Insights are best
// effort: a key that cannot be computed, or whose query fails, is skipped with
// a log line rather than failing the search.
type InsightRunner struct {
	registry *registry.Store
	db       *database.DB
}

// NewInsightRunner creates an InsightRunner over the given registry and
// database handle.
func NewInsightRunner(store *registry.Store, db *database.DB) *InsightRunner {
	return &InsightRunner{registry: store, db: db}
}

// Run computes insight counts for the given parcel ids. An empty result set
// short-circuits to no insights without touching the database.
func (r *InsightRunner) Run(ctx context.Context, parcelIDs []int64, keys []string) []Insight {
	insights := make([]Insight, 0, len(keys))
	if len(parcelIDs) == 0 {
		return insights
	}

	for _, key := range keys {
		query, args, label, err := r.insightQuery(key, parcelIDs)
		if err != nil {
			if !errors.Is(err, errSkipInsight) {
				log.Printf("[insights] skipping %q: %v", key, err)
			}
			continue
		}

		var count int64
		if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
			log.Printf("[insights] query for %q failed: %v", key, err)
			continue
		}
		insights = append(insights, Insight{
			Key:   key,
			Label: label,
			Count: count,
			Total: len(parcelIDs),
		})
	}
	return insights
}

// insightQuery builds the count query for one insight key. Only boolean and
// date_range filters have a sensible insight reading; everything else is
// skipped. Date-range insights count parcels whose date falls within the next
// twelve months.
func (r *InsightRunner) insightQuery(key string, parcelIDs []int64) (string, []any, string, error) {
	def, err := r.registry.Filter(key)
	if err != nil {
		if errors.Is(err, registry.ErrNotLoaded) {
			return "", nil, "", err
		}
		return "", nil, "", errSkipInsight
	}

	var cond sq.Sqlizer
	switch def.Family {
	case registry.FamilyBoolean:
		if def.SQLTemplate != "" {
			if def.HasPlaceholder() {
				cond = sq.Expr(def.SQLTemplate, true)
			} else {
				cond = sq.Expr(def.SQLTemplate)
			}
		} else {
			col, aliasErr := r.insightColumn(def)
			if aliasErr != nil {
				return "", nil, "", aliasErr
			}
			cond = sq.Expr(col + " = TRUE")
		}
	case registry.FamilyDateRange:
		col, aliasErr := r.insightColumn(def)
		if aliasErr != nil {
			return "", nil, "", aliasErr
		}
		cond = sq.Expr(col + " BETWEEN NOW() AND NOW() + INTERVAL '12 months'")
	default:
		return "", nil, "", errSkipInsight
	}

	query := sq.Select("COUNT(DISTINCT p.parcel_id)").
		From(registry.BaseTable + " " + registry.BaseAlias)
	if def.SourceTable != "" && def.SourceTable != registry.BaseTable {
		jd, joinErr := r.registry.Join(def.SourceTable)
		if joinErr != nil {
			return "", nil, "", &MissingJoinError{Table: def.SourceTable}
		}
		query = query.JoinClause(jd.JoinClause)
	}

	sql, args, err := query.
		Where(sq.And{
			sq.Expr("p.parcel_id = ANY(?)", parcelIDs),
			cond,
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", nil, "", err
	}
	return sql, args, def.Name, nil
}

func (r *InsightRunner) insightColumn(def registry.FilterDefinition) (string, error) {
	alias := registry.BaseAlias
	if def.SourceTable != "" && def.SourceTable != registry.BaseTable {
		jd, err := r.registry.Join(def.SourceTable)
		if err != nil {
			return "", &MissingJoinError{Table: def.SourceTable}
		}
		alias = jd.Alias
	}
	return alias + "." + def.Column(), nil
}
