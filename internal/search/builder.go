package search

import (
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/scoutdata/parcelscout/internal/registry"
)

// baseColumns is the fixed projection of the properties table.
var baseColumns = []string{
	"p.parcel_id", "p.address_full", "p.address_city", "p.address_state",
	"p.address_zip", "p.latitude", "p.longitude",
	"p.property_use_standardized", "p.property_use_group",
	"p.year_built", "p.bedrooms_count", "p.bath_count",
	"p.area_building", "p.area_lot_sf", "p.area_lot_acres",
	"p.tax_assessed_value_total", "p.last_sale_date", "p.last_sale_price",
	"p.zoning", "p.flood_zone", "p.in_floodplain",
}

// sortableBaseColumns whitelists base-table columns accepted as sort fields.
var sortableBaseColumns = map[string]bool{
	"parcel_id": true, "address_full": true, "address_city": true,
	"address_state": true, "address_zip": true, "latitude": true,
	"longitude": true, "property_use_standardized": true,
	"property_use_group": true, "year_built": true, "bedrooms_count": true,
	"bath_count": true, "area_building": true, "area_lot_sf": true,
	"area_lot_acres": true, "tax_assessed_value_total": true,
	"last_sale_date": true, "last_sale_price": true, "zoning": true,
	"flood_zone": true, "in_floodplain": true,
}

// Builder compiles validated filters into a query plan.
type Builder struct {
	registry *registry.Store
	limits   Limits
}

// NewBuilder creates a Builder reading join and sort metadata from the given
// registry store, using the built-in page size bounds.
func NewBuilder(store *registry.Store) *Builder {
	return NewBuilderWithLimits(store, DefaultLimits())
}

// NewBuilderWithLimits creates a Builder with configured page size bounds.
func NewBuilderWithLimits(store *registry.Store, limits Limits) *Builder {
	return &Builder{registry: store, limits: limits}
}

// joinSet accumulates the deduplicated joins a query needs, in first-use
// order, along with the extra projection columns each joined table
// contributes.
type joinSet struct {
	seen    map[string]bool
	clauses []string
	extra   []string
}

func newJoinSet() *joinSet {
	return &joinSet{seen: make(map[string]bool)}
}

// add registers a table's join. Unknown tables fail closed: silently skipping
// the join would drop the predicate and broaden the result set.
func (js *joinSet) add(table string, reg *registry.Store) error {
	if table == "" || table == registry.BaseTable || js.seen[table] {
		return nil
	}
	jd, err := reg.Join(table)
	if err != nil {
		if errors.Is(err, registry.ErrNotLoaded) {
			return err
		}
		return &MissingJoinError{Table: table}
	}
	js.seen[table] = true
	js.clauses = append(js.clauses, jd.JoinClause)
	js.extra = append(js.extra, jd.ExtraColumns...)
	return nil
}

// Build assembles the data query and the structurally matching count query.
// Parameter positions are assigned once, left to right: spatial clause first,
// then each filter clause in input order. Both SQL texts bind the same
// Params slice.
func (b *Builder) Build(filters []ValidatedFilter, spatial *Spatial, sort *Sort, limit int) (*Plan, error) {
	joins := newJoinSet()
	for _, f := range filters {
		if err := joins.add(f.Definition.SourceTable, b.registry); err != nil {
			return nil, err
		}
	}

	// The WHERE conjunction always opens with an always-true predicate so a
	// request with no filters and no spatial descriptor stays well-formed.
	conds := sq.And{sq.Expr("1=1")}

	spatialCond, err := spatialExpr(spatial)
	if err != nil {
		return nil, err
	}
	if spatialCond != nil {
		conds = append(conds, spatialCond)
	}

	for _, f := range filters {
		cond, err := b.filterExpr(f)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}

	// Sort resolution may pull in a join (and its extra columns) that no
	// filter triggered, so it must run before the projection is fixed.
	orderBy, err := b.resolveSort(sort, joins)
	if err != nil {
		return nil, err
	}

	selectCols := append(append([]string{}, baseColumns...), joins.extra...)

	dataQuery := sq.Select(selectCols...).From(registry.BaseTable + " " + registry.BaseAlias)
	for _, clause := range joins.clauses {
		dataQuery = dataQuery.JoinClause(clause)
	}
	dataQuery = dataQuery.Where(conds)
	if orderBy != "" {
		dataQuery = dataQuery.OrderBy(orderBy)
	}
	dataQuery = dataQuery.Limit(uint64(b.limits.clamp(limit)))

	dataSQL, params, err := dataQuery.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	countQuery := sq.Select("COUNT(*) AS total_count").From(registry.BaseTable + " " + registry.BaseAlias)
	for _, clause := range joins.clauses {
		countQuery = countQuery.JoinClause(clause)
	}
	countSQL, _, err := countQuery.Where(conds).PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	return &Plan{DataSQL: dataSQL, CountSQL: countSQL, Params: params}, nil
}

// Compile validates a request and builds its plan in one step.
func (b *Builder) Compile(v *Validator, req Request) ([]ValidatedFilter, *Plan, error) {
	validated, err := v.Validate(req.Filters)
	if err != nil {
		return nil, nil, err
	}
	plan, err := b.Build(validated, req.Spatial, req.Sort, req.Limit)
	if err != nil {
		return nil, nil, err
	}
	return validated, plan, nil
}

// resolveSort maps a sort directive onto an alias-qualified column. The field
// must be a whitelisted base column or a registry filter key; a key on a
// joined table extends the join set. Unresolvable fields are rejected, never
// interpolated.
func (b *Builder) resolveSort(sort *Sort, joins *joinSet) (string, error) {
	if sort == nil || sort.Field == "" {
		return "", nil
	}

	var col string
	if sortableBaseColumns[sort.Field] {
		col = registry.BaseAlias + "." + sort.Field
	} else {
		def, err := b.registry.Filter(sort.Field)
		if err != nil {
			if errors.Is(err, registry.ErrNotLoaded) {
				return "", err
			}
			return "", &InvalidSortFieldError{Field: sort.Field}
		}
		if err := joins.add(def.SourceTable, b.registry); err != nil {
			return "", err
		}
		alias, err := b.tableAlias(def.SourceTable)
		if err != nil {
			return "", err
		}
		col = alias + "." + def.Column()
	}

	direction := "DESC"
	if sort.Order == SortAsc {
		direction = "ASC"
	}
	return col + " " + direction, nil
}
