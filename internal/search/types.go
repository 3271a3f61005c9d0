// Package search compiles validated filter lists, spatial predicates, and
// sort directives into parameterized Postgres queries, executes them, and
// runs supplementary insight counts over already-selected result sets.
//
// Compilation builds a tree of squirrel expressions with ? placeholders and
// renders it once with dollar numbering, so the data query and the count
// query are guaranteed to share WHERE-clause placeholders in the same order.
package search

import (
	"encoding/json"

	"github.com/scoutdata/parcelscout/internal/registry"
)

// Operator is a comparison requested against a single filter.
type Operator string

const (
	OpEq           Operator = "eq"
	OpNotEq        Operator = "not_eq"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
	OpGt           Operator = "gt"
	OpGte          Operator = "gte"
	OpLt           Operator = "lt"
	OpLte          Operator = "lte"
	OpBetween      Operator = "between"
	OpWithinDays   Operator = "within_days"
	OpWithinMonths Operator = "within_months"
	OpContains     Operator = "contains"
	OpStartsWith   Operator = "starts_with"
)

// allowedOperators is the fixed per-family operator allow-list.
var allowedOperators = map[registry.Family][]Operator{
	registry.FamilyEnum:         {OpEq, OpIn, OpNotEq, OpNotIn},
	registry.FamilyNumericRange: {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
	registry.FamilyDateRange:    {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween, OpWithinDays, OpWithinMonths},
	registry.FamilyBoolean:      {OpEq},
	registry.FamilyTextSearch:   {OpContains, OpStartsWith, OpEq},
}

func operatorAllowed(family registry.Family, op Operator) bool {
	for _, allowed := range allowedOperators[family] {
		if op == allowed {
			return true
		}
	}
	return false
}

// FilterInput is one untrusted (filter key, operator, value) triple, normally
// produced by the NL-extraction collaborator or an API caller.
type FilterInput struct {
	Key      string   `json:"key"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// SpatialType tags the shape of a spatial descriptor.
type SpatialType string

const (
	SpatialBBox    SpatialType = "bbox"
	SpatialZip     SpatialType = "zip"
	SpatialRadius  SpatialType = "radius"
	SpatialPolygon SpatialType = "polygon"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Spatial describes a geographic predicate in one of four shapes. Only the
// fields matching Type are consulted.
type Spatial struct {
	Type SpatialType `json:"type"`
	// Bounds is [west, south, east, north] for bbox.
	Bounds []float64 `json:"bounds,omitempty"`
	// Code is the postal code for zip.
	Code string `json:"code,omitempty"`
	// Center and Meters define a radius search.
	Center *Point  `json:"center,omitempty"`
	Meters float64 `json:"meters,omitempty"`
	// Geometry is a GeoJSON geometry for polygon containment.
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// SortOrder is a sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort names a result ordering. Field must resolve through the base-column
// whitelist or a registry filter key; there is no raw-column fallback.
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order,omitempty"`
}

// Request is one complete search request.
type Request struct {
	Filters  []FilterInput `json:"filters,omitempty"`
	Spatial  *Spatial      `json:"spatial,omitempty"`
	Sort     *Sort         `json:"sort,omitempty"`
	Limit    int           `json:"limit,omitempty"`
	Insights []string      `json:"insights,omitempty"`
}

// ValidatedFilter is a request filter that passed registry validation. It is
// request-scoped and discarded once the plan is built.
type ValidatedFilter struct {
	Key        string
	Operator   Operator
	Value      any
	Definition registry.FilterDefinition
}

// Plan is the compiled query pair. Both texts reference the same parameter
// positions: the count query reuses the data query's WHERE placeholders in
// the same order and binds the identical Params slice.
type Plan struct {
	DataSQL  string
	CountSQL string
	Params   []any
}

// Result limits.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Limits bounds result page sizes. The zero value falls back to the package
// defaults, so deployments only override what they configure.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the built-in page size bounds.
func DefaultLimits() Limits {
	return Limits{Default: DefaultLimit, Max: MaxLimit}
}

// clamp applies the default for an unset limit and clamps into [1, Max].
func (l Limits) clamp(limit int) int {
	def, max := l.Default, l.Max
	if def <= 0 {
		def = DefaultLimit
	}
	if max <= 0 {
		max = MaxLimit
	}
	if limit == 0 {
		limit = def
	}
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
