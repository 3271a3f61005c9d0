// Package registry loads and caches the metadata that drives property-search
// compilation: filter definitions (which search criteria exist, what operator
// family they belong to, and which table/column they target) and join
// definitions (how to reach each non-base table from the properties table).
//
// The cache is an immutable snapshot swapped atomically on Load, so concurrent
// searches always see either the old or the new registry, never a torn one.
package registry

import "strings"

// BaseTable is the root table every search query selects from.
const BaseTable = "properties"

// BaseAlias is the fixed SQL alias of the base table.
const BaseAlias = "p"

// Family classifies a filter by the operators and value shapes it accepts.
type Family string

const (
	FamilyEnum         Family = "enum"
	FamilyNumericRange Family = "numeric_range"
	FamilyDateRange    Family = "date_range"
	FamilyBoolean      Family = "boolean"
	FamilyTextSearch   Family = "text_search"
)

// IsValid checks if the family is one of the five known operator families.
func (f Family) IsValid() bool {
	switch f {
	case FamilyEnum, FamilyNumericRange, FamilyDateRange, FamilyBoolean, FamilyTextSearch:
		return true
	default:
		return false
	}
}

// FilterDefinition describes one selectable search criterion. The operator
// family is immutable once assigned: changing it would break filter requests
// already compiled by clients against the published catalog.
type FilterDefinition struct {
	Key           string
	Name          string
	Category      string
	Family        Family
	SourceTable   string
	SourceColumns []string
	// SQLTemplate is an optional canned predicate for derived conditions
	// (e.g. "has an active foreclosure record"). Templates use ? value
	// placeholders; a template without placeholders is a hardcoded
	// condition that binds no parameters.
	SQLTemplate   string
	AllowedValues []string
	Aliases       []string
	Description   string
	Active        bool
	Priority      int
}

// Column returns the primary source column of the definition.
func (d FilterDefinition) Column() string {
	if len(d.SourceColumns) == 0 {
		return ""
	}
	return d.SourceColumns[0]
}

// HasPlaceholder reports whether the canned template binds any parameters.
func (d FilterDefinition) HasPlaceholder() bool {
	return strings.Contains(d.SQLTemplate, "?")
}

// JoinDefinition maps a non-base table to the SQL needed to reach it from the
// properties table. The join clause must be self-contained (carry its own ON
// condition) so clauses can be concatenated in any order. ExtraColumns are
// the alias-qualified columns the table contributes to the result projection
// when joined.
type JoinDefinition struct {
	Table        string
	Alias        string
	JoinClause   string
	ExtraColumns []string
}
