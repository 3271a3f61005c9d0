package search

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/scoutdata/parcelscout/internal/registry"
)

// tableAlias resolves the SQL alias for a definition's source table. The base
// table has a fixed alias; every other table must carry a join definition.
func (b *Builder) tableAlias(table string) (string, error) {
	if table == "" || table == registry.BaseTable {
		return registry.BaseAlias, nil
	}
	jd, err := b.registry.Join(table)
	if err != nil {
		if _, unknown := err.(*registry.UnknownJoinError); unknown {
			return "", &MissingJoinError{Table: table}
		}
		return "", err
	}
	return jd.Alias, nil
}

// filterExpr renders one validated filter into a parameterized predicate.
// Every branch binds exactly the parameters its placeholders reference;
// squirrel numbers them when the full tree is rendered.
func (b *Builder) filterExpr(vf ValidatedFilter) (sq.Sqlizer, error) {
	def := vf.Definition
	alias, err := b.tableAlias(def.SourceTable)
	if err != nil {
		return nil, err
	}
	col := alias + "." + def.Column()

	switch vf.Operator {
	case OpEq:
		return eqExpr(vf, col)
	case OpNotEq:
		return sq.Expr(col+" != ?", vf.Value), nil
	case OpIn:
		return sq.Expr(col+" = ANY(?)", normalizeList(vf.Value)), nil
	case OpNotIn:
		return sq.Expr("NOT ("+col+" = ANY(?))", normalizeList(vf.Value)), nil
	case OpGt:
		return sq.Expr(col+" > ?", vf.Value), nil
	case OpGte:
		return sq.Expr(col+" >= ?", vf.Value), nil
	case OpLt:
		return sq.Expr(col+" < ?", vf.Value), nil
	case OpLte:
		return sq.Expr(col+" <= ?", vf.Value), nil
	case OpBetween:
		pair, _ := asSlice(vf.Value)
		return sq.Expr(col+" BETWEEN ? AND ?", pair[0], pair[1]), nil
	case OpWithinDays:
		n, _ := asInteger(vf.Value)
		return sq.Expr(col+" BETWEEN NOW() AND NOW() + make_interval(days => ?)", n), nil
	case OpWithinMonths:
		n, _ := asInteger(vf.Value)
		return sq.Expr(col+" BETWEEN NOW() AND NOW() + make_interval(months => ?)", n), nil
	case OpContains:
		return sq.Expr(col+" ILIKE '%' || ? || '%'", vf.Value), nil
	case OpStartsWith:
		return sq.Expr(col+" ILIKE ? || '%'", vf.Value), nil
	default:
		return nil, fmt.Errorf("unhandled operator: %q", vf.Operator)
	}
}

// eqExpr renders the eq operator, which varies by family and canned template.
func eqExpr(vf ValidatedFilter, col string) (sq.Sqlizer, error) {
	def := vf.Definition

	switch def.Family {
	case registry.FamilyBoolean:
		boolVal, _ := asBool(vf.Value)
		if def.SQLTemplate != "" {
			if !def.HasPlaceholder() {
				// Hardcoded derived condition: render as-is when true,
				// negate when false. Binds no parameters.
				if boolVal {
					return sq.Expr(def.SQLTemplate), nil
				}
				return sq.Expr("NOT (" + def.SQLTemplate + ")"), nil
			}
			return sq.Expr(def.SQLTemplate, boolVal), nil
		}
		return sq.Expr(col+" = ?", boolVal), nil

	case registry.FamilyEnum, registry.FamilyTextSearch:
		// Use the canned template only when it is a plain equality or
		// case-insensitive match; anything else falls back to equality on
		// the source column.
		if tpl := def.SQLTemplate; tpl != "" &&
			(strings.Contains(tpl, "= ?") || strings.Contains(tpl, "ILIKE ?")) {
			return sq.Expr(tpl, vf.Value), nil
		}
		return sq.Expr(col+" = ?", vf.Value), nil

	default:
		// numeric_range and date_range eq ignore templates.
		return sq.Expr(col+" = ?", vf.Value), nil
	}
}

// normalizeList converts a JSON-decoded []any into a typed slice when the
// elements are homogeneous, so pgx can encode it as a Postgres array.
func normalizeList(v any) any {
	list, ok := asSlice(v)
	if !ok {
		return v
	}

	strs := make([]string, 0, len(list))
	for _, item := range list {
		s, isStr := item.(string)
		if !isStr {
			strs = nil
			break
		}
		strs = append(strs, s)
	}
	if strs != nil {
		return strs
	}

	nums := make([]float64, 0, len(list))
	for _, item := range list {
		n, isNum := asNumber(item)
		if !isNum {
			return list
		}
		nums = append(nums, n)
	}
	return nums
}
