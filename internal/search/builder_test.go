package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, req Request) *Plan {
	t.Helper()
	store := newTestStore(t)
	_, plan, err := NewBuilder(store).Compile(NewValidator(store), req)
	require.NoError(t, err)
	return plan
}

func TestBuildZipAndEnum(t *testing.T) {
	t.Parallel()
	plan := compile(t, Request{
		Filters: []FilterInput{
			{Key: "property-use-group", Operator: OpEq, Value: "Residential"},
		},
		Spatial: &Spatial{Type: SpatialZip, Code: "78701"},
		Limit:   10,
	})

	assert.Contains(t, plan.DataSQL, "p.address_zip = $1")
	assert.Contains(t, plan.DataSQL, "p.property_use_group = $2")
	assert.Contains(t, plan.DataSQL, "FROM properties p")
	assert.Contains(t, plan.DataSQL, "LIMIT 10")
	assert.Equal(t, []any{"78701", "Residential"}, plan.Params)

	// The count query reuses the same placeholders and param order.
	assert.Contains(t, plan.CountSQL, "COUNT(*) AS total_count")
	assert.Contains(t, plan.CountSQL, "p.address_zip = $1")
	assert.Contains(t, plan.CountSQL, "p.property_use_group = $2")
	assert.NotContains(t, plan.CountSQL, "LIMIT")
	assert.NotContains(t, plan.CountSQL, "ORDER BY")
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()
	req := Request{
		Filters: []FilterInput{
			{Key: "sqft", Operator: OpBetween, Value: []any{float64(1000), float64(2500)}},
			{Key: "year-built", Operator: OpGte, Value: float64(1980)},
			{Key: "tax-delinquent", Operator: OpEq, Value: true},
		},
		Spatial: &Spatial{Type: SpatialBBox, Bounds: []float64{-97.9, 30.1, -97.6, 30.5}},
	}

	first := compile(t, req)
	for range 5 {
		next := compile(t, req)
		assert.Equal(t, first.DataSQL, next.DataSQL)
		assert.Equal(t, first.CountSQL, next.CountSQL)
		assert.Equal(t, first.Params, next.Params)
	}
}

func TestBuildParamOrderSpatialFirst(t *testing.T) {
	t.Parallel()
	plan := compile(t, Request{
		Filters: []FilterInput{
			{Key: "year-built", Operator: OpGte, Value: float64(1990)},
			{Key: "sqft", Operator: OpLt, Value: float64(4000)},
		},
		Spatial: &Spatial{Type: SpatialBBox, Bounds: []float64{-98, 30, -97, 31}},
	})

	// bbox binds (west, east, south, north), then filters in input order.
	assert.Equal(t, []any{float64(-98), float64(-97), float64(30), float64(31), float64(1990), float64(4000)}, plan.Params)
	assert.Contains(t, plan.DataSQL, "p.longitude BETWEEN $1 AND $2")
	assert.Contains(t, plan.DataSQL, "p.latitude BETWEEN $3 AND $4")
	assert.Contains(t, plan.DataSQL, "p.year_built >= $5")
	assert.Contains(t, plan.DataSQL, "p.area_building < $6")
}

func TestBuildSharedWherePlaceholders(t *testing.T) {
	t.Parallel()
	plan := compile(t, Request{
		Filters: []FilterInput{
			{Key: "property-use-group", Operator: OpIn, Value: []any{"Residential", "Vacant Land"}},
			{Key: "estimated-value", Operator: OpGte, Value: float64(250000)},
			{Key: "city", Operator: OpStartsWith, Value: "Round"},
		},
	})

	assert.Equal(t, strings.Count(plan.DataSQL, "$"), strings.Count(plan.CountSQL, "$"),
		"data and count queries must bind the same placeholders")
	assert.Len(t, plan.Params, 3)
}

func TestBuildNoFiltersAlwaysTrueBase(t *testing.T) {
	t.Parallel()
	plan := compile(t, Request{})

	assert.Contains(t, plan.DataSQL, "WHERE (1=1)")
	assert.Empty(t, plan.Params)
	assert.Contains(t, plan.DataSQL, "LIMIT 50")
}

func TestBuildJoinDeduplication(t *testing.T) {
	t.Parallel()
	plan := compile(t, Request{
		Filters: []FilterInput{
			{Key: "tax-delinquent", Operator: OpEq, Value: true},
			{Key: "foreclosure-status", Operator: OpEq, Value: "auction"},
			// Second tax_assessments filter must not add a second join.
			{Key: "tax-delinquent", Operator: OpEq, Value: true},
		},
	})

	assert.Equal(t, 1, strings.Count(plan.DataSQL, "LEFT JOIN tax_assessments"))
	assert.Equal(t, 1, strings.Count(plan.DataSQL, "LEFT JOIN foreclosure_records"))
	// Joined tables contribute their extra projection columns once.
	assert.Equal(t, 1, strings.Count(plan.DataSQL, "ta.tax_delinquent_year,"))
	assert.Contains(t, plan.DataSQL, "fr.foreclosure_status")
	// Count query carries the same joins but not the extra columns.
	assert.Contains(t, plan.CountSQL, "LEFT JOIN tax_assessments")
	assert.NotContains(t, plan.CountSQL, "fr.foreclosure_status,")
}

func TestBuildMissingJoinFailsClosed(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	validated, err := NewValidator(store).Validate([]FilterInput{
		{Key: "permit-type", Operator: OpEq, Value: "demolition"},
	})
	require.NoError(t, err)

	_, err = NewBuilder(store).Build(validated, nil, nil, 0)
	var missing *MissingJoinError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "building_permits", missing.Table)
	assert.False(t, IsClientError(err), "broken registry config is not the caller's fault")
}

func TestBuildBooleanTemplates(t *testing.T) {
	t.Parallel()

	t.Run("hardcoded template true", func(t *testing.T) {
		t.Parallel()
		plan := compile(t, Request{Filters: []FilterInput{
			{Key: "tax-delinquent", Operator: OpEq, Value: true},
		}})
		assert.Contains(t, plan.DataSQL, "ta.tax_delinquent_year IS NOT NULL")
		assert.Empty(t, plan.Params)
	})

	t.Run("hardcoded template false negates", func(t *testing.T) {
		t.Parallel()
		plan := compile(t, Request{Filters: []FilterInput{
			{Key: "tax-delinquent", Operator: OpEq, Value: false},
		}})
		assert.Contains(t, plan.DataSQL, "NOT (ta.tax_delinquent_year IS NOT NULL)")
		assert.Empty(t, plan.Params)
	})

	t.Run("parameterized template binds bool", func(t *testing.T) {
		t.Parallel()
		plan := compile(t, Request{Filters: []FilterInput{
			{Key: "absentee-owner", Operator: OpEq, Value: false},
		}})
		assert.Contains(t, plan.DataSQL, "o.is_absentee_owner = $1")
		assert.Equal(t, []any{false}, plan.Params)
	})

	t.Run("string boolean coerced", func(t *testing.T) {
		t.Parallel()
		plan := compile(t, Request{Filters: []FilterInput{
			{Key: "absentee-owner", Operator: OpEq, Value: "true"},
		}})
		assert.Equal(t, []any{true}, plan.Params)
	})
}

func TestBuildListOperators(t *testing.T) {
	t.Parallel()
	plan := compile(t, Request{
		Filters: []FilterInput{
			{Key: "property-use-group", Operator: OpIn, Value: []any{"Residential", "Commercial"}},
			{Key: "foreclosure-status", Operator: OpNotIn, Value: []any{"bank-owned"}},
		},
	})

	assert.Contains(t, plan.DataSQL, "p.property_use_group = ANY($1)")
	assert.Contains(t, plan.DataSQL, "NOT (fr.foreclosure_status = ANY($2))")
	require.Len(t, plan.Params, 2)
	// Homogeneous string lists are normalized for array binding.
	assert.Equal(t, []string{"Residential", "Commercial"}, plan.Params[0])
	assert.Equal(t, []string{"bank-owned"}, plan.Params[1])
}

func TestBuildDateOperators(t *testing.T) {
	t.Parallel()
	plan := compile(t, Request{
		Filters: []FilterInput{
			{Key: "loan-due-date", Operator: OpWithinMonths, Value: float64(6)},
			{Key: "last-sale-date", Operator: OpBetween, Value: []any{"2020-01-01", "2020-12-31"}},
		},
	})

	assert.Contains(t, plan.DataSQL, "cl.loan_due_date BETWEEN NOW() AND NOW() + make_interval(months => $1)")
	assert.Contains(t, plan.DataSQL, "p.last_sale_date BETWEEN $2 AND $3")
	assert.Equal(t, []any{6, "2020-01-01", "2020-12-31"}, plan.Params)
}

func TestBuildTextOperators(t *testing.T) {
	t.Parallel()
	plan := compile(t, Request{
		Filters: []FilterInput{
			{Key: "city", Operator: OpContains, Value: "spring"},
		},
	})
	assert.Contains(t, plan.DataSQL, "p.address_city ILIKE '%' || $1 || '%'")
	assert.Equal(t, []any{"spring"}, plan.Params)
}

func TestBuildSort(t *testing.T) {
	t.Parallel()

	t.Run("base column descends by default", func(t *testing.T) {
		t.Parallel()
		plan := compile(t, Request{Sort: &Sort{Field: "last_sale_price"}})
		assert.Contains(t, plan.DataSQL, "ORDER BY p.last_sale_price DESC")
	})

	t.Run("explicit ascending", func(t *testing.T) {
		t.Parallel()
		plan := compile(t, Request{Sort: &Sort{Field: "year_built", Order: SortAsc}})
		assert.Contains(t, plan.DataSQL, "ORDER BY p.year_built ASC")
	})

	t.Run("filter key sort pulls its join", func(t *testing.T) {
		t.Parallel()
		plan := compile(t, Request{Sort: &Sort{Field: "estimated-value"}})
		assert.Contains(t, plan.DataSQL, "LEFT JOIN property_valuations pv")
		assert.Contains(t, plan.DataSQL, "ORDER BY pv.estimated_value DESC")
	})

	t.Run("unresolvable field rejected", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		_, err := NewBuilder(store).Build(nil, nil, &Sort{Field: "p.year_built; DROP TABLE properties"}, 0)
		var badSort *InvalidSortFieldError
		require.ErrorAs(t, err, &badSort)
		assert.True(t, IsClientError(err))
	})
}

func TestBuildLimitClamping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{"zero defaults", 0, "LIMIT 50"},
		{"negative floors to one", -5, "LIMIT 1"},
		{"in range passes through", 25, "LIMIT 25"},
		{"above max clamps", 5000, "LIMIT 200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan := compile(t, Request{Limit: tt.limit})
			assert.Contains(t, plan.DataSQL, tt.want)
		})
	}
}

func TestBuildConfiguredLimits(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	b := NewBuilderWithLimits(store, Limits{Default: 20, Max: 100})

	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{"zero uses configured default", 0, "LIMIT 20"},
		{"configured max clamps", 500, "LIMIT 100"},
		{"below max passes through", 75, "LIMIT 75"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan, err := b.Build(nil, nil, nil, tt.limit)
			require.NoError(t, err)
			assert.Contains(t, plan.DataSQL, tt.want)
		})
	}

	// A zero-value Limits falls back to the built-in bounds.
	fallback := NewBuilderWithLimits(store, Limits{})
	plan, err := fallback.Build(nil, nil, nil, 0)
	require.NoError(t, err)
	assert.Contains(t, plan.DataSQL, "LIMIT 50")
}
