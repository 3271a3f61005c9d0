package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdata/parcelscout/internal/registry"
)

func TestValidateUnknownKey(t *testing.T) {
	t.Parallel()
	v := NewValidator(newTestStore(t))

	_, err := v.Validate([]FilterInput{
		{Key: "no-such-filter", Operator: OpEq, Value: "x"},
	})

	var unknown *UnknownFilterKeyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "no-such-filter", unknown.Key)
}

func TestValidateNotLoaded(t *testing.T) {
	t.Parallel()
	store := registry.NewStore(&stubSource{})
	v := NewValidator(store)

	_, err := v.Validate([]FilterInput{
		{Key: "sqft", Operator: OpGte, Value: 1000},
	})
	require.ErrorIs(t, err, registry.ErrNotLoaded)
}

func TestValidateOperatorFamilies(t *testing.T) {
	t.Parallel()
	v := NewValidator(newTestStore(t))

	tests := []struct {
		name   string
		filter FilterInput
		valid  bool
	}{
		// enum
		{"enum eq", FilterInput{Key: "property-use-group", Operator: OpEq, Value: "Residential"}, true},
		{"enum in", FilterInput{Key: "property-use-group", Operator: OpIn, Value: []any{"Residential", "Commercial"}}, true},
		{"enum not_eq", FilterInput{Key: "property-use-group", Operator: OpNotEq, Value: "Vacant Land"}, true},
		{"enum not_in", FilterInput{Key: "property-use-group", Operator: OpNotIn, Value: []any{"Commercial"}}, true},
		{"enum gt rejected", FilterInput{Key: "property-use-group", Operator: OpGt, Value: "x"}, false},
		{"enum contains rejected", FilterInput{Key: "property-use-group", Operator: OpContains, Value: "Res"}, false},

		// numeric_range
		{"numeric gte", FilterInput{Key: "sqft", Operator: OpGte, Value: float64(1500)}, true},
		{"numeric between", FilterInput{Key: "sqft", Operator: OpBetween, Value: []any{float64(1000), float64(2000)}}, true},
		{"numeric in rejected", FilterInput{Key: "sqft", Operator: OpIn, Value: []any{float64(1)}}, false},
		{"numeric within_days rejected", FilterInput{Key: "sqft", Operator: OpWithinDays, Value: float64(30)}, false},

		// date_range
		{"date lte", FilterInput{Key: "last-sale-date", Operator: OpLte, Value: "2024-06-30"}, true},
		{"date between", FilterInput{Key: "last-sale-date", Operator: OpBetween, Value: []any{"2020-01-01", "2020-12-31"}}, true},
		{"date within_days", FilterInput{Key: "loan-due-date", Operator: OpWithinDays, Value: float64(90)}, true},
		{"date within_months", FilterInput{Key: "loan-due-date", Operator: OpWithinMonths, Value: float64(6)}, true},
		{"date contains rejected", FilterInput{Key: "last-sale-date", Operator: OpContains, Value: "2024"}, false},

		// boolean
		{"boolean eq", FilterInput{Key: "tax-delinquent", Operator: OpEq, Value: true}, true},
		{"boolean in rejected", FilterInput{Key: "tax-delinquent", Operator: OpIn, Value: []any{true}}, false},
		{"boolean gt rejected", FilterInput{Key: "absentee-owner", Operator: OpGt, Value: true}, false},

		// text_search
		{"text contains", FilterInput{Key: "city", Operator: OpContains, Value: "austin"}, true},
		{"text starts_with", FilterInput{Key: "city", Operator: OpStartsWith, Value: "San"}, true},
		{"text eq", FilterInput{Key: "city", Operator: OpEq, Value: "Dallas"}, true},
		{"text between rejected", FilterInput{Key: "city", Operator: OpBetween, Value: []any{"a", "b"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Validate([]FilterInput{tt.filter})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				var badOp *InvalidOperatorError
				assert.ErrorAs(t, err, &badOp)
			}
		})
	}
}

func TestValidateValueShapes(t *testing.T) {
	t.Parallel()
	v := NewValidator(newTestStore(t))

	tests := []struct {
		name   string
		filter FilterInput
		reason string
	}{
		{"between needs pair", FilterInput{Key: "sqft", Operator: OpBetween, Value: []any{float64(1000)}}, "array of exactly 2"},
		{"between rejects scalar", FilterInput{Key: "sqft", Operator: OpBetween, Value: float64(1000)}, "array of exactly 2"},
		{"in needs array", FilterInput{Key: "property-use-group", Operator: OpIn, Value: "Residential"}, "array"},
		{"not_in needs array", FilterInput{Key: "property-use-group", Operator: OpNotIn, Value: "Residential"}, "array"},
		{"boolean rejects string", FilterInput{Key: "tax-delinquent", Operator: OpEq, Value: "yes"}, "boolean"},
		{"numeric rejects string", FilterInput{Key: "sqft", Operator: OpGte, Value: "1500"}, "numeric"},
		{"date rejects garbage", FilterInput{Key: "last-sale-date", Operator: OpGte, Value: "last summer"}, "ISO-8601"},
		{"date rejects number", FilterInput{Key: "last-sale-date", Operator: OpGte, Value: float64(2024)}, "ISO-8601"},
		{"within_days rejects zero", FilterInput{Key: "loan-due-date", Operator: OpWithinDays, Value: float64(0)}, "positive integer"},
		{"within_days rejects fraction", FilterInput{Key: "loan-due-date", Operator: OpWithinDays, Value: 2.5}, "positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Validate([]FilterInput{tt.filter})
			var badValue *InvalidValueError
			require.ErrorAs(t, err, &badValue)
			assert.Contains(t, badValue.Reason, tt.reason)
		})
	}
}

func TestValidateAcceptsStringBooleans(t *testing.T) {
	t.Parallel()
	v := NewValidator(newTestStore(t))

	for _, value := range []any{true, false, "true", "false"} {
		validated, err := v.Validate([]FilterInput{
			{Key: "absentee-owner", Operator: OpEq, Value: value},
		})
		require.NoError(t, err)
		require.Len(t, validated, 1)
	}
}

func TestValidateFailFastKeepsOrder(t *testing.T) {
	t.Parallel()
	v := NewValidator(newTestStore(t))

	// Second filter is invalid: nothing is returned, not even the valid first.
	_, err := v.Validate([]FilterInput{
		{Key: "sqft", Operator: OpGte, Value: float64(1000)},
		{Key: "sqft", Operator: OpIn, Value: []any{float64(1)}},
	})
	require.Error(t, err)

	validated, err := v.Validate([]FilterInput{
		{Key: "year-built", Operator: OpGte, Value: float64(1990)},
		{Key: "city", Operator: OpContains, Value: "austin"},
	})
	require.NoError(t, err)
	require.Len(t, validated, 2)
	assert.Equal(t, "year-built", validated[0].Key)
	assert.Equal(t, "city", validated[1].Key)
	assert.Equal(t, registry.FamilyTextSearch, validated[1].Definition.Family)
}

func TestValidateEmptyList(t *testing.T) {
	t.Parallel()
	v := NewValidator(newTestStore(t))

	validated, err := v.Validate(nil)
	require.NoError(t, err)
	assert.Empty(t, validated)
}
