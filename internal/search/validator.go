package search

import (
	"errors"
	"math"
	"reflect"
	"time"

	"github.com/scoutdata/parcelscout/internal/registry"
)

// Validator checks requested filters against the registry before any SQL is
// built. Validation is fail-fast: the first violation aborts the whole
// request with no partial results.
type Validator struct {
	registry *registry.Store
}

// NewValidator creates a Validator reading from the given registry store.
func NewValidator(store *registry.Store) *Validator {
	return &Validator{registry: store}
}

// Validate resolves each filter against the registry and checks operator
// membership and value shape. It returns the full validated list or the
// first violation.
func (v *Validator) Validate(filters []FilterInput) ([]ValidatedFilter, error) {
	validated := make([]ValidatedFilter, 0, len(filters))
	for _, f := range filters {
		def, err := v.registry.Filter(f.Key)
		if err != nil {
			if errors.Is(err, registry.ErrNotLoaded) {
				return nil, err
			}
			return nil, &UnknownFilterKeyError{Key: f.Key}
		}

		if !operatorAllowed(def.Family, f.Operator) {
			return nil, &InvalidOperatorError{Key: f.Key, Operator: f.Operator, Family: def.Family}
		}

		if err := validateValue(f, def.Family); err != nil {
			return nil, err
		}

		validated = append(validated, ValidatedFilter{
			Key:        f.Key,
			Operator:   f.Operator,
			Value:      f.Value,
			Definition: def,
		})
	}
	return validated, nil
}

// validateValue enforces the per-operator value-shape contract.
func validateValue(f FilterInput, family registry.Family) error {
	switch f.Operator {
	case OpBetween:
		list, ok := asSlice(f.Value)
		if !ok || len(list) != 2 {
			return &InvalidValueError{Key: f.Key, Operator: f.Operator, Reason: "requires an array of exactly 2 values"}
		}
		return nil
	case OpIn, OpNotIn:
		if _, ok := asSlice(f.Value); !ok {
			return &InvalidValueError{Key: f.Key, Operator: f.Operator, Reason: "requires an array value"}
		}
		return nil
	}

	switch family {
	case registry.FamilyBoolean:
		if _, ok := asBool(f.Value); !ok {
			return &InvalidValueError{Key: f.Key, Operator: f.Operator, Reason: `requires a boolean value (true, false, "true", or "false")`}
		}
	case registry.FamilyNumericRange:
		if _, ok := asNumber(f.Value); !ok {
			return &InvalidValueError{Key: f.Key, Operator: f.Operator, Reason: "requires a numeric value"}
		}
	case registry.FamilyDateRange:
		if f.Operator == OpWithinDays || f.Operator == OpWithinMonths {
			n, ok := asInteger(f.Value)
			if !ok || n <= 0 {
				return &InvalidValueError{Key: f.Key, Operator: f.Operator, Reason: "requires a positive integer"}
			}
			return nil
		}
		s, ok := f.Value.(string)
		if !ok || !isISODate(s) {
			return &InvalidValueError{Key: f.Key, Operator: f.Operator, Reason: "requires a valid ISO-8601 date string"}
		}
	}
	return nil
}

// asSlice normalizes any slice value (e.g. []any from JSON, []string from
// direct callers) into []any. Strings and byte slices are not lists.
func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		if b == "true" {
			return true, true
		}
		if b == "false" {
			return false, true
		}
	}
	return false, false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// asInteger accepts integral values, including JSON numbers that happen to be
// whole (encoding/json decodes every number as float64).
func asInteger(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func isISODate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	return false
}
