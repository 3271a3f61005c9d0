package search

import (
	"errors"
	"fmt"

	"github.com/scoutdata/parcelscout/internal/registry"
)

// UnknownFilterKeyError indicates a requested filter key absent from the
// active registry.
type UnknownFilterKeyError struct {
	Key string
}

func (e *UnknownFilterKeyError) Error() string {
	return fmt.Sprintf("unknown filter key: %q", e.Key)
}

// InvalidOperatorError indicates an operator outside its family's allow-list.
type InvalidOperatorError struct {
	Key      string
	Operator Operator
	Family   registry.Family
}

func (e *InvalidOperatorError) Error() string {
	return fmt.Sprintf("invalid operator %q for filter %q (family: %s)", e.Operator, e.Key, e.Family)
}

// InvalidValueError indicates a value with the wrong arity or type for its
// operator.
type InvalidValueError struct {
	Key      string
	Operator Operator
	Reason   string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for filter %q with operator %q: %s", e.Key, e.Operator, e.Reason)
}

// UnknownSpatialTypeError indicates an unrecognized spatial descriptor tag.
type UnknownSpatialTypeError struct {
	Type SpatialType
}

func (e *UnknownSpatialTypeError) Error() string {
	return fmt.Sprintf("unknown spatial type: %q", e.Type)
}

// MalformedSpatialError indicates a recognized spatial shape with missing or
// malformed fields.
type MalformedSpatialError struct {
	Type   SpatialType
	Reason string
}

func (e *MalformedSpatialError) Error() string {
	return fmt.Sprintf("malformed %s spatial filter: %s", e.Type, e.Reason)
}

// MissingJoinError indicates a filter or sort key whose source table has no
// registered join clause. Compilation fails closed rather than silently
// dropping the predicate and broadening results.
type MissingJoinError struct {
	Table string
}

func (e *MissingJoinError) Error() string {
	return fmt.Sprintf("filter references table %q with no join definition", e.Table)
}

// InvalidSortFieldError indicates a sort field that resolves to neither a
// base-table column nor a registry filter key. Sort fields are never
// interpolated raw.
type InvalidSortFieldError struct {
	Field string
}

func (e *InvalidSortFieldError) Error() string {
	return fmt.Sprintf("sort field %q is not a known column or filter key", e.Field)
}

// IsClientError reports whether err describes malformed caller input, as
// opposed to an infrastructure failure. MissingJoinError is deliberately not
// a client error: it signals broken registry configuration.
func IsClientError(err error) bool {
	var (
		unknownKey   *UnknownFilterKeyError
		badOperator  *InvalidOperatorError
		badValue     *InvalidValueError
		unknownShape *UnknownSpatialTypeError
		badShape     *MalformedSpatialError
		badSort      *InvalidSortFieldError
	)
	return errors.As(err, &unknownKey) ||
		errors.As(err, &badOperator) ||
		errors.As(err, &badValue) ||
		errors.As(err, &unknownShape) ||
		errors.As(err, &badShape) ||
		errors.As(err, &badSort)
}
