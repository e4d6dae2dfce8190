// Package query defines the contract between the dashboard and the remote
// table store it reads and writes.
//
// Components never talk to a backend directly. They receive a Querier or
// Writer and describe what they want with a collection name, a field
// selection and a list of Criterion values. Anything that exposes that shape
// (the in-memory store, the SQLite store, a hosted backend) can stand behind
// it.
//
// Operations return a Result rather than (value, error) pairs so that fetch
// and write outcomes can be handed around and stored as a unit:
//
//	res := q.Query(ctx, "contacts", []string{"id", "name"}, []query.Criterion{
//	    query.Eq("companyId", companyID),
//	})
//	if !res.OK() {
//	    return res.Err
//	}
package query

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Operator names a comparison applied by a Criterion.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
)

// Valid reports whether op is one of the known operators.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNe, OpContains, OpIn, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Criterion is a single declarative filter on a collection field.
//
// A criterion whose Value is nil, an empty string or an empty slice is inert:
// it contributes no constraint and is dropped before the query is issued.
type Criterion struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Eq builds an equality criterion.
func Eq(field string, value any) Criterion {
	return Criterion{Field: field, Operator: OpEq, Value: value}
}

// Contains builds a case-insensitive substring criterion.
func Contains(field, value string) Criterion {
	return Criterion{Field: field, Operator: OpContains, Value: value}
}

// In builds a set-membership criterion.
func In(field string, values ...any) Criterion {
	return Criterion{Field: field, Operator: OpIn, Value: values}
}

// Inert reports whether the criterion carries no constraint.
func (c Criterion) Inert() bool {
	if c.Value == nil {
		return true
	}
	if s, ok := c.Value.(string); ok {
		return s == ""
	}
	v := reflect.ValueOf(c.Value)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// String renders the criterion for logs.
func (c Criterion) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidField reports whether name is usable as a field name.
func ValidField(name string) bool {
	return fieldPattern.MatchString(name)
}

// Validate checks the criterion's field and operator. Inert criteria are
// validated too so that typos surface even before a value is supplied.
func (c Criterion) Validate() error {
	if !ValidField(c.Field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, c.Field)
	}
	if !c.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperator, c.Operator)
	}
	return nil
}

// Active returns the non-inert criteria in their original order.
func Active(filters []Criterion) []Criterion {
	out := make([]Criterion, 0, len(filters))
	for _, f := range filters {
		if !f.Inert() {
			out = append(out, f)
		}
	}
	return out
}

// Equal reports whether two filter lists are structurally identical.
// A nil list equals an empty one, and nested slice values are compared
// element by element.
func Equal(a, b []Criterion) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// Clone returns a copy of filters that shares no slice backing with the
// caller, so later mutation of the caller's slice cannot leak in.
func Clone(filters []Criterion) []Criterion {
	if filters == nil {
		return nil
	}
	out := make([]Criterion, len(filters))
	copy(out, filters)
	return out
}
