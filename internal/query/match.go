package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Match evaluates a single criterion against a record in memory. Inert
// criteria always match.
func Match(r Record, c Criterion) bool {
	if c.Inert() {
		return true
	}
	got := r.Value(c.Field)

	switch c.Operator {
	case OpEq:
		return equalValues(got, c.Value)
	case OpNe:
		return !equalValues(got, c.Value)
	case OpContains:
		if got == nil {
			return false
		}
		return strings.Contains(
			strings.ToLower(fmt.Sprint(got)),
			strings.ToLower(fmt.Sprint(c.Value)),
		)
	case OpIn:
		for _, want := range flatten(c.Value) {
			if equalValues(got, want) {
				return true
			}
		}
		return false
	case OpGt, OpGte, OpLt, OpLte:
		cmp, ok := compareValues(got, c.Value)
		if !ok {
			return false
		}
		switch c.Operator {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	}
	return false
}

// MatchAll reports whether r satisfies every active criterion.
func MatchAll(r Record, filters []Criterion) bool {
	for _, c := range filters {
		if !Match(r, c) {
			return false
		}
	}
	return true
}

// flatten turns a slice value of any element type into []any. Scalars are
// returned as a one-element list.
func flatten(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Flatten exposes flatten for collaborators that expand "in" lists.
func Flatten(v any) []any {
	return flatten(v)
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumber(a) || isNumber(b) {
		fa, okA := toFloat(a)
		fb, okB := toFloat(b)
		if okA && okB {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if isNumber(a) || isNumber(b) {
		fa, okA := toFloat(a)
		fb, okB := toFloat(b)
		if okA && okB {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)), true
}

// isNumber reports whether v is a Go numeric type. Numeric strings do not
// count: "0042" and "42" are different phone extensions.
func isNumber(v any) bool {
	if _, isString := v.(string); isString {
		return false
	}
	_, ok := toFloat(v)
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
