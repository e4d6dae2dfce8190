package query

import (
	"fmt"
	"strconv"
)

// Record is one row of a remote collection, keyed by field name.
type Record map[string]any

// ID returns the record's "id" field as a string.
func (r Record) ID() string {
	return r.String("id")
}

// Value returns the raw value of field, or nil.
func (r Record) Value(field string) any {
	if r == nil {
		return nil
	}
	return r[field]
}

// String returns field formatted as a string. Missing fields yield "".
func (r Record) String(field string) string {
	v := r.Value(field)
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// Float returns field as a float64 when it holds a number or a numeric string.
func (r Record) Float(field string) (float64, bool) {
	return toFloat(r.Value(field))
}

// Select returns a copy of r restricted to fields. An empty selection keeps
// every field. The id field is always kept.
func (r Record) Select(fields []string) Record {
	if len(fields) == 0 {
		return r.Clone()
	}
	out := make(Record, len(fields)+1)
	if id, ok := r["id"]; ok {
		out["id"] = id
	}
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r with patch applied on top. A nil value in
// patch removes the field.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(patch))
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
