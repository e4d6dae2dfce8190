package inlineedit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Kind selects how a field's value is parsed, displayed and edited.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindEnum:
		return "enum"
	default:
		return "text"
	}
}

// Choice is one entry of an enum field's closed option set.
type Choice struct {
	Label string
	Value string
}

// Field describes one inline-editable field of a record.
type Field struct {
	Name        string // record field the value is read from and written to
	Label       string
	Kind        Kind
	Choices     []Choice // KindEnum only
	Default     any      // seeds the editor when the field is empty
	Prefix      string   // shown before numbers, e.g. "$"
	Placeholder string
	Required    bool // blank input is rejected instead of clearing the field
	NonNegative bool // KindNumber only
}

var printer = message.NewPrinter(language.English)

// Format renders v for the read-only view. Numbers get thousands
// separators and the field prefix; enum values render their label.
func (f Field) Format(v any) string {
	if isEmpty(v) {
		return ""
	}
	switch f.Kind {
	case KindNumber:
		n, ok := asFloat(v)
		if !ok {
			return fmt.Sprint(v)
		}
		return f.Prefix + formatNumber(n)
	case KindEnum:
		s := fmt.Sprint(v)
		if c, ok := f.Choice(s); ok {
			return c.Label
		}
		return s
	default:
		return fmt.Sprint(v)
	}
}

// Raw renders v as the editor's initial text. Numbers are shown without
// separators so they can be edited directly.
func (f Field) Raw(v any) string {
	if v == nil {
		return ""
	}
	if f.Kind == KindNumber {
		if n, ok := asFloat(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return fmt.Sprint(v)
}

// Parse converts submitted editor text into a value for the field. Blank
// input parses to nil, which clears the field.
func (f Field) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if f.Required {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidValue, f.label())
		}
		return nil, nil
	}
	switch f.Kind {
	case KindNumber:
		cleaned := strings.TrimPrefix(raw, f.Prefix)
		cleaned = strings.NewReplacer(",", "", " ", "", "_", "").Replace(cleaned)
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidValue, f.label())
		}
		if f.NonNegative && n < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, f.label())
		}
		return n, nil
	case KindEnum:
		if _, ok := f.Choice(raw); !ok {
			return nil, fmt.Errorf("%w: %q is not a valid %s", ErrInvalidValue, raw, f.label())
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// Choice looks up the enum choice with the given value.
func (f Field) Choice(value string) (Choice, bool) {
	for _, c := range f.Choices {
		if c.Value == value {
			return c, true
		}
	}
	return Choice{}, false
}

func (f Field) label() string {
	if f.Label != "" {
		return strings.ToLower(f.Label)
	}
	return f.Name
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return printer.Sprintf("%d", int64(n))
	}
	return printer.Sprint(number.Decimal(n, number.MaxFractionDigits(2)))
}

// isEmpty mirrors the dashboard's truthiness rule: nil, "", zero and false
// all count as no value.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	}
	if n, ok := asFloat(v); ok {
		return n == 0
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
