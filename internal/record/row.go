// Package record defines the row and value model shared by all codecs.
//
// A Row is a tagged union: one unit of tabular data is either an ordered
// sequence of scalar values (positional), a mapping from column name to
// scalar value (keyed), or blank. Exactly one representation is in play per
// call; converting between them always goes through a header.Header.
package record

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrTypeMismatch is returned when a row's shape does not match the
// positional or keyed form an operation expects.
var ErrTypeMismatch = errors.New("row shape mismatch")

// Kind discriminates the representations a Row can hold.
type Kind int

const (
	// KindBlank marks a row with no content. Parsing a blank line yields a
	// blank row, which signals "skip this record" to the caller.
	KindBlank Kind = iota
	// KindPositional marks an ordered sequence of values.
	KindPositional
	// KindKeyed marks a column-name → value mapping.
	KindKeyed
)

// String returns the kind name for error messages.
func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindPositional:
		return "positional"
	case KindKeyed:
		return "keyed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Row is one unit of tabular data. The zero value is a blank row.
//
// Scalar values are string, int64, float64, or nil (explicitly absent).
type Row struct {
	kind   Kind
	values []any
	fields map[string]any
}

// Blank returns a row with no content.
func Blank() Row {
	return Row{}
}

// Positional wraps an ordered value sequence as a row.
func Positional(values []any) Row {
	return Row{kind: KindPositional, values: values}
}

// PositionalStrings wraps tokenized text fields as a positional row.
func PositionalStrings(fields []string) Row {
	values := make([]any, len(fields))
	for i, f := range fields {
		values[i] = f
	}
	return Row{kind: KindPositional, values: values}
}

// Keyed wraps a column-name → value mapping as a row.
func Keyed(fields map[string]any) Row {
	return Row{kind: KindKeyed, fields: fields}
}

// Kind reports which representation the row holds.
func (r Row) Kind() Kind {
	return r.kind
}

// IsBlank reports whether the row has no content at all. A positional row
// with zero values and a keyed row with zero fields are both blank.
func (r Row) IsBlank() bool {
	switch r.kind {
	case KindBlank:
		return true
	case KindPositional:
		return len(r.values) == 0
	case KindKeyed:
		return len(r.fields) == 0
	default:
		return true
	}
}

// Values returns the ordered values of a positional row.
// It returns ErrTypeMismatch for any other kind.
func (r Row) Values() ([]any, error) {
	if r.kind != KindPositional {
		return nil, fmt.Errorf("want positional row, have %s: %w", r.kind, ErrTypeMismatch)
	}
	return r.values, nil
}

// Fields returns the mapping of a keyed row.
// It returns ErrTypeMismatch for any other kind.
func (r Row) Fields() (map[string]any, error) {
	if r.kind != KindKeyed {
		return nil, fmt.Errorf("want keyed row, have %s: %w", r.kind, ErrTypeMismatch)
	}
	return r.fields, nil
}

// FormatValue renders a scalar value as plain text. Absent values (nil)
// render as the empty string.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// AsInt coerces a scalar value to int64. Absent values report ok=false.
func AsInt(v any) (n int64, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return t, true, nil
	case int:
		return int64(t), true, nil
	case float64:
		return int64(t), true, nil
	case string:
		if t == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not an integer: %q", t)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("not an integer: %v", v)
	}
}

// AsFloat coerces a scalar value to float64. Absent values report ok=false.
func AsFloat(v any) (f float64, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return t, true, nil
	case int64:
		return float64(t), true, nil
	case int:
		return float64(t), true, nil
	case string:
		if t == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", t)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("not a number: %v", v)
	}
}
