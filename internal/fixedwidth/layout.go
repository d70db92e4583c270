// Package fixedwidth implements the fixed-width columnar codec: a declared
// column layout with byte-exact field widths, per-type padding on render,
// and exact-length enforcement on parse.
package fixedwidth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Remainder is the width sentinel for a field that consumes everything left
// on the line. At most one field may use it, and only in the last position.
const Remainder = -1

// Layout and line errors.
var (
	// ErrInvalidLayout is returned when a layout's field specs are malformed.
	ErrInvalidLayout = errors.New("invalid fixed-width layout")
	// ErrInvalidLineLength is returned when a parsed line's length does not
	// match the layout's declared total width.
	ErrInvalidLineLength = errors.New("line length mismatch")
	// ErrValueTooLong is returned when a rendered value cannot fit its
	// field width under the active truncation policy.
	ErrValueTooLong = errors.New("value too long for field")
)

// FieldType is the declared data type of a fixed-width column.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInteger
	TypeFloat
)

// String returns the type name used in layout specs.
func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseFieldType resolves a layout-spec type name. The empty string means
// TypeString.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string":
		return TypeString, nil
	case "integer", "int":
		return TypeInteger, nil
	case "float":
		return TypeFloat, nil
	default:
		return TypeString, fmt.Errorf("unknown field type %q: %w", s, ErrInvalidLayout)
	}
}

// Field is one column of a fixed-width layout.
type Field struct {
	// Key is the record field name. Empty marks a filler column: consumed
	// on parse, emitted as spaces on render, never part of the record.
	Key string

	// Width is the column width in bytes, or Remainder.
	Width int

	// Type selects decode/encode behavior for the column.
	Type FieldType

	// Decimals is the number of post-decimal digits for TypeFloat columns.
	Decimals int
}

// Layout is an ordered, validated sequence of fields.
type Layout struct {
	fields       []Field
	fixedLen     int
	hasRemainder bool
}

// NewLayout validates the field specs and builds a layout.
func NewLayout(fields []Field) (*Layout, error) {
	l := &Layout{fields: make([]Field, len(fields))}
	copy(l.fields, fields)

	for i, f := range l.fields {
		switch {
		case f.Width == 0:
			return nil, fmt.Errorf("field %d (%q) has no width: %w", i, f.Key, ErrInvalidLayout)
		case f.Width == Remainder:
			if l.hasRemainder {
				return nil, fmt.Errorf("field %d (%q): second remainder field: %w", i, f.Key, ErrInvalidLayout)
			}
			if i != len(l.fields)-1 {
				return nil, fmt.Errorf("field %d (%q): remainder must be last: %w", i, f.Key, ErrInvalidLayout)
			}
			l.hasRemainder = true
		case f.Width < 0:
			return nil, fmt.Errorf("field %d (%q) has negative width %d: %w", i, f.Key, f.Width, ErrInvalidLayout)
		default:
			l.fixedLen += f.Width
		}

		switch f.Type {
		case TypeString, TypeInteger, TypeFloat:
		default:
			return nil, fmt.Errorf("field %d (%q) has unknown type: %w", i, f.Key, ErrInvalidLayout)
		}
		if f.Decimals < 0 {
			return nil, fmt.Errorf("field %d (%q) has negative decimals: %w", i, f.Key, ErrInvalidLayout)
		}
	}

	return l, nil
}

// Fields returns the layout's fields in order.
func (l *Layout) Fields() []Field {
	return l.fields
}

// FixedLen is the total declared width: the sum of all non-remainder widths.
func (l *Layout) FixedLen() int {
	return l.fixedLen
}

// HasRemainder reports whether the last field consumes the rest of the line.
func (l *Layout) HasRemainder() bool {
	return l.hasRemainder
}

// Keys returns the non-filler field keys in layout order.
func (l *Layout) Keys() []string {
	keys := make([]string, 0, len(l.fields))
	for _, f := range l.fields {
		if f.Key != "" {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// ParseLayoutSpec builds a layout from a compact textual spec:
// comma-separated "key:width[:type[:decimals]]" entries, where width "*"
// means Remainder and an empty key marks a filler column.
//
// Example: "name:10,age:3:integer,score:7:float:2,:2,note:*"
func ParseLayoutSpec(spec string) (*Layout, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("empty layout spec: %w", ErrInvalidLayout)
	}

	var fields []Field
	for _, entry := range strings.Split(spec, ",") {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 4 {
			return nil, fmt.Errorf("bad layout entry %q: %w", entry, ErrInvalidLayout)
		}

		f := Field{Key: strings.TrimSpace(parts[0])}

		widthStr := strings.TrimSpace(parts[1])
		if widthStr == "*" {
			f.Width = Remainder
		} else {
			w, err := strconv.Atoi(widthStr)
			if err != nil || w <= 0 {
				return nil, fmt.Errorf("bad width %q in entry %q: %w", widthStr, entry, ErrInvalidLayout)
			}
			f.Width = w
		}

		if len(parts) >= 3 {
			t, err := ParseFieldType(parts[2])
			if err != nil {
				return nil, err
			}
			f.Type = t
		}
		if len(parts) == 4 {
			d, err := strconv.Atoi(strings.TrimSpace(parts[3]))
			if err != nil || d < 0 {
				return nil, fmt.Errorf("bad decimals %q in entry %q: %w", parts[3], entry, ErrInvalidLayout)
			}
			f.Decimals = d
		}

		fields = append(fields, f)
	}

	return NewLayout(fields)
}
