package fixedwidth

import (
	"errors"
	"reflect"
	"testing"
)

// ============================================================================
// Layout Validation Tests
// ============================================================================

func TestNewLayout_Valid(t *testing.T) {
	l, err := NewLayout([]Field{
		{Key: "a", Width: 5},
		{Key: "b", Width: 3, Type: TypeInteger},
	})
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}

	if l.FixedLen() != 8 {
		t.Errorf("FixedLen() = %d, want 8", l.FixedLen())
	}
	if l.HasRemainder() {
		t.Error("HasRemainder() = true, want false")
	}
}

func TestNewLayout_OmittedWidth(t *testing.T) {
	_, err := NewLayout([]Field{{Key: "a"}})
	if !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
}

func TestNewLayout_RemainderMustBeLast(t *testing.T) {
	_, err := NewLayout([]Field{
		{Key: "a", Width: Remainder},
		{Key: "b", Width: 3},
	})
	if !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
}

func TestNewLayout_RemainderAccepted(t *testing.T) {
	l, err := NewLayout([]Field{
		{Key: "a", Width: 4},
		{Key: "rest", Width: Remainder},
	})
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}
	if !l.HasRemainder() {
		t.Error("HasRemainder() = false, want true")
	}
	if l.FixedLen() != 4 {
		t.Errorf("FixedLen() = %d, want 4", l.FixedLen())
	}
}

func TestNewLayout_NegativeDecimals(t *testing.T) {
	_, err := NewLayout([]Field{{Key: "a", Width: 5, Type: TypeFloat, Decimals: -1}})
	if !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
}

func TestLayout_KeysSkipFillers(t *testing.T) {
	l, err := NewLayout([]Field{
		{Key: "a", Width: 2},
		{Width: 1},
		{Key: "b", Width: 2},
	})
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}
	if !reflect.DeepEqual(l.Keys(), []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", l.Keys())
	}
}

// ============================================================================
// Layout Spec Tests
// ============================================================================

func TestParseLayoutSpec(t *testing.T) {
	l, err := ParseLayoutSpec("name:10,age:3:integer,score:7:float:2,:2,note:*")
	if err != nil {
		t.Fatalf("ParseLayoutSpec() error = %v", err)
	}

	fields := l.Fields()
	if len(fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(fields))
	}
	if fields[1].Type != TypeInteger {
		t.Errorf("fields[1].Type = %v, want integer", fields[1].Type)
	}
	if fields[2].Decimals != 2 {
		t.Errorf("fields[2].Decimals = %d, want 2", fields[2].Decimals)
	}
	if fields[3].Key != "" || fields[3].Width != 2 {
		t.Errorf("fields[3] should be a 2-wide filler: %+v", fields[3])
	}
	if fields[4].Width != Remainder {
		t.Errorf("fields[4].Width = %d, want Remainder", fields[4].Width)
	}
}

func TestParseLayoutSpec_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"empty", ""},
		{"missing width", "name"},
		{"zero width", "name:0"},
		{"bad width", "name:x"},
		{"bad type", "name:5:blob"},
		{"bad decimals", "name:5:float:x"},
		{"too many parts", "name:5:float:2:extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLayoutSpec(tt.spec); !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("ParseLayoutSpec(%q) expected ErrInvalidLayout, got %v", tt.spec, err)
			}
		})
	}
}

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		in   string
		want FieldType
	}{
		{"", TypeString},
		{"string", TypeString},
		{"integer", TypeInteger},
		{"int", TypeInteger},
		{"Float", TypeFloat},
	}
	for _, tt := range tests {
		got, err := ParseFieldType(tt.in)
		if err != nil {
			t.Errorf("ParseFieldType(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFieldType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFieldType("decimal"); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("ParseFieldType(\"decimal\") expected ErrInvalidLayout, got %v", err)
	}
}
