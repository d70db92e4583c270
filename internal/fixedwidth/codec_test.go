package fixedwidth

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
)

func mustLayout(t *testing.T, fields []Field) *Layout {
	t.Helper()
	l, err := NewLayout(fields)
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}
	return l
}

func newTestCodec(t *testing.T, fields []Field) *Codec {
	t.Helper()
	return NewCodec(mustLayout(t, fields), header.New(header.Config{}))
}

// ============================================================================
// Parse Tests
// ============================================================================

func TestParse_StringAndInteger(t *testing.T) {
	c := newTestCodec(t, []Field{
		{Key: "a", Width: 5},
		{Key: "b", Width: 3, Type: TypeInteger},
	})

	fields, err := c.Parse("abc  007")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := map[string]any{"a": "abc", "b": int64(7)}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestParse_LineLengthMustMatchExactly(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "a", Width: 5}})

	for _, line := range []string{"abc", "abcdef"} {
		if _, err := c.Parse(line); !errors.Is(err, ErrInvalidLineLength) {
			t.Errorf("Parse(%q) expected ErrInvalidLineLength, got %v", line, err)
		}
	}
}

func TestParse_RemainderConsumesRest(t *testing.T) {
	c := newTestCodec(t, []Field{
		{Key: "a", Width: 3},
		{Key: "rest", Width: Remainder},
	})

	fields, err := c.Parse("ab notes of any length")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if fields["a"] != "ab" {
		t.Errorf("a = %v", fields["a"])
	}
	if fields["rest"] != "notes of any length" {
		t.Errorf("rest = %v", fields["rest"])
	}
}

func TestParse_RemainderLineTooShort(t *testing.T) {
	c := newTestCodec(t, []Field{
		{Key: "a", Width: 5},
		{Key: "rest", Width: Remainder},
	})

	if _, err := c.Parse("ab"); !errors.Is(err, ErrInvalidLineLength) {
		t.Fatalf("expected ErrInvalidLineLength, got %v", err)
	}
}

func TestParse_FillerConsumedNotEmitted(t *testing.T) {
	c := newTestCodec(t, []Field{
		{Key: "a", Width: 2},
		{Width: 3},
		{Key: "b", Width: 2},
	})

	fields, err := c.Parse("ab   cd")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := map[string]any{"a": "ab", "b": "cd"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestParse_BlankNumericIsAbsentNotZero(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "n", Width: 3, Type: TypeInteger}})

	fields, err := c.Parse("   ")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	v, present := fields["n"]
	if !present {
		t.Fatal("key n should be present")
	}
	if v != nil {
		t.Errorf("blank integer should parse as nil, got %v", v)
	}

	fields, err = c.Parse("  5")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if fields["n"] != int64(5) {
		t.Errorf("n = %v, want 5", fields["n"])
	}
}

func TestParse_InvalidNumeric(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "n", Width: 3, Type: TypeInteger}})

	if _, err := c.Parse("abc"); err == nil {
		t.Fatal("Parse() expected error for non-numeric content")
	}
}

func TestParse_Float(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "f", Width: 6, Type: TypeFloat, Decimals: 2}})

	fields, err := c.Parse("  1.25")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if fields["f"] != 1.25 {
		t.Errorf("f = %v, want 1.25", fields["f"])
	}
}

// ============================================================================
// Render Tests
// ============================================================================

func TestRender_PadsPerType(t *testing.T) {
	c := newTestCodec(t, []Field{
		{Key: "a", Width: 5},
		{Key: "b", Width: 3, Type: TypeInteger},
	})

	line, err := c.Render(record.Keyed(map[string]any{"a": "abc", "b": int64(7)}))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if line != "abc  007" {
		t.Errorf("line = %q, want %q", line, "abc  007")
	}
}

func TestRender_RoundTrip(t *testing.T) {
	c := newTestCodec(t, []Field{
		{Key: "name", Width: 8},
		{Key: "qty", Width: 4, Type: TypeInteger},
		{Key: "price", Width: 7, Type: TypeFloat, Decimals: 2},
	})

	in := map[string]any{"name": "widget", "qty": int64(12), "price": 3.5}
	line, err := c.Render(record.Keyed(in))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(line) != c.Layout().FixedLen() {
		t.Fatalf("rendered line is %d bytes, layout declares %d", len(line), c.Layout().FixedLen())
	}

	out, err := c.Parse(line)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := map[string]any{"name": "widget", "qty": int64(12), "price": 3.5}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("round trip = %v, want %v", out, want)
	}
}

func TestRender_IntegerTooWide(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "n", Width: 3, Type: TypeInteger}})

	_, err := c.Render(record.Keyed(map[string]any{"n": int64(1234)}))
	if !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("expected ErrValueTooLong, got %v", err)
	}
}

func TestRender_StringTruncationPolicy(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "s", Width: 3}})

	line, err := c.Render(record.Keyed(map[string]any{"s": "abcdef"}))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if line != "abc" {
		t.Errorf("truncated line = %q, want %q", line, "abc")
	}

	c.Truncate = false
	if _, err := c.Render(record.Keyed(map[string]any{"s": "abcdef"})); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("expected ErrValueTooLong with truncation disabled, got %v", err)
	}
}

func TestRender_AbsentNumericAsBlanks(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "n", Width: 3, Type: TypeInteger}})

	line, err := c.Render(record.Keyed(map[string]any{"n": nil}))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if line != "   " {
		t.Errorf("line = %q, want blanks", line)
	}

	// Absent round-trips to absent.
	out, err := c.Parse(line)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if out["n"] != nil {
		t.Errorf("n = %v, want nil", out["n"])
	}
}

func TestRender_NegativeIntegerZeroPad(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "n", Width: 5, Type: TypeInteger}})

	line, err := c.Render(record.Keyed(map[string]any{"n": int64(-42)}))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if line != "-0042" {
		t.Errorf("line = %q, want %q", line, "-0042")
	}
}

func TestRender_FillerRendersSpaces(t *testing.T) {
	c := newTestCodec(t, []Field{
		{Key: "a", Width: 2},
		{Width: 3},
		{Key: "b", Width: 2},
	})

	line, err := c.Render(record.Keyed(map[string]any{"a": "ab", "b": "cd"}))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if line != "ab   cd" {
		t.Errorf("line = %q, want %q", line, "ab   cd")
	}
}

func TestRender_BlankRowYieldsEmptyLine(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "a", Width: 2}})

	line, err := c.Render(record.Blank())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if line != "" {
		t.Errorf("line = %q, want empty", line)
	}
}

// ============================================================================
// Header Line Tests
// ============================================================================

func TestHeaderLine_RoundTrip(t *testing.T) {
	c := newTestCodec(t, []Field{
		{Key: "a", Width: 6},
		{Width: 2},
		{Key: "b", Width: 4},
	})

	line := c.RenderHeaderLine([]string{"name", "qty"})
	if line != "name    qty " {
		t.Fatalf("header line = %q", line)
	}

	names, err := c.ParseHeaderLine(line)
	if err != nil {
		t.Fatalf("ParseHeaderLine() error = %v", err)
	}
	if !reflect.DeepEqual(names, []string{"name", "qty"}) {
		t.Errorf("names = %v, want [name qty]", names)
	}
}

func TestRenderHeaderLine_TruncatesLongNames(t *testing.T) {
	c := newTestCodec(t, []Field{{Key: "a", Width: 4}})

	if line := c.RenderHeaderLine([]string{"longname"}); line != "long" {
		t.Errorf("line = %q, want %q", line, "long")
	}
}
