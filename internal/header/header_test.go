package header

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/tabwire/internal/record"
)

// ============================================================================
// Normalization Tests
// ============================================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercase", "Name", "name"},
		{"trims whitespace", "  id  ", "id"},
		{"spaces to underscore", "First Name", "first_name"},
		{"hyphens to underscore", "unit-price", "unit_price"},
		{"mixed runs collapse", "a - b", "a_b"},
		{"strips punctuation", "Second!!", "second"},
		{"keeps digits", "col2", "col2"},
		{"already clean", "first_name", "first_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRejectedName(t *testing.T) {
	name := RejectedName("Second!!")

	if name != "<rejected:Second!!>" {
		t.Errorf("RejectedName = %q", name)
	}
	if !IsRejected(name) {
		t.Error("IsRejected should recognize the sentinel")
	}
	if IsRejected("second") {
		t.Error("IsRejected should not match a plain name")
	}
}

// ============================================================================
// Cleanse Tests
// ============================================================================

func TestCleanse_AllowListWithSkipUnknown(t *testing.T) {
	h := New(Config{
		AllowedColumns: []string{"first_name", "id"},
		SkipUnknown:    true,
	})
	h.SetColumns([]string{"First Name", "Second!!", "ID"})

	rejected, err := h.Cleanse()
	if err != nil {
		t.Fatalf("Cleanse() error = %v", err)
	}

	wantColumns := []string{"first_name", "<rejected:Second!!>", "id"}
	if !reflect.DeepEqual(h.Columns(), wantColumns) {
		t.Errorf("columns = %v, want %v", h.Columns(), wantColumns)
	}
	if !reflect.DeepEqual(rejected, []string{"Second!!"}) {
		t.Errorf("rejected = %v, want [Second!!]", rejected)
	}
}

func TestCleanse_UnknownColumnFailsWithoutSkip(t *testing.T) {
	h := New(Config{AllowedColumns: []string{"id"}})
	h.SetColumns([]string{"id", "extra"})

	_, err := h.Cleanse()
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
	if h.Cleansed() {
		t.Error("failed cleanse must not latch")
	}
}

func TestCleanse_AllColumnsRejected(t *testing.T) {
	h := New(Config{
		AllowedColumns: []string{"id"},
		SkipUnknown:    true,
	})
	h.SetColumns([]string{"foo", "bar"})

	if _, err := h.Cleanse(); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestCleanse_MissingRequiredColumn(t *testing.T) {
	h := New(Config{RequiredColumns: []string{"id"}})
	h.SetColumns([]string{"name"})

	if _, err := h.Cleanse(); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestCleanse_NoAllowListNormalizesEverything(t *testing.T) {
	h := New(Config{})
	h.SetColumns([]string{"First Name", "Unit-Price"})

	rejected, err := h.Cleanse()
	if err != nil {
		t.Fatalf("Cleanse() error = %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v, want none", rejected)
	}
	want := []string{"first_name", "unit_price"}
	if !reflect.DeepEqual(h.Columns(), want) {
		t.Errorf("columns = %v, want %v", h.Columns(), want)
	}
}

func TestCleanse_PositionsAndCountStable(t *testing.T) {
	h := New(Config{
		AllowedColumns: []string{"a", "c"},
		SkipUnknown:    true,
	})
	raw := []string{"A", "B", "C"}
	h.SetColumns(raw)

	if _, err := h.Cleanse(); err != nil {
		t.Fatalf("Cleanse() error = %v", err)
	}
	if len(h.Columns()) != len(raw) {
		t.Fatalf("column count changed: %d -> %d", len(raw), len(h.Columns()))
	}
	if h.Columns()[0] != "a" || h.Columns()[2] != "c" {
		t.Errorf("accepted columns moved: %v", h.Columns())
	}
	if !IsRejected(h.Columns()[1]) {
		t.Errorf("rejected column should stay in place: %v", h.Columns())
	}
}

func TestCleanse_RunsAtMostOnce(t *testing.T) {
	h := New(Config{
		AllowedColumns: []string{"id"},
		SkipUnknown:    true,
	})
	h.SetColumns([]string{"ID", "junk"})

	first, err := h.Cleanse()
	if err != nil {
		t.Fatalf("Cleanse() error = %v", err)
	}
	columnsAfterFirst := append([]string(nil), h.Columns()...)

	second, err := h.Cleanse()
	if err != nil {
		t.Fatalf("second Cleanse() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second cleanse returned %v, want %v", second, first)
	}
	if !reflect.DeepEqual(h.Columns(), columnsAfterFirst) {
		t.Errorf("second cleanse mutated columns: %v", h.Columns())
	}
}

func TestSetColumns_ResetsCleansedState(t *testing.T) {
	h := New(Config{})
	h.SetColumns([]string{"a"})
	if _, err := h.Cleanse(); err != nil {
		t.Fatalf("Cleanse() error = %v", err)
	}

	h.SetColumns([]string{"b"})
	if h.Cleansed() {
		t.Error("SetColumns should reset the cleansed flag")
	}
}

// ============================================================================
// Row Conversion Tests
// ============================================================================

func TestToKeyed_PositionalSkipsRejectedPositions(t *testing.T) {
	h := New(Config{
		AllowedColumns: []string{"name", "id"},
		SkipUnknown:    true,
	})
	h.SetColumns([]string{"Name", "Junk", "ID"})
	if _, err := h.Cleanse(); err != nil {
		t.Fatalf("Cleanse() error = %v", err)
	}

	fields, err := h.ToKeyed(record.PositionalStrings([]string{"ada", "x", "42"}))
	if err != nil {
		t.Fatalf("ToKeyed() error = %v", err)
	}
	want := map[string]any{"name": "ada", "id": "42"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestToKeyed_PositionalWithoutColumnsFails(t *testing.T) {
	h := New(Config{})

	_, err := h.ToKeyed(record.PositionalStrings([]string{"a"}))
	if !errors.Is(err, record.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestToKeyed_ShortRowStopsAtValues(t *testing.T) {
	h := New(Config{})
	h.SetColumns([]string{"a", "b", "c"})

	fields, err := h.ToKeyed(record.PositionalStrings([]string{"1"}))
	if err != nil {
		t.Fatalf("ToKeyed() error = %v", err)
	}
	if len(fields) != 1 || fields["a"] != "1" {
		t.Errorf("fields = %v, want map[a:1]", fields)
	}
}

func TestToKeyed_BlankRowSkips(t *testing.T) {
	h := New(Config{})
	h.SetColumns([]string{"a"})

	fields, err := h.ToKeyed(record.Blank())
	if err != nil {
		t.Fatalf("ToKeyed() error = %v", err)
	}
	if fields != nil {
		t.Errorf("blank row should yield nil, got %v", fields)
	}
}

func TestToKeyed_KeyedNarrowedAfterCleanse(t *testing.T) {
	h := New(Config{})
	h.SetColumns([]string{"first_name", "id"})
	if _, err := h.Cleanse(); err != nil {
		t.Fatalf("Cleanse() error = %v", err)
	}

	fields, err := h.ToKeyed(record.Keyed(map[string]any{
		"First Name": "ada",
		"id":         int64(1),
		"extra":      "dropped",
	}))
	if err != nil {
		t.Fatalf("ToKeyed() error = %v", err)
	}
	want := map[string]any{"first_name": "ada", "id": int64(1)}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestToKeyed_KeyedPassesThroughBeforeCleanse(t *testing.T) {
	h := New(Config{})

	in := map[string]any{"Anything Goes": 1}
	fields, err := h.ToKeyed(record.Keyed(in))
	if err != nil {
		t.Fatalf("ToKeyed() error = %v", err)
	}
	if !reflect.DeepEqual(fields, in) {
		t.Errorf("fields = %v, want %v", fields, in)
	}
}

func TestToPositional_KeyedOrderedByColumns(t *testing.T) {
	h := New(Config{})
	h.SetColumns([]string{"id", "name", "missing"})
	if _, err := h.Cleanse(); err != nil {
		t.Fatalf("Cleanse() error = %v", err)
	}

	row, err := h.ToPositional(record.Keyed(map[string]any{
		"name": "ada",
		"id":   int64(1),
	}))
	if err != nil {
		t.Fatalf("ToPositional() error = %v", err)
	}
	values, err := row.Values()
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	want := []any{int64(1), "ada", ""}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestToPositional_PositionalPassesThrough(t *testing.T) {
	h := New(Config{})
	in := record.PositionalStrings([]string{"a", "b"})

	row, err := h.ToPositional(in)
	if err != nil {
		t.Fatalf("ToPositional() error = %v", err)
	}
	values, _ := row.Values()
	if len(values) != 2 || values[0] != "a" {
		t.Errorf("values = %v", values)
	}
}

func TestToPositional_BlankRowFails(t *testing.T) {
	h := New(Config{})
	h.SetColumns([]string{"a"})

	if _, err := h.ToPositional(record.Blank()); !errors.Is(err, record.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}
