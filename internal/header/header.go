// Package header owns column-name governance for one parsing or rendering
// session: cleansing raw header names, enforcing allow/required lists, and
// converting rows between positional and keyed form against the governed
// column list.
//
// A Header is owned by exactly one session and is not safe for concurrent
// mutation. Columns are set once (from configuration or a parsed header
// line), cleansed at most once, and treated as read-only afterwards.
package header

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/tabwire/internal/record"
)

// ErrInvalidHeader is returned when cleansing finds unknown columns with
// skip-unknown disabled, rejects every column, or leaves a required column
// missing.
var ErrInvalidHeader = errors.New("invalid header")

// Pre-compiled normalization expressions (avoids recompilation per column).
var (
	squeezeRegex = regexp.MustCompile(`[\s-]+`)
	invalidRegex = regexp.MustCompile(`[^a-z0-9_]`)
)

const (
	rejectedPrefix = "<rejected:"
	rejectedSuffix = ">"
)

// Config holds the governance constraints for a session.
type Config struct {
	// AllowedColumns is the whitelist of normalized column names.
	// Empty means every column is allowed.
	AllowedColumns []string

	// RequiredColumns must all be present after cleansing.
	RequiredColumns []string

	// SkipUnknown tolerates non-whitelisted columns by marking them
	// rejected instead of failing the whole header.
	SkipUnknown bool
}

// Header owns a mutable column list plus its governance config.
type Header struct {
	columns  []string
	cfg      Config
	allowed  map[string]struct{}
	cleansed bool
	rejected []string
}

// New creates a Header for a session. Allow-list entries are normalized so
// configuration may use raw spellings.
func New(cfg Config) *Header {
	h := &Header{cfg: cfg}
	if len(cfg.AllowedColumns) > 0 {
		h.allowed = make(map[string]struct{}, len(cfg.AllowedColumns))
		for _, name := range cfg.AllowedColumns {
			h.allowed[Normalize(name)] = struct{}{}
		}
	}
	return h
}

// SetColumns replaces the column list verbatim. No validation happens until
// Cleanse is called.
func (h *Header) SetColumns(names []string) {
	h.columns = make([]string, len(names))
	copy(h.columns, names)
	h.cleansed = false
	h.rejected = nil
}

// Columns returns the current column list. After Cleanse, entries are either
// normalized names or rejection sentinels; positions match the raw list.
func (h *Header) Columns() []string {
	return h.columns
}

// HasColumns reports whether a column list has been set.
func (h *Header) HasColumns() bool {
	return len(h.columns) > 0
}

// Cleansed reports whether Cleanse has completed successfully.
func (h *Header) Cleansed() bool {
	return h.cleansed
}

// Normalize converts a raw column name to its canonical form: trimmed,
// lowercased, runs of whitespace or hyphens collapsed to one underscore,
// and everything outside letters, digits, and underscore stripped.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = squeezeRegex.ReplaceAllString(s, "_")
	return invalidRegex.ReplaceAllString(s, "")
}

// RejectedName wraps a raw column name in the rejection sentinel. The
// original spelling is embedded so diagnostics can report it, while the
// result can never collide with a normalized column name.
func RejectedName(raw string) string {
	return rejectedPrefix + raw + rejectedSuffix
}

// IsRejected reports whether a column name is a rejection sentinel.
func IsRejected(name string) bool {
	return strings.HasPrefix(name, rejectedPrefix) && strings.HasSuffix(name, rejectedSuffix)
}

// Cleanse normalizes every column name in place and applies the allow-list
// and required-list. Rejected columns are replaced with a sentinel rather
// than removed, so positional row data stays aligned with the column list.
//
// Cleanse runs at most once: after a successful pass, later calls return the
// recorded rejection list without touching the columns again.
//
// It returns the original names of rejected columns.
func (h *Header) Cleanse() ([]string, error) {
	if h.cleansed {
		return h.rejected, nil
	}

	var rejected []string
	for i, raw := range h.columns {
		norm := Normalize(raw)
		if h.allowed != nil {
			if _, ok := h.allowed[norm]; !ok {
				h.columns[i] = RejectedName(raw)
				rejected = append(rejected, raw)
				continue
			}
		}
		h.columns[i] = norm
	}

	if !h.cfg.SkipUnknown && len(rejected) > 0 {
		return nil, fmt.Errorf("unknown columns %q: %w", rejected, ErrInvalidHeader)
	}
	if len(h.columns) > 0 && len(rejected) == len(h.columns) {
		return nil, fmt.Errorf("no recognized columns in %q: %w", rejected, ErrInvalidHeader)
	}

	if len(h.cfg.RequiredColumns) > 0 {
		present := make(map[string]struct{}, len(h.columns))
		for _, name := range h.columns {
			present[name] = struct{}{}
		}
		var missing []string
		for _, req := range h.cfg.RequiredColumns {
			if _, ok := present[Normalize(req)]; !ok {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("missing required columns %q: %w", missing, ErrInvalidHeader)
		}
	}

	h.cleansed = true
	h.rejected = rejected
	return rejected, nil
}

// ToKeyed converts a row to keyed form under the current columns.
//
// Positional rows are zipped against the column list by index; positions
// whose column is blank or rejected are skipped. Keyed rows are narrowed to
// the known column set once columns are set and cleansed (unknown input keys
// are normalized and remapped where possible, then extras dropped).
//
// A blank row yields a nil map, which means "skip this record".
func (h *Header) ToKeyed(row record.Row) (map[string]any, error) {
	if row.IsBlank() {
		return nil, nil
	}

	switch row.Kind() {
	case record.KindPositional:
		if len(h.columns) == 0 {
			return nil, fmt.Errorf("positional row with no columns set: %w", record.ErrTypeMismatch)
		}
		values, err := row.Values()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(h.columns))
		for i, col := range h.columns {
			if i >= len(values) {
				break
			}
			if col == "" || IsRejected(col) {
				continue
			}
			out[col] = values[i]
		}
		return out, nil

	case record.KindKeyed:
		fields, err := row.Fields()
		if err != nil {
			return nil, err
		}
		if !h.cleansed || len(h.columns) == 0 {
			return fields, nil
		}
		return h.narrow(fields), nil

	default:
		return nil, fmt.Errorf("cannot key %s row: %w", row.Kind(), record.ErrTypeMismatch)
	}
}

// ToPositional converts a row to positional form under the current columns.
//
// Keyed rows are narrowed as in ToKeyed, then read out column by column with
// an empty value substituted for missing keys. Positional rows pass through
// unchanged. Anything else is a type mismatch.
func (h *Header) ToPositional(row record.Row) (record.Row, error) {
	switch row.Kind() {
	case record.KindPositional:
		return row, nil

	case record.KindKeyed:
		fields, err := row.Fields()
		if err != nil {
			return record.Row{}, err
		}
		if h.cleansed && len(h.columns) > 0 {
			fields = h.narrow(fields)
		}
		values := make([]any, len(h.columns))
		for i, col := range h.columns {
			if v, ok := fields[col]; ok {
				values[i] = v
			} else {
				values[i] = ""
			}
		}
		return record.Positional(values), nil

	default:
		return record.Row{}, fmt.Errorf("cannot order %s row: %w", row.Kind(), record.ErrTypeMismatch)
	}
}

// narrow restricts a keyed field map to the known column set, remapping
// input keys whose normalized form matches a column. Exact matches win over
// remapped ones.
func (h *Header) narrow(fields map[string]any) map[string]any {
	known := make(map[string]struct{}, len(h.columns))
	for _, col := range h.columns {
		if col == "" || IsRejected(col) {
			continue
		}
		known[col] = struct{}{}
	}

	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if _, ok := known[key]; ok {
			out[key] = value
			continue
		}
		norm := Normalize(key)
		if _, ok := known[norm]; ok {
			if _, exact := fields[norm]; !exact {
				out[norm] = value
			}
		}
	}
	return out
}
