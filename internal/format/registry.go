// Package format resolves format identifiers to concrete codecs and exposes
// the uniform parse/render session used by the surrounding pipeline.
//
// The registry is an immutable-after-construction table built once at
// startup through RegistryBuilder and passed by reference into sessions;
// steady-state lookups need no locking.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
)

// Dispatcher errors.
var (
	// ErrUnknownFormat is returned when neither explicit configuration,
	// filename inference, nor the configured default yields a format.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrMissingHeader is returned when a header render is requested
	// before columns are known.
	ErrMissingHeader = errors.New("columns not set, cannot render header")
)

// Codec is one wire format's parse/render implementation, bound to a
// session's governance header at construction.
type Codec interface {
	// NeedsHeader reports whether the format's records carry no inherent
	// field names, so a header line or configured column list is needed.
	NeedsHeader() bool

	// Decode parses one line into a row: positional for delimited text,
	// keyed for self-describing formats, blank for blank input.
	Decode(line string) (record.Row, error)

	// Encode renders a row as line text, converting through the session's
	// governance header as the format requires.
	Encode(row record.Row) (string, error)

	// DecodeHeader extracts column names from a header line. Formats that
	// carry field names inline return nil.
	DecodeHeader(line string) ([]string, error)

	// EncodeHeader renders a header line from the column list.
	EncodeHeader(columns []string) (string, error)

	// DefaultColumns returns the column list implied by the codec's own
	// configuration (the fixed-width layout keys), or nil.
	DefaultColumns() []string
}

// Factory builds a codec for one session, bound to its governance header.
type Factory func(hdr *header.Header, cfg SessionConfig) (Codec, error)

// Registry is the immutable format-identifier → codec-factory table.
type Registry struct {
	factories map[string]Factory
	exts      map[string]string
	fallback  string
}

// RegistryBuilder accumulates registrations and produces a Registry.
// Registration is a startup-time step; Build is the end of mutation.
type RegistryBuilder struct {
	factories map[string]Factory
	exts      map[string]string
	fallback  string
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		factories: make(map[string]Factory),
		exts:      make(map[string]string),
	}
}

// Register adds a format under the given identifier, with optional filename
// extensions used for inference. Panics on duplicate identifiers, like
// duplicate registrations anywhere else at startup.
func (b *RegistryBuilder) Register(name string, factory Factory, exts ...string) *RegistryBuilder {
	if _, exists := b.factories[name]; exists {
		panic(fmt.Sprintf("format already registered: %s", name))
	}
	b.factories[name] = factory
	for _, ext := range exts {
		b.exts[strings.ToLower(ext)] = name
	}
	return b
}

// Default sets the format used when neither configuration nor inference
// resolves one.
func (b *RegistryBuilder) Default(name string) *RegistryBuilder {
	b.fallback = name
	return b
}

// Build produces the immutable registry.
func (b *RegistryBuilder) Build() *Registry {
	factories := make(map[string]Factory, len(b.factories))
	for k, v := range b.factories {
		factories[k] = v
	}
	exts := make(map[string]string, len(b.exts))
	for k, v := range b.exts {
		exts[k] = v
	}
	return &Registry{factories: factories, exts: exts, fallback: b.fallback}
}

// Formats returns the registered format identifiers, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns the filename extensions registered for name, sorted.
func (r *Registry) Extensions(name string) []string {
	var exts []string
	for ext, n := range r.exts {
		if n == name {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// Resolve picks a format: the explicit name if given, otherwise the
// rightmost recognized extension of filename, otherwise the default.
func (r *Registry) Resolve(name, filename string) (string, Factory, error) {
	if name != "" {
		factory, ok := r.factories[name]
		if !ok {
			return "", nil, fmt.Errorf("format %q not registered: %w", name, ErrUnknownFormat)
		}
		return name, factory, nil
	}

	if inferred := r.inferFromFilename(filename); inferred != "" {
		return inferred, r.factories[inferred], nil
	}

	if r.fallback != "" {
		factory, ok := r.factories[r.fallback]
		if ok {
			return r.fallback, factory, nil
		}
	}

	return "", nil, fmt.Errorf("no format configured or inferred for %q: %w", filename, ErrUnknownFormat)
}

// inferFromFilename scans the dot-separated suffixes of the base name from
// right to left and returns the first recognized one, so a compressed name
// like data.csv.gz still resolves as csv.
func (r *Registry) inferFromFilename(filename string) string {
	if filename == "" {
		return ""
	}
	parts := strings.Split(filepath.Base(filename), ".")
	for i := len(parts) - 1; i >= 1; i-- {
		if name, ok := r.exts[strings.ToLower(parts[i])]; ok {
			return name
		}
	}
	return ""
}
