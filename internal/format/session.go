package format

// session.go is the dispatcher: one Session per file or stream, constructed
// with a resolved format and governance constraints. The session owns the
// governance header exclusively; it must not be shared across concurrent
// sessions.

import (
	"fmt"

	"github.com/JonMunkholm/tabwire/internal/fixedwidth"
	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
	"github.com/google/uuid"
)

// DelimitedOptions configures the delimited-text tokenizer for a session.
// Zero values keep the format defaults.
type DelimitedOptions struct {
	Separator  byte
	Quote      byte
	ForceQuote bool
	Terminator string

	// OmitTerminator hands terminator ownership to the line sink: rendered
	// lines are emitted as bare content.
	OmitTerminator bool
}

// FixedOptions configures the fixed-width codec for a session. Either a
// constructed Layout or a compact LayoutSpec must be given.
type FixedOptions struct {
	Layout     *fixedwidth.Layout
	LayoutSpec string

	// NoTruncate fails over-width string values instead of truncating.
	NoTruncate bool
}

// SessionConfig is the per-file/stream configuration for a session.
type SessionConfig struct {
	// Format is the explicit format identifier. Empty means infer from
	// Filename or fall back to the registry default.
	Format string

	// Filename is used for extension-based format inference.
	Filename string

	// Columns preloads the governance column list, for inputs whose first
	// line is not a header.
	Columns []string

	// Governance holds the allow-list, required-list, and skip-unknown
	// constraints.
	Governance header.Config

	Delimited DelimitedOptions
	Fixed     FixedOptions
}

// Session dispatches parse and render calls for one file or stream through
// the resolved codec and the session's governance header.
type Session struct {
	id     string
	format string
	codec  Codec
	hdr    *header.Header
}

// NewSession resolves the format and builds the codec and governance header
// for one parsing or rendering session.
func NewSession(reg *Registry, cfg SessionConfig) (*Session, error) {
	name, factory, err := reg.Resolve(cfg.Format, cfg.Filename)
	if err != nil {
		return nil, err
	}

	hdr := header.New(cfg.Governance)
	codec, err := factory(hdr, cfg)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}

	switch {
	case len(cfg.Columns) > 0:
		hdr.SetColumns(cfg.Columns)
	case codec.DefaultColumns() != nil:
		hdr.SetColumns(codec.DefaultColumns())
	}

	return &Session{
		id:     uuid.NewString(),
		format: name,
		codec:  codec,
		hdr:    hdr,
	}, nil
}

// ID is the session's unique identifier, used for log and audit correlation.
func (s *Session) ID() string {
	return s.id
}

// Format is the resolved format identifier.
func (s *Session) Format() string {
	return s.format
}

// Header exposes the session's governance header.
func (s *Session) Header() *header.Header {
	return s.hdr
}

// NeedsHeader reports whether this session's format requires a header line
// or a configured column list before records can be keyed.
func (s *Session) NeedsHeader() bool {
	return s.codec.NeedsHeader()
}

// ParseHeader reads a header line and sets the governance columns from it.
// It is a no-op for formats that carry field names inline.
func (s *Session) ParseHeader(line string) error {
	if !s.codec.NeedsHeader() {
		return nil
	}
	columns, err := s.codec.DecodeHeader(line)
	if err != nil {
		return err
	}
	s.hdr.SetColumns(columns)
	return nil
}

// CleanseColumns normalizes and validates the governance columns, returning
// the original names of rejected columns.
func (s *Session) CleanseColumns() ([]string, error) {
	return s.hdr.Cleanse()
}

// ParseRecord decodes one line and keys it through governance. A nil map
// with nil error means blank input: skip this record.
func (s *Session) ParseRecord(line string) (map[string]any, error) {
	row, err := s.codec.Decode(line)
	if err != nil {
		return nil, err
	}
	return s.hdr.ToKeyed(row)
}

// RenderRecord encodes a keyed record as line text.
func (s *Session) RenderRecord(fields map[string]any) (string, error) {
	return s.codec.Encode(record.Keyed(fields))
}

// RenderHeader renders a header line from the current governance columns.
// Formats that need no header render nothing.
func (s *Session) RenderHeader() (string, error) {
	if !s.codec.NeedsHeader() {
		return "", nil
	}
	if !s.hdr.HasColumns() {
		return "", ErrMissingHeader
	}
	return s.codec.EncodeHeader(s.hdr.Columns())
}

// BuiltinFormats returns a builder preloaded with the built-in formats:
// delimited csv and tsv, fixed-width, and the json/raw pass-throughs.
func BuiltinFormats() *RegistryBuilder {
	return NewRegistryBuilder().
		Register("csv", newDelimitedFactory(','), "csv").
		Register("tsv", newDelimitedFactory('\t'), "tsv", "tab").
		Register("fixed", newFixedFactory(), "fixed", "flat", "dat").
		Register("json", newJSONFactory(), "json", "jsonl", "ndjson").
		Register("raw", newRawFactory(), "raw", "log", "txt")
}

// DefaultRegistry builds the registry of built-in formats with no fallback.
func DefaultRegistry() *Registry {
	return BuiltinFormats().Build()
}
