package format

import (
	"github.com/JonMunkholm/tabwire/internal/delim"
	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
)

// delimitedCodec adapts the delim tokenizer to the Codec interface.
// Decode yields positional rows; Encode orders keyed rows through the
// governance header first.
type delimitedCodec struct {
	tok *delim.Tokenizer
	hdr *header.Header
}

// newDelimitedFactory builds delimited codecs with the given default
// separator; session options override separator, quote, and terminator
// behavior.
func newDelimitedFactory(defaultSep byte) Factory {
	return func(hdr *header.Header, cfg SessionConfig) (Codec, error) {
		tok := delim.NewTokenizer()
		tok.Separator = defaultSep
		if cfg.Delimited.Separator != 0 {
			tok.Separator = cfg.Delimited.Separator
		}
		if cfg.Delimited.Quote != 0 {
			tok.Quote = cfg.Delimited.Quote
		}
		if cfg.Delimited.Terminator != "" {
			tok.Terminator = cfg.Delimited.Terminator
		}
		tok.ForceQuote = cfg.Delimited.ForceQuote
		tok.AppendTerminator = !cfg.Delimited.OmitTerminator
		return &delimitedCodec{tok: tok, hdr: hdr}, nil
	}
}

func (c *delimitedCodec) NeedsHeader() bool {
	return true
}

func (c *delimitedCodec) Decode(line string) (record.Row, error) {
	if line == "" {
		return record.Blank(), nil
	}
	fields, err := c.tok.Parse(line)
	if err != nil {
		return record.Row{}, err
	}
	return record.PositionalStrings(fields), nil
}

func (c *delimitedCodec) Encode(row record.Row) (string, error) {
	pos, err := c.hdr.ToPositional(row)
	if err != nil {
		return "", err
	}
	values, err := pos.Values()
	if err != nil {
		return "", err
	}
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = record.FormatValue(v)
	}
	return c.tok.Render(fields), nil
}

func (c *delimitedCodec) DecodeHeader(line string) ([]string, error) {
	return c.tok.Parse(line)
}

func (c *delimitedCodec) EncodeHeader(columns []string) (string, error) {
	return c.tok.Render(columns), nil
}

func (c *delimitedCodec) DefaultColumns() []string {
	return nil
}
