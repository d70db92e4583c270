package format

import (
	"fmt"

	"github.com/JonMunkholm/tabwire/internal/fixedwidth"
	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
)

// fixedCodec adapts the fixed-width codec to the Codec interface.
type fixedCodec struct {
	fw *fixedwidth.Codec
}

// newFixedFactory builds fixed-width codecs from the session's layout
// (either a constructed Layout or a compact layout spec string).
func newFixedFactory() Factory {
	return func(hdr *header.Header, cfg SessionConfig) (Codec, error) {
		layout := cfg.Fixed.Layout
		if layout == nil {
			if cfg.Fixed.LayoutSpec == "" {
				return nil, fmt.Errorf("fixed format needs a layout: %w", fixedwidth.ErrInvalidLayout)
			}
			var err error
			layout, err = fixedwidth.ParseLayoutSpec(cfg.Fixed.LayoutSpec)
			if err != nil {
				return nil, err
			}
		}

		fw := fixedwidth.NewCodec(layout, hdr)
		fw.Truncate = !cfg.Fixed.NoTruncate
		return &fixedCodec{fw: fw}, nil
	}
}

func (c *fixedCodec) NeedsHeader() bool {
	return true
}

func (c *fixedCodec) Decode(line string) (record.Row, error) {
	if line == "" {
		return record.Blank(), nil
	}
	fields, err := c.fw.Parse(line)
	if err != nil {
		return record.Row{}, err
	}
	return record.Keyed(fields), nil
}

func (c *fixedCodec) Encode(row record.Row) (string, error) {
	return c.fw.Render(row)
}

func (c *fixedCodec) DecodeHeader(line string) ([]string, error) {
	return c.fw.ParseHeaderLine(line)
}

func (c *fixedCodec) EncodeHeader(columns []string) (string, error) {
	return c.fw.RenderHeaderLine(columns), nil
}

func (c *fixedCodec) DefaultColumns() []string {
	return c.fw.Layout().Keys()
}
