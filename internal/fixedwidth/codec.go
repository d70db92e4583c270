package fixedwidth

// codec.go decodes and encodes fixed-width lines against a Layout.
//
// Parse walks the layout left to right consuming exactly Width bytes per
// field. Render pads per type: strings left-justified with spaces, numerics
// right-justified with zeros. Truncation applies to strings only and only
// when enabled; numerics that overflow their width always fail.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
)

// Codec encodes and decodes fixed-width lines for one session.
type Codec struct {
	layout *Layout
	hdr    *header.Header

	// Truncate hard-truncates over-width string values instead of failing.
	Truncate bool
}

// NewCodec creates a codec over the given layout. Rendered rows are keyed
// through hdr. Truncation is enabled by default.
func NewCodec(layout *Layout, hdr *header.Header) *Codec {
	return &Codec{layout: layout, hdr: hdr, Truncate: true}
}

// Layout returns the codec's layout.
func (c *Codec) Layout() *Layout {
	return c.layout
}

// Parse decodes one fixed-width line into a keyed record.
//
// When the layout has no remainder field the line length must match the
// declared total width exactly; no silent padding or truncation happens on
// read. Blank string fields decode to "", blank numeric fields decode to an
// explicit nil (absent), not zero.
func (c *Codec) Parse(line string) (map[string]any, error) {
	if !c.layout.hasRemainder && len(line) != c.layout.fixedLen {
		return nil, fmt.Errorf("line is %d bytes, layout declares %d: %w",
			len(line), c.layout.fixedLen, ErrInvalidLineLength)
	}

	out := make(map[string]any, len(c.layout.fields))
	offset := 0
	for _, f := range c.layout.fields {
		var chunk string
		if f.Width == Remainder {
			chunk = line[offset:]
			offset = len(line)
		} else {
			if offset+f.Width > len(line) {
				return nil, fmt.Errorf("line is %d bytes, field %q needs %d more: %w",
					len(line), f.Key, offset+f.Width-len(line), ErrInvalidLineLength)
			}
			chunk = line[offset : offset+f.Width]
			offset += f.Width
		}

		if f.Key == "" {
			continue
		}

		trimmed := strings.TrimSpace(chunk)
		switch f.Type {
		case TypeString:
			out[f.Key] = trimmed
		case TypeInteger:
			if trimmed == "" {
				out[f.Key] = nil
				continue
			}
			n, err := strconv.ParseInt(trimmed, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("field %q: invalid integer %q", f.Key, trimmed)
			}
			out[f.Key] = n
		case TypeFloat:
			if trimmed == "" {
				out[f.Key] = nil
				continue
			}
			v, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				return nil, fmt.Errorf("field %q: invalid float %q", f.Key, trimmed)
			}
			out[f.Key] = v
		}
	}

	return out, nil
}

// Render encodes a row as one fixed-width line. The row is first converted
// to keyed form through the session's governance header.
func (c *Codec) Render(row record.Row) (string, error) {
	fields, err := c.hdr.ToKeyed(row)
	if err != nil {
		return "", err
	}
	if fields == nil {
		return "", nil
	}

	var b strings.Builder
	for _, f := range c.layout.fields {
		if f.Width == Remainder {
			// The remainder field renders the plain value, unpadded and
			// unchecked.
			b.WriteString(record.FormatValue(fields[f.Key]))
			continue
		}
		if f.Key == "" {
			b.WriteString(strings.Repeat(" ", f.Width))
			continue
		}

		cell, err := c.renderField(f, fields[f.Key])
		if err != nil {
			return "", err
		}
		b.WriteString(cell)
	}

	return b.String(), nil
}

// renderField formats one value into exactly f.Width bytes.
func (c *Codec) renderField(f Field, value any) (string, error) {
	switch f.Type {
	case TypeString:
		s := record.FormatValue(value)
		if len(s) > f.Width {
			if !c.Truncate {
				return "", fmt.Errorf("field %q: %q exceeds width %d: %w",
					f.Key, s, f.Width, ErrValueTooLong)
			}
			s = s[:f.Width]
		}
		return s + strings.Repeat(" ", f.Width-len(s)), nil

	case TypeInteger:
		n, ok, err := record.AsInt(value)
		if err != nil {
			return "", fmt.Errorf("field %q: %v", f.Key, err)
		}
		if !ok {
			// Absent value renders as blanks so it reads back as absent.
			return strings.Repeat(" ", f.Width), nil
		}
		s := strconv.FormatInt(n, 10)
		if len(s) > f.Width {
			return "", fmt.Errorf("field %q: %d exceeds width %d: %w",
				f.Key, n, f.Width, ErrValueTooLong)
		}
		return zeroPad(s, f.Width), nil

	case TypeFloat:
		v, ok, err := record.AsFloat(value)
		if err != nil {
			return "", fmt.Errorf("field %q: %v", f.Key, err)
		}
		if !ok {
			return strings.Repeat(" ", f.Width), nil
		}
		s := strconv.FormatFloat(v, 'f', f.Decimals, 64)
		if len(s) > f.Width {
			return "", fmt.Errorf("field %q: %s exceeds width %d: %w",
				f.Key, s, f.Width, ErrValueTooLong)
		}
		return zeroPad(s, f.Width), nil

	default:
		return "", fmt.Errorf("field %q has unknown type: %w", f.Key, ErrInvalidLayout)
	}
}

// ParseHeaderLine reads a fixed-width line as column names: every non-filler
// field contributes its trimmed content, in layout order.
func (c *Codec) ParseHeaderLine(line string) ([]string, error) {
	if !c.layout.hasRemainder && len(line) != c.layout.fixedLen {
		return nil, fmt.Errorf("header line is %d bytes, layout declares %d: %w",
			len(line), c.layout.fixedLen, ErrInvalidLineLength)
	}

	var names []string
	offset := 0
	for _, f := range c.layout.fields {
		var chunk string
		if f.Width == Remainder {
			chunk = line[offset:]
			offset = len(line)
		} else {
			if offset+f.Width > len(line) {
				return nil, fmt.Errorf("header line is %d bytes, layout declares more: %w",
					len(line), ErrInvalidLineLength)
			}
			chunk = line[offset : offset+f.Width]
			offset += f.Width
		}
		if f.Key == "" {
			continue
		}
		names = append(names, strings.TrimSpace(chunk))
	}
	return names, nil
}

// RenderHeaderLine writes column names into the layout's non-filler fields,
// left-justified and space-padded like string values. Over-width names are
// always truncated; a header line must stay aligned with the layout.
func (c *Codec) RenderHeaderLine(columns []string) string {
	var b strings.Builder
	next := 0
	for _, f := range c.layout.fields {
		name := ""
		if f.Key != "" && next < len(columns) {
			name = columns[next]
			next++
		}
		if f.Width == Remainder {
			b.WriteString(name)
			continue
		}
		if len(name) > f.Width {
			name = name[:f.Width]
		}
		b.WriteString(name + strings.Repeat(" ", f.Width-len(name)))
	}
	return b.String()
}

// zeroPad right-justifies s to width with leading zeros, keeping a leading
// minus sign ahead of the padding.
func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	if strings.HasPrefix(s, "-") {
		return "-" + strings.Repeat("0", width-len(s)) + s[1:]
	}
	return strings.Repeat("0", width-len(s)) + s
}
