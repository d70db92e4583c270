// Package delim implements the quote-aware tokenizer for delimited-text
// lines. It sits on the hot path of row processing, so instead of a
// general-purpose CSV state machine it splits the line on the separator and
// reassembles quoted fields afterwards, which is safe because a quoted field
// containing the separator is the only case splitting can break.
//
// The tokenizer handles one physical line at a time. A quoted field
// containing a raw line break must already have been joined by the caller;
// an unterminated quote at end of line is malformed input here.
package delim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInput is returned for quoting errors in delimited text: a bare
// quote inside an unquoted field, a lone quote inside a quoted field, a
// disallowed control character, or an unterminated quote at end of line.
var ErrMalformedInput = errors.New("malformed delimited input")

// Tokenizer parses and renders one delimited line. The zero value behaves
// like CSV: comma separator, double-quote quoting, "\n" terminator.
type Tokenizer struct {
	// Separator is the single-byte field separator. Default ','.
	Separator byte

	// Quote is the single-byte quote character. Default '"'.
	Quote byte

	// ForceQuote quotes every rendered field instead of quoting on demand.
	ForceQuote bool

	// Terminator is appended to rendered lines when AppendTerminator is
	// set. Default "\n".
	Terminator string

	// AppendTerminator controls whether Render owns the line terminator.
	// Callers whose line sink appends its own separator should disable it.
	AppendTerminator bool
}

// NewTokenizer returns a tokenizer with CSV defaults and terminator
// appending enabled.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		Separator:        ',',
		Quote:            '"',
		Terminator:       "\n",
		AppendTerminator: true,
	}
}

func (t *Tokenizer) sep() byte {
	if t.Separator == 0 {
		return ','
	}
	return t.Separator
}

func (t *Tokenizer) quote() byte {
	if t.Quote == 0 {
		return '"'
	}
	return t.Quote
}

// Parse tokenizes one line into its ordered fields.
//
// The line is split on the separator, then the parts are walked left to
// right tracking whether a quoted value is still open: complete quoted parts
// are unwrapped and their doubled quotes collapsed, open ones re-absorb the
// separator the split consumed and keep accumulating until a part closes the
// quote.
func (t *Tokenizer) Parse(line string) ([]string, error) {
	sep := t.sep()
	quote := t.quote()
	sepStr := string(sep)
	quoteStr := string(quote)

	parts := strings.Split(line, sepStr)
	fields := make([]string, 0, len(parts))

	var pending strings.Builder
	open := false

	for _, part := range parts {
		if open {
			quotes := strings.Count(part, quoteStr)
			if len(part) > 0 && part[len(part)-1] == quote && quotes%2 == 1 {
				pending.WriteString(part[:len(part)-1])
				value, err := t.unescape(pending.String())
				if err != nil {
					return nil, err
				}
				fields = append(fields, value)
				open = false
				continue
			}
			pending.WriteString(part)
			pending.WriteByte(sep)
			continue
		}

		if len(part) > 0 && part[0] == quote {
			quotes := strings.Count(part, quoteStr)
			if len(part) > 1 && part[len(part)-1] == quote && quotes%2 == 0 {
				// Complete quoted field in a single part.
				value, err := t.unescape(part[1 : len(part)-1])
				if err != nil {
					return nil, err
				}
				fields = append(fields, value)
				continue
			}
			// Quote is still open; keep the separator the split ate.
			open = true
			pending.Reset()
			pending.WriteString(part[1:])
			pending.WriteByte(sep)
			continue
		}

		// Unquoted part. A separator inside it is structurally impossible
		// here, but a raw quote or control character is malformed.
		if strings.IndexByte(part, quote) >= 0 {
			return nil, fmt.Errorf("bare quote in field %q: %w", part, ErrMalformedInput)
		}
		if i := controlIndex(part); i >= 0 {
			return nil, fmt.Errorf("control character 0x%02x in field %q: %w", part[i], part, ErrMalformedInput)
		}
		fields = append(fields, part)
	}

	if open {
		return nil, fmt.Errorf("unterminated quote at end of line: %w", ErrMalformedInput)
	}
	return fields, nil
}

// unescape collapses doubled quotes in a quoted field's content. A lone
// quote left over after collapsing is malformed.
func (t *Tokenizer) unescape(s string) (string, error) {
	quote := t.quote()
	if strings.IndexByte(s, quote) < 0 {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != quote {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			b.WriteByte(quote)
			i++
			continue
		}
		return "", fmt.Errorf("lone quote inside quoted field %q: %w", s, ErrMalformedInput)
	}
	return b.String(), nil
}

// Render is the inverse of Parse: each field is quoted as needed, fields are
// joined with the separator, and the terminator is appended when the
// tokenizer owns it.
func (t *Tokenizer) Render(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = t.quoteField(f)
	}
	line := strings.Join(quoted, string(t.sep()))
	if t.AppendTerminator {
		line += t.terminator()
	}
	return line
}

func (t *Tokenizer) terminator() string {
	if t.Terminator == "" {
		return "\n"
	}
	return t.Terminator
}

// quoteField wraps a field in quotes, doubling internal quote characters,
// when the field contains the separator, the quote character, a control
// character, or when ForceQuote is set.
func (t *Tokenizer) quoteField(f string) string {
	sep := t.sep()
	quote := t.quote()

	needs := t.ForceQuote ||
		strings.IndexByte(f, sep) >= 0 ||
		strings.IndexByte(f, quote) >= 0 ||
		controlIndex(f) >= 0
	if !needs {
		return f
	}

	quoteStr := string(quote)
	escaped := strings.ReplaceAll(f, quoteStr, quoteStr+quoteStr)
	return quoteStr + escaped + quoteStr
}

// controlIndex returns the index of the first disallowed control character
// (below 0x20, tab excepted), or -1.
func controlIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 && s[i] != '\t' {
			return i
		}
	}
	return -1
}
