package format

// passthrough.go holds the two structured pass-through formats. Their
// "parsing" is the identity function: json maps one JSON object per line to
// a keyed record, raw maps the whole line to a single field. Neither needs
// a header; field names travel with the data.

import (
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
)

// rawFieldName is the single column a raw record carries.
const rawFieldName = "line"

type jsonCodec struct {
	hdr *header.Header
}

func newJSONFactory() Factory {
	return func(hdr *header.Header, cfg SessionConfig) (Codec, error) {
		return &jsonCodec{hdr: hdr}, nil
	}
}

func (c *jsonCodec) NeedsHeader() bool {
	return false
}

func (c *jsonCodec) Decode(line string) (record.Row, error) {
	if line == "" {
		return record.Blank(), nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return record.Row{}, fmt.Errorf("not a JSON object line: %w", err)
	}
	return record.Keyed(fields), nil
}

func (c *jsonCodec) Encode(row record.Row) (string, error) {
	fields, err := c.hdr.ToKeyed(row)
	if err != nil {
		return "", err
	}
	if fields == nil {
		return "", nil
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(out), nil
}

func (c *jsonCodec) DecodeHeader(string) ([]string, error) {
	return nil, nil
}

func (c *jsonCodec) EncodeHeader([]string) (string, error) {
	return "", nil
}

func (c *jsonCodec) DefaultColumns() []string {
	return nil
}

type rawCodec struct{}

func newRawFactory() Factory {
	return func(hdr *header.Header, cfg SessionConfig) (Codec, error) {
		return &rawCodec{}, nil
	}
}

func (c *rawCodec) NeedsHeader() bool {
	return false
}

func (c *rawCodec) Decode(line string) (record.Row, error) {
	if line == "" {
		return record.Blank(), nil
	}
	return record.Keyed(map[string]any{rawFieldName: line}), nil
}

func (c *rawCodec) Encode(row record.Row) (string, error) {
	fields, err := row.Fields()
	if err != nil {
		return "", err
	}
	return record.FormatValue(fields[rawFieldName]), nil
}

func (c *rawCodec) DecodeHeader(string) ([]string, error) {
	return nil, nil
}

func (c *rawCodec) EncodeHeader([]string) (string, error) {
	return "", nil
}

func (c *rawCodec) DefaultColumns() []string {
	return nil
}
