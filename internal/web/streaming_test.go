package web

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "body with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b,c")...),
			expected: "a,b,c",
		},
		{
			name:     "body without BOM",
			input:    []byte("a,b,c"),
			expected: "a,b,c",
		},
		{
			name:     "empty body",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestUTF8SanitizingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "plain ascii passes through",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "valid utf8 passes through",
			input:    []byte("héllo,wörld"),
			expected: "héllo,wörld",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'a', 0xFF, 'b'},
			expected: "a?b",
		},
		{
			name:     "truncated multibyte sequence replaced",
			input:    []byte{'a', 0xC3},
			expected: "a?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newUTF8SanitizingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestWrapBody_CombinesBOMAndSanitizing(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\nc,d")...)

	result, err := io.ReadAll(wrapBody(bytes.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "a,b\nc,d" {
		t.Errorf("got %q", result)
	}
}

func TestWrapBody_LargeBody(t *testing.T) {
	// Exercise the chunked read path across buffer boundaries.
	line := strings.Repeat("field,", 1000) + "end\n"
	input := strings.Repeat(line, 50)

	result, err := io.ReadAll(wrapBody(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("large body mangled: got %d bytes, want %d", len(result), len(input))
	}
}
