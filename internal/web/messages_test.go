package web

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JonMunkholm/tabwire/internal/delim"
	"github.com/JonMunkholm/tabwire/internal/fixedwidth"
	"github.com/JonMunkholm/tabwire/internal/format"
	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "unknown format",
			err:        format.ErrUnknownFormat,
			wantCode:   "FMT001",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed delimited input",
			err:        delim.ErrMalformedInput,
			wantCode:   "FMT002",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid header",
			err:        header.ErrInvalidHeader,
			wantCode:   "HDR001",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing header",
			err:        format.ErrMissingHeader,
			wantCode:   "HDR002",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid layout",
			err:        fixedwidth.ErrInvalidLayout,
			wantCode:   "LAY001",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "line length mismatch",
			err:        fixedwidth.ErrInvalidLineLength,
			wantCode:   "LEN001",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "value too long",
			err:        fixedwidth.ErrValueTooLong,
			wantCode:   "LEN002",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "type mismatch",
			err:        record.ErrTypeMismatch,
			wantCode:   "VAL001",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unmapped error",
			err:        errors.New("something else"),
			wantCode:   "GEN001",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, status := MapError(tt.err)
			if msg.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", msg.Code, tt.wantCode)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if msg.Message == "" || msg.Action == "" {
				t.Error("message and action should not be empty")
			}
		})
	}
}

func TestMapError_WrappedErrors(t *testing.T) {
	// Codec errors arrive wrapped with context; mapping must see through.
	err := fmt.Errorf("line 12: %w", fixedwidth.ErrInvalidLineLength)

	msg, _ := MapError(err)
	if msg.Code != "LEN001" {
		t.Errorf("code = %q, want LEN001", msg.Code)
	}
}

func TestErrorCode(t *testing.T) {
	if code := ErrorCode(delim.ErrMalformedInput); code != "FMT002" {
		t.Errorf("ErrorCode = %q, want FMT002", code)
	}
}
