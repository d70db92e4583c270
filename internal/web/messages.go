package web

// messages.go maps codec errors to user-friendly messages with support
// codes. When users hit an error, the code gives support staff a stable
// reference independent of the message wording.
//
// Code ranges:
//
//	FMT001-FMT099 - format resolution and delimited-text grammar errors
//	HDR001-HDR099 - header/column governance errors
//	LAY001-LAY099 - fixed-width layout errors
//	LEN001-LEN099 - fixed-width length/width errors
//	VAL001-VAL099 - record shape and value errors
//	GEN001        - anything unmapped

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/tabwire/internal/delim"
	"github.com/JonMunkholm/tabwire/internal/fixedwidth"
	"github.com/JonMunkholm/tabwire/internal/format"
	"github.com/JonMunkholm/tabwire/internal/header"
	"github.com/JonMunkholm/tabwire/internal/record"
)

// UserMessage is a user-facing error with an action hint and support code.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

// kindMessage binds an error kind to its user message and HTTP status.
type kindMessage struct {
	kind   error
	status int
	msg    UserMessage
}

var kindMessages = []kindMessage{
	{
		kind:   format.ErrUnknownFormat,
		status: http.StatusBadRequest,
		msg: UserMessage{
			Message: "The requested format is not recognized",
			Action:  "Use one of the formats listed at /api/formats, or give a filename with a known extension",
			Code:    "FMT001",
		},
	},
	{
		kind:   delim.ErrMalformedInput,
		status: http.StatusBadRequest,
		msg: UserMessage{
			Message: "A line contains broken quoting",
			Action:  "Check for unbalanced or stray quote characters; quotes inside fields must be doubled",
			Code:    "FMT002",
		},
	},
	{
		kind:   header.ErrInvalidHeader,
		status: http.StatusBadRequest,
		msg: UserMessage{
			Message: "The header has unknown or missing columns",
			Action:  "Compare the column names against the allowed and required lists",
			Code:    "HDR001",
		},
	},
	{
		kind:   format.ErrMissingHeader,
		status: http.StatusBadRequest,
		msg: UserMessage{
			Message: "No columns are known yet for this session",
			Action:  "Provide a columns parameter or include a header line",
			Code:    "HDR002",
		},
	},
	{
		kind:   fixedwidth.ErrInvalidLayout,
		status: http.StatusBadRequest,
		msg: UserMessage{
			Message: "The fixed-width layout is malformed",
			Action:  "Each entry needs key:width, width * only in last position, type string/integer/float",
			Code:    "LAY001",
		},
	},
	{
		kind:   fixedwidth.ErrInvalidLineLength,
		status: http.StatusBadRequest,
		msg: UserMessage{
			Message: "A line does not match the layout's declared width",
			Action:  "Fixed-width lines must be exactly as long as the layout declares",
			Code:    "LEN001",
		},
	},
	{
		kind:   fixedwidth.ErrValueTooLong,
		status: http.StatusBadRequest,
		msg: UserMessage{
			Message: "A value does not fit its fixed-width field",
			Action:  "Shorten the value, widen the field, or enable truncation for string fields",
			Code:    "LEN002",
		},
	},
	{
		kind:   record.ErrTypeMismatch,
		status: http.StatusBadRequest,
		msg: UserMessage{
			Message: "A record's shape does not match what the format expects",
			Action:  "Check that records are objects and that columns are configured for positional data",
			Code:    "VAL001",
		},
	},
}

// MapError resolves an error to its user message and HTTP status.
func MapError(err error) (UserMessage, int) {
	for _, km := range kindMessages {
		if errors.Is(err, km.kind) {
			return km.msg, km.status
		}
	}
	return UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again; quote the code if the problem persists",
		Code:    "GEN001",
	}, http.StatusInternalServerError
}

// ErrorCode returns just the support code for an error, for per-line
// failure reporting.
func ErrorCode(err error) string {
	msg, _ := MapError(err)
	return msg.Code
}
