package web

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/tabwire/internal/logging"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code,omitempty"`
}

// respondError maps err to a user-facing message and status code, logs the
// underlying error with the request ID, and writes the JSON response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg, status := MapError(err)

	logger := logging.FromContext(r.Context())
	logger.Error("request failed",
		"error", err,
		"status", status,
		"code", msg.Code,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}); encErr != nil {
		logger.Error("json encode error", "error", encErr)
	}
}
