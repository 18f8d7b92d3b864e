package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Given a status code derived from the error type
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON
//
// Request problems caught by the handlers themselves (bad JSON, missing file)
// use badRequest with code REQ002.

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/woimport/internal/core"
	"github.com/JonMunkholm/woimport/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	log := logger.Warn
	if statusCode >= http.StatusInternalServerError {
		log = logger.Error
	}
	log("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeErrorJSON(w, r, userMsg, statusCode)
}

// badRequest rejects a malformed request.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	logging.FromContext(r.Context()).Warn("bad request",
		"path", r.URL.Path,
		"method", r.Method,
		"reason", message,
	)
	writeErrorJSON(w, r, core.UserMessage{
		Message: message,
		Action:  "Check the request and try again",
		Code:    "REQ002",
	}, http.StatusBadRequest)
}

func writeErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps typed errors to HTTP status codes.
func statusFor(err error) int {
	var (
		fe  *core.FormatError
		ce  *core.ScheduleConfigError
		me  *core.MappingError
		cce *core.ConcurrencyError
	)
	switch {
	case errors.As(err, &ce), errors.As(err, &fe), errors.Is(err, core.ErrProjectRequired):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrScheduleNotFound), errors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound
	case errors.As(err, &cce):
		return http.StatusConflict
	case errors.As(err, &me):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
