package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/logging"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Unauthorized writes a 401 with the bearer challenge header.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Error(w, http.StatusUnauthorized, message)
}

// StatusOf maps an error kind onto an HTTP status code.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInactive:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// FromError translates a service failure into a response. Anything that is not
// an *apperr.Error is logged and answered with a generic 500.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			logging.FieldMethod, r.Method,
			logging.FieldPath, r.URL.Path,
			logging.FieldError, err.Error())
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := StatusOf(appErr.Kind)
	if status == http.StatusUnauthorized {
		Unauthorized(w, appErr.Message)
		return
	}
	write(w, status, Envelope{Code: status, Message: appErr.Message, Errors: appErr.Fields})
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(context.Background()).Error("respond: encode payload failed", logging.FieldError, err.Error())
	}
}
