package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/ratpad-bridge/internal/bridge"
	"github.com/nerrad567/ratpad-bridge/internal/pad"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeInternal    = "internal_error"
	ErrCodeValidation  = "validation_error"
	ErrCodeDevice      = "device_error"
	ErrCodeUnavailable = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// statusFor maps a bridge error to an HTTP status and error code.
//
//	validation        422
//	unknown mode      404
//	connect in flight 409
//	device/transport  502
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, pad.ErrModeNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, bridge.ErrValidation):
		return http.StatusUnprocessableEntity, ErrCodeValidation
	case errors.Is(err, bridge.ErrConnectInFlight), errors.Is(err, bridge.ErrRefreshSuperseded):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, bridge.ErrTransport), errors.Is(err, bridge.ErrEmptyConfig):
		return http.StatusBadGateway, ErrCodeDevice
	case errors.Is(err, bridge.ErrClosed):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// writeBridgeError writes the response for a failed bridge operation.
func writeBridgeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err.Error())
}
