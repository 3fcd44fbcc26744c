// internal/app/system/apierr/apierr.go
package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Error classes. Package errors wrap one of these so handlers can map them
// to a status code without importing the package that raised them.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("unavailable")

	ErrTooManyRequests = errors.New("too many requests")
)

// Error is a classified error whose Message is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

// New returns a classified error with a client-facing message.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) *Error  { return New(ErrValidation, format, args...) }
func NotFound(format string, args ...any) *Error { return New(ErrNotFound, format, args...) }
func Conflict(format string, args ...any) *Error { return New(ErrConflict, format, args...) }

type body struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write sends the standard error body.
func Write(w http.ResponseWriter, status int, message string) {
	JSON(w, status, body{Status: "error", Code: status, Message: message})
}

// Status maps err to an HTTP status and a client-facing message.
func Status(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		return statusFor(e.Kind), e.Message
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Not found."
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "Invalid request."
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "The request conflicts with the current state."
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Sign in required."
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "You do not have permission to do that."
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "The operation timed out."
	}
	return http.StatusInternalServerError, "Internal server error."
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(kind, ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Fail writes err as an error response. Server-side faults are logged with
// the operation name; client errors are not.
func Fail(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", zap.Error(err))
	}
	Write(w, status, msg)
}

// Decode reads a JSON body into dst, refusing unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Invalid("Malformed JSON body: %v", err)
	}
	return nil
}
