package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrConflict        = errors.New("record conflicts with an existing one")
	ErrInvalidCode     = errors.New("incorrect or already used code")
	ErrDeliveryFailure = errors.New("message could not be delivered")
	ErrRenderFailure   = errors.New("document could not be generated")
	ErrUnauthorized    = errors.New("invalid credentials")
	ErrInactiveAccount = errors.New("your account has not been verified yet")
	ErrForbidden       = errors.New("insufficient permissions")
)

// ValidationError reports missing or inconsistent input fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records another field problem and returns the receiver for chaining.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
	return e
}

// OrNil returns nil when no field was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StatusCode maps an error to the HTTP status a handler should answer with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInactiveAccount), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDeliveryFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrRenderFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
