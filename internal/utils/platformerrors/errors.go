// Package platformerrors carries the service error taxonomy and its
// mapping to transport responses.
package platformerrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeSessionClosed ErrorType = "SESSION_CLOSED"
	ErrorTypeDelivery      ErrorType = "DELIVERY"
	ErrorTypePersistence   ErrorType = "PERSISTENCE"
	ErrorTypeExternal      ErrorType = "EXTERNAL"
	ErrorTypeInternal      ErrorType = "INTERNAL"
)

// Layer represents the application layer where the error occurred.
type Layer string

const (
	LayerRepository     Layer = "repository"
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerTransport      Layer = "transport"
	LayerInfrastructure Layer = "infrastructure"
)

// PlatformError is an error with taxonomy and layer metadata.
type PlatformError struct {
	Type      ErrorType
	Message   string
	Err       error
	Layer     Layer
	Timestamp time.Time
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s] %s: %v", e.Layer, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s] %s", e.Layer, e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// New creates a PlatformError.
func New(layer Layer, errorType ErrorType, message string, err error) *PlatformError {
	return &PlatformError{
		Type:      errorType,
		Message:   message,
		Err:       err,
		Layer:     layer,
		Timestamp: time.Now().UTC(),
	}
}

// Get extracts a PlatformError from an error chain, or nil.
func Get(err error) *PlatformError {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr
	}
	return nil
}

// ToHTTPStatus maps an error type to an HTTP status code.
func ToHTTPStatus(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeConflict, ErrorTypeSessionClosed:
		return http.StatusConflict
	case ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code converts an ErrorType to the snake_case code used in error
// envelopes and HTTP responses.
func Code(t ErrorType) string {
	switch t {
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeValidation:
		return "validation_error"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypeSessionClosed:
		return "session_closed"
	case ErrorTypeDelivery:
		return "delivery_error"
	case ErrorTypePersistence:
		return "persistence_error"
	case ErrorTypeExternal:
		return "external_error"
	default:
		return "internal_error"
	}
}
