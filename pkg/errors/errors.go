package errors

import (
	stderrors "errors"
	"fmt"
)

// Error types
const (
	// ErrValidation is returned when a tool argument fails validation before
	// any network traffic happens
	ErrValidation = "validation"

	// ErrMissingCredentials is returned when no usable client credentials
	// could be resolved from the request or the environment
	ErrMissingCredentials = "missing_credentials"

	// ErrAuthentication is returned when the identity provider or the API
	// rejects the presented credentials
	ErrAuthentication = "authentication"

	// ErrAPI is returned when the API answers with a non-auth error status
	ErrAPI = "api"

	// ErrTransport is returned when the request never produced an HTTP
	// response (DNS failure, timeout, connection reset)
	ErrTransport = "transport"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Detail carries machine-readable context for the error, such as the
	// offending field or the HTTP status code
	Detail map[string]any

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a machine-readable detail entry and returns the error
// for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Detail == nil {
		e.Detail = map[string]any{}
	}
	e.Detail[key] = value
	return e
}

// StatusCode returns the HTTP status recorded in the error detail, or 0 when
// the error carries none.
func (e *Error) StatusCode() int {
	if code, ok := e.Detail["status_code"].(int); ok {
		return code
	}
	return 0
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a new validation error naming the offending
// field and the reason it was rejected
func NewValidationError(field, reason string) *Error {
	e := NewError(ErrValidation, fmt.Sprintf("%s: %s", field, reason), nil)
	return e.WithDetail("field", field).WithDetail("reason", reason)
}

// NewMissingCredentialsError creates a new missing credentials error naming
// the credential member that could not be resolved
func NewMissingCredentialsError(message, missing string) *Error {
	return NewError(ErrMissingCredentials, message, nil).WithDetail("missing", missing)
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string, cause error) *Error {
	return NewError(ErrAuthentication, message, cause)
}

// NewAPIError creates a new API error preserving the response body verbatim
func NewAPIError(statusCode int, body string) *Error {
	e := NewError(ErrAPI, fmt.Sprintf("unexpected status %d", statusCode), nil)
	return e.WithDetail("status_code", statusCode).WithDetail("body", body)
}

// NewTransportError creates a new transport error
func NewTransportError(message string, cause error) *Error {
	return NewError(ErrTransport, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrValidation
}

// IsMissingCredentials checks if the error is a missing credentials error
func IsMissingCredentials(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrMissingCredentials
}

// IsAuthentication checks if the error is an authentication error
func IsAuthentication(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrAuthentication
}

// IsAPI checks if the error is an API error
func IsAPI(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrAPI
}

// IsTransport checks if the error is a transport error
func IsTransport(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrTransport
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrInternal
}

// AsError unwraps err to the first *Error in its chain. It returns false when
// the chain contains none.
func AsError(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}
