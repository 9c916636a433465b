package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the API server could not be reached
	ErrServerOffline = errors.New("server is unreachable")

	// ErrUnauthenticated indicates a missing, invalid or expired session
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden indicates the session may not perform the operation
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates the input was rejected
	ErrValidation = errors.New("invalid input")

	// ErrConflict indicates the entity already exists or changed concurrently
	ErrConflict = errors.New("conflict")

	// ErrServer indicates the server failed to handle the request
	ErrServer = errors.New("server error")
)

// ErrorKind classifies an APIError
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrServerOffline
	case KindValidation:
		return ErrValidation
	case KindUnauthenticated:
		return ErrUnauthenticated
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindServer:
		return ErrServer
	default:
		return nil
	}
}

// KindFromStatus maps an HTTP status code to an error kind
func KindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindUnauthenticated
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// APIError is the normalized form of every failure a slice can record.
// errors.Is matches it against the sentinel for its Kind.
type APIError struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response was received
	Message string // human readable, from the server when it sent one
	Err     error  // underlying cause, if any
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewValidationError builds a client-side validation failure
func NewValidationError(format string, args ...any) *APIError {
	return &APIError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// AsAPIError extracts an APIError from err
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
