package order

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSource        = errors.New("order: invalid order source")
	ErrOrderWithoutProducts = errors.New("order: order has no products")
	ErrInvalidQuantity      = errors.New("order: line item quantity must be >= 1")
	ErrInvalidTrackingID    = errors.New("order: tracking id must be 8-15 uppercase alphanumeric characters")
	ErrEmptyPatch           = errors.New("order: update patch has no fields")
)

// NetworkError represents a transport-level or non-2xx failure talking to an
// upstream store. Adapters wrap transport failures in this type so callers can
// tell which source failed.
type NetworkError struct {
	// Source is the upstream store that failed
	Source Source
	// Op is the adapter operation that was running
	Op string
	// StatusCode is the HTTP status, 0 for transport failures
	StatusCode int
	// Err is the underlying cause
	Err error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s failed with HTTP %d: %v", e.Source, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Source, e.Op, e.Err)
}

// Unwrap returns the underlying cause
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a NetworkError for the given source and operation
func NewNetworkError(source Source, op string, statusCode int, err error) *NetworkError {
	return &NetworkError{Source: source, Op: op, StatusCode: statusCode, Err: err}
}

// MalformedResponseError indicates an upstream JSON payload did not match the
// expected shape.
type MalformedResponseError struct {
	// Source is the upstream store that returned the payload
	Source Source
	// Op is the adapter operation that was running
	Op string
	// Err is the decoding error
	Err error
}

// Error implements the error interface
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s returned malformed response: %v", e.Source, e.Op, e.Err)
}

// Unwrap returns the decoding error
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// NewMalformedResponseError creates a MalformedResponseError
func NewMalformedResponseError(source Source, op string, err error) *MalformedResponseError {
	return &MalformedResponseError{Source: source, Op: op, Err: err}
}

// ValidationError indicates a mutation patch failed validation before any
// network call was issued.
type ValidationError struct {
	// Field is the patch field that failed
	Field string
	// Err is the validation failure
	Err error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("order: invalid %s: %v", e.Field, e.Err)
}

// Unwrap returns the validation failure
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates a lookup by business order id found no order.
type NotFoundError struct {
	// Source is the store that was searched, empty when both were
	Source Source
	// OrderID is the business id that was looked up
	OrderID string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: order %q not found", e.Source, e.OrderID)
	}
	return fmt.Sprintf("order: order %q not found", e.OrderID)
}

// IsNotFound returns true if err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
