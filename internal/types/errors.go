package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams indicates caller-supplied arguments failed schema
	// or semantic validation. Recoverable by retrying with corrected input.
	ErrInvalidParams = errors.New("invalid params")
	// ErrNotAuthenticated indicates an operation requiring a connected
	// client or signing key was invoked without one.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotFound indicates the referenced resource or strategy does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest indicates a malformed request, such as a resource
	// reference matching no known pattern.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInternal indicates an external client call failed.
	ErrInternal = errors.New("internal error")
)

// InvalidParamsf wraps ErrInvalidParams with a formatted detail message.
func InvalidParamsf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Internal wraps an external failure so the dispatcher can classify it
// while keeping the underlying message attached.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
