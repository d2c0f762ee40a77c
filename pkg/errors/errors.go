// Package errors provides custom error types for the panelsync system.
// These errors enable programmatic error checking and keep the sync core
// free of driver-specific error handling.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
// It's an alias for the standard library errors.Is.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
// It's an alias for the standard library errors.As.
var As = errors.As

// Common sentinel errors for the panelsync system
var (
	// ErrDuplicate indicates a write collided with an existing row.
	// During membership reconciliation this means the local state already
	// converged for that member and the write is safe to skip.
	ErrDuplicate = errors.New("duplicate row")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable indicates the registry API could not serve a
	// usable response. Callers must treat this as "no data", never as an
	// instruction to remove local state.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrConnection indicates a database connection level failure.
	// This is fatal to a sync pass and triggers a full rollback.
	ErrConnection = errors.New("connection failed")
)

// APIError represents an error from the registry API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// SyncError represents a per-panel failure during a sync pass.
type SyncError struct {
	Panel string
	Err   error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	return fmt.Sprintf("sync error for panel %s: %v", e.Panel, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError
func NewSyncError(panel string, err error) *SyncError {
	return &SyncError{Panel: panel, Err: err}
}

// Helper functions for error checking

// IsDuplicate checks if an error is a duplicate write error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUpstreamUnavailable checks if an error indicates registry unavailability
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// IsConnection checks if an error is a connection level failure
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(endpoint string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// WrapConnection marks an error as a connection level failure.
func WrapConnection(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
