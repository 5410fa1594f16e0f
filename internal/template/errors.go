package template

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid Resolver configuration.
// It is the only error this package returns; data-level problems are
// recorded on ResolvedEntry instead.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeInvalidMaxDepth indicates a negative or oversized max depth.
	ErrCodeInvalidMaxDepth ConfigErrorCode = "INVALID_MAX_DEPTH"

	// ErrCodeInvalidOrder indicates a top-level order that is not a
	// permutation of the collection keys.
	ErrCodeInvalidOrder ConfigErrorCode = "INVALID_ORDER"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError returns true if err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func newMaxDepthError(depth int) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidMaxDepth,
		Message: fmt.Sprintf("max depth must be between 0 and %d, got %d", MaxDepthLimit, depth),
	}
}
