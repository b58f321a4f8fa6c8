package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupportedChain is returned when a request names a chain no adapter
// is configured for.
var ErrUnsupportedChain = errors.New("unsupported chain")

// ValidationError reports a malformed request field. It is raised before
// any chain interaction, so requests failing validation are retry-safe.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConfigurationError indicates a deployment defect: the rate table or chain
// configuration is missing an entry the system needs. Fatal for the request.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Detail
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Detail: fmt.Sprintf(format, args...)}
}
