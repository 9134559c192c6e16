// Package apperrors defines the error taxonomy shared by services and controllers.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an absent entity, or one not owned by the calling tenant.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// ConflictError reports a state conflict (duplicate, ineligible, limit reached).
// Details is merged into the JSON error body.
type ConflictError struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *ConflictError) Error() string {
	return e.Message
}

// UpstreamError wraps failures of SMS, push and payment providers.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ConfigurationError reports missing configuration, e.g. per-tenant SMS credentials.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func Conflict(code, message string, details map[string]any) error {
	return &ConflictError{Code: code, Message: message, Details: details}
}

func Upstream(provider string, err error) error {
	return &UpstreamError{Provider: provider, Err: err}
}

func Configuration(format string, args ...any) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
