package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissing is matched by errors.Is when a required value is unset.
var ErrMissing = errors.New("missing required configuration")

// ConfigError represents a configuration error with actionable guidance.
// All error messages are lowercase following Go conventions.
//
//nolint:revive // ConfigError is intentionally named for clarity in external API usage
type ConfigError struct {
	Category string // "missing" or "invalid"
	Field    string // config key path (e.g., "clickup.listid")
	EnvVar   string // environment variable that sets Field
	Message  string // user-friendly error message (lowercase)
	Action   string // actionable instruction (lowercase)
}

// Error implements the error interface with lowercase formatting.
func (e *ConfigError) Error() string {
	var parts []string

	if e.Category != "" {
		parts = append(parts, fmt.Sprintf("config_%s:", e.Category))
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}

	return strings.Join(parts, " ")
}

// Unwrap exposes ErrMissing for missing fields.
func (e *ConfigError) Unwrap() error {
	if e.Category == "missing" {
		return ErrMissing
	}
	return nil
}

// NewMissingFieldError creates an error for a required missing configuration field.
func NewMissingFieldError(field, envVar string) *ConfigError {
	return &ConfigError{
		Category: "missing",
		Field:    field,
		EnvVar:   envVar,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to config.yaml", envVar, field),
	}
}

// NewInvalidFieldError creates an error for an invalid configuration value.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{
		Category: "invalid",
		Field:    field,
		EnvVar:   EnvName(field),
		Message:  message,
	}

	if len(validOptions) > 0 {
		err.Action = fmt.Sprintf("must be one of: %s", strings.Join(validOptions, ", "))
	}

	return err
}

// ValidationError collects every problem found in one pass.
type ValidationError struct {
	Errors []*ConfigError
}

// Missing returns the environment names of all missing required values.
func (e *ValidationError) Missing() []string {
	var names []string
	for _, ce := range e.Errors {
		if ce.Category == "missing" {
			names = append(names, ce.EnvVar)
		}
	}
	return names
}

func (e *ValidationError) Error() string {
	var parts []string
	if missing := e.Missing(); len(missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	for _, ce := range e.Errors {
		if ce.Category != "missing" {
			parts = append(parts, ce.Error())
		}
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		errs[i] = ce
	}
	return errs
}
