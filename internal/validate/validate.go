// SPDX-License-Identifier: MIT

// Package validate provides configuration validation utilities for vodee.
package validate

import (
	"fmt"
	"os"
	"strings"
)

// Error represents a validation error
type Error struct {
	Field   string      // Field name that failed validation
	Value   interface{} // The invalid value
	Message string      // Human-readable error message
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates validation errors and can produce a ValidationError when invalid.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator
func New() *Validator {
	return &Validator{
		errors: make([]Error, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string, value interface{}) {
	v.errors = append(v.errors, Error{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// IsValid returns true if no errors have been accumulated
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Err converts the accumulated validation errors into an error value.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}

	copied := make([]Error, len(v.errors))
	copy(copied, v.errors)

	return ValidationError{errors: copied}
}

// Errors returns the individual validation errors making up the validation failure.
func (e ValidationError) Errors() []Error {
	return e.errors
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	if len(e.errors) == 0 {
		return ""
	}

	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}

	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// NonEmpty validates that a string value is not blank.
func (v *Validator) NonEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "must not be empty", value)
	}
}

// Port validates a port number (1-65535)
func (v *Validator) Port(field string, port int) {
	if port <= 0 || port > 65535 {
		v.AddError(field,
			fmt.Sprintf("port must be between 1 and 65535, got %d", port),
			port)
	}
}

// Range validates that an integer lies within [min, max].
func (v *Validator) Range(field string, value, min, max int) {
	if value < min || value > max {
		v.AddError(field,
			fmt.Sprintf("must be between %d and %d, got %d", min, max, value),
			value)
	}
}

// Directory validates that a path exists and is a directory. When mustExist is
// false a missing path is accepted (it may be created at startup).
func (v *Validator) Directory(field, path string, mustExist bool) {
	if strings.TrimSpace(path) == "" {
		v.AddError(field, "directory path cannot be empty", path)
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return
		}
		v.AddError(field, fmt.Sprintf("cannot stat directory: %v", err), path)
		return
	}
	if !info.IsDir() {
		v.AddError(field, "path is not a directory", path)
	}
}

// Extensions validates an extension allow-list: non-empty, every entry
// lowercase and starting with a dot.
func (v *Validator) Extensions(field string, exts []string) {
	if len(exts) == 0 {
		v.AddError(field, "extension allow-list must not be empty", exts)
		return
	}
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			v.AddError(field, fmt.Sprintf("extension %q must start with a dot", ext), ext)
			continue
		}
		if ext != strings.ToLower(ext) {
			v.AddError(field, fmt.Sprintf("extension %q must be lowercase", ext), ext)
		}
	}
}
