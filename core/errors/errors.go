// Package errors provides the error taxonomy shared by the resolver, the
// ingestion pipeline and the reader surfaces.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
	// ErrSchemaMissing indicates the store has no table for the data being
	// written. It is a configuration problem and aborts an ingestion run.
	ErrSchemaMissing = errors.New("schema missing")
	// ErrTransient marks a store failure that may succeed when retried.
	ErrTransient = errors.New("transient failure")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "verse", "definition", "book")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "fetch", "open")
	Path      string // File path or URL involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a record or reference that could not be parsed.
type ParseError struct {
	Format  string // Format being parsed (e.g., "MorphGNT", "OSIS")
	Path    string // Source name, if applicable
	Line    int    // 1-based line number, 0 when unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("failed to parse %s at %s:%d: %s", e.Format, e.Path, e.Line, e.Message)
	case e.Path != "":
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("failed to parse %s at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// SchemaError reports a table or relation the store does not have.
type SchemaError struct {
	Resource string // Missing table name, when the driver reports it
	Err      error  // Driver error
}

func (e *SchemaError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("store schema missing table %s: %v (run `scripture migrate` first)", e.Resource, e.Err)
	}
	return fmt.Sprintf("store schema missing: %v (run `scripture migrate` first)", e.Err)
}

// Unwrap exposes both the sentinel and the driver error.
func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchemaMissing}
	}
	return []error{ErrSchemaMissing, e.Err}
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path string, line int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Line:    line,
		Message: message,
	}
}

// NewSchema creates a SchemaError
func NewSchema(resource string, err error) *SchemaError {
	return &SchemaError{
		Resource: resource,
		Err:      err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Transient marks err as retryable. If err is nil, returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
