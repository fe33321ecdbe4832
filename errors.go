package loom

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrFailedToBind is returned when a model cannot be bound to a table.
	ErrFailedToBind = errors.New("loom: failed to bind model")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("loom: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one
	// result returns multiple results.
	ErrNotSingular = errors.New("loom: entity not singular")
)

// BindingError reports a model declaration that could not be bound to a
// physical table. Binding failures are fatal: construction aborts.
type BindingError struct {
	model  string
	reason string
}

// Error returns the error string.
func (e *BindingError) Error() string {
	if e.model != "" {
		return fmt.Sprintf("loom: binding %s: %s", e.model, e.reason)
	}
	return fmt.Sprintf("loom: binding: %s", e.reason)
}

// Is reports whether the target error matches ErrFailedToBind.
func (e *BindingError) Is(err error) bool { return err == ErrFailedToBind }

// Model returns the model name, if known.
func (e *BindingError) Model() string { return e.model }

// NewBindingError returns a new BindingError for the given model.
func NewBindingError(model, reason string) *BindingError {
	return &BindingError{model: model, reason: reason}
}

// IsBindingError returns true if the error is a BindingError.
func IsBindingError(err error) bool {
	if err == nil {
		return false
	}
	var e *BindingError
	return errors.As(err, &e) || errors.Is(err, ErrFailedToBind)
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("loom: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

// Label returns the entity label.
func (e *NotFoundError) Label() string { return e.label }

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a single result
// but receives more than one.
type NotSingularError struct {
	label string
	count int // Number of results returned (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("loom: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("loom: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool { return err == ErrNotSingular }

// Label returns the entity label.
func (e *NotSingularError) Label() string { return e.label }

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int { return e.count }

// NewNotSingularError returns a new NotSingularError with the result count.
func NewNotSingularError(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// OperationError wraps a failure the session reported while executing a
// statement. The engine logs the failing statement and parameters, returns
// the error and remains usable for subsequent calls.
type OperationError struct {
	Query string
	Args  []any
	Err   error
}

// Error returns the error string.
func (e *OperationError) Error() string {
	return fmt.Sprintf("loom: %s statement failed: %v", statementVerb(e.Query), e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error { return e.Err }

// IsOperationError returns true if the error is an OperationError.
func IsOperationError(err error) bool {
	if err == nil {
		return false
	}
	var e *OperationError
	return errors.As(err, &e)
}

// statementVerb extracts the leading SQL verb for error and log context.
func statementVerb(query string) string {
	for i := 0; i < len(query); i++ {
		if query[i] == ' ' {
			return query[:i]
		}
	}
	return query
}
