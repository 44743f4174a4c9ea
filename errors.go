package worm

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("worm: record not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns multiple results.
	ErrNotSingular = errors.New("worm: record not singular")

	// ErrConfig is matched by every configuration error.
	ErrConfig = errors.New("worm: invalid configuration")
)

// NotFoundError represents an error when a record is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the key that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("worm: %s not found (key=%v)", e.label, e.id)
	}
	return fmt.Sprintf("worm: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the table label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the key that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given table.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the key that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a singular result
// but receives multiple results.
type NotSingularError struct {
	label string
	count int // Number of results returned (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("worm: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("worm: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the result count.
func NewNotSingularErrorWithCount(label string, count int) *NotSingularError {
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

// ConfigError represents an invalid schema registration or an operation
// that the registered schema does not support. Configuration errors are
// not meant to be recovered from.
type ConfigError struct {
	Type    string // Record type name
	Column  string // Column name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("worm: config error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(typeName, column, message string, cause error) *ConfigError {
	return &ConfigError{
		Type:    typeName,
		Column:  column,
		Message: message,
		Cause:   cause,
	}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// DecodeError is returned when a fetched row cannot be decoded into a record.
type DecodeError struct {
	Table  string
	Column string // First column that failed
	Err    error
}

// Error returns the error string.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("worm: decoding %s.%s: %v", e.Table, e.Column, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if the error is a DecodeError.
func IsDecodeError(err error) bool {
	if err == nil {
		return false
	}
	var e *DecodeError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("worm: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Error returned by the rollback itself
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("worm: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Table string // Table being queried
	Op    string // Operation (e.g., "get_by_id", "get_all_by")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("worm: querying %s (%s): %v", e.Table, e.Op, e.Err)
	}
	return fmt.Sprintf("worm: querying %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(table, op string, err error) *QueryError {
	return &QueryError{Table: table, Op: op, Err: err}
}

// MutationError wraps a mutation error with additional context.
type MutationError struct {
	Table string // Table being mutated
	Op    string // Operation (e.g., "insert")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("worm: %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(table, op string, err error) *MutationError {
	return &MutationError{Table: table, Op: op, Err: err}
}
