package core

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrOutOfRange is returned when a row index is outside the valid range
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidated is returned when mutating a list whose backing table is detached
	ErrInvalidated = errors.New("list has been invalidated")

	// ErrTypeMismatch is returned when a value cannot convert to the column's storage type
	ErrTypeMismatch = errors.New("value does not match column type")

	// ErrUnsupportedType is returned for storage kinds this core does not support
	ErrUnsupportedType = errors.New("unsupported storage type")

	// ErrUnsupportedOperation is returned when the caller requests an operation
	// the model does not define
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrAlreadyObserved is returned when a list already has a registered observer
	ErrAlreadyObserved = errors.New("list is already observed")

	// ErrExists is returned when creating a record whose primary key is taken
	// and updating in place was not requested
	ErrExists = errors.New("record with this primary key already exists")

	// ErrNoSuchProperty is returned when a property name is not part of the schema
	ErrNoSuchProperty = errors.New("no such property")
)

// ListError wraps errors with operation context
type ListError struct {
	Op  string // Operation name
	Err error  // Underlying error
}

// Error implements the error interface
func (e *ListError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("oblist: %v", e.Err)
	}
	return fmt.Sprintf("oblist: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ListError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *ListError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error with operation context
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ListError{Op: op, Err: err}
}

// typeMismatch builds a TypeMismatch error naming the property and the
// storage type it expected.
func typeMismatch(property string, expected ColumnType, got any) error {
	if property == "" {
		return fmt.Errorf("%w: expected %s, got %T", ErrTypeMismatch, expected, got)
	}
	return fmt.Errorf("%w: property %q expects %s, got %T", ErrTypeMismatch, property, expected, got)
}
