package domain

import (
	"errors"
	"fmt"
)

// Every error below unwraps to one of these sentinels, which the HTTP and
// CLI adapters switch on. None of them carry transport details.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrStorage     = errors.New("storage failure")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError names a missing slot or remote resource.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError rejects user input: blank quote text, a non-array import
// file, an invalid storage key.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue keeps the offending value for logging.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// StorageError describes a failed read or write of a storage slot.
type StorageError struct {
	// Op is the operation that failed, e.g. "load" or "save".
	Op string

	// Slot is the storage key involved.
	Slot string

	// Err is the underlying cause.
	Err error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Slot, e.Err)
	}

	return fmt.Sprintf("storage %s %q failed", e.Op, e.Slot)
}

// Unwrap returns both the sentinel and the cause so that errors.Is matches either.
func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStorage}
	}

	return []error{ErrStorage, e.Err}
}

// NewStorageError creates a storage error for the given operation and slot.
func NewStorageError(op, slot string, err error) error {
	return &StorageError{Op: op, Slot: slot, Err: err}
}

// ForbiddenError reports a remote refusing an operation.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
	}

	return fmt.Sprintf("operation %q forbidden", e.Operation)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError reports a collaborator, usually the remote API, that
// could not be reached.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
