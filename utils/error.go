package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError is returned for malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field string, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Resource string
	Id       any
}

func (e *NotFoundError) Error() string {
	if e.Id == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.Id)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrorRecordNotFound
}

func NewNotFoundError(resource string, id any) error {
	return &NotFoundError{Resource: resource, Id: id}
}

// ConflictError is returned when the request clashes with the current state of a record.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// AccessDeniedError carries the reason so support can see why a request was refused.
type AccessDeniedError struct {
	Resource string
	Id       any
	Reason   string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to %s %v: %s", e.Resource, e.Id, e.Reason)
}

func NewAccessDeniedError(resource string, id any, reason string) error {
	return &AccessDeniedError{Resource: resource, Id: id, Reason: reason}
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrorRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

func IsConflictError(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsAccessDeniedError(err error) bool {
	var e *AccessDeniedError
	return errors.As(err, &e)
}

// NumberTakenError turns a unique index violation on a freshly numbered row
// into a ConflictError. Without redis two writers can draw the same number
// from max(sequence_no); the loser retries.
func NumberTakenError(err error, number string) error {
	if IsDuplicateKeyError(err) {
		return NewConflictError("number %s was taken by a concurrent write, retry", number)
	}
	return err
}

// IsDuplicateKeyError reports a unique constraint violation (MySQL 1062).
func IsDuplicateKeyError(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
