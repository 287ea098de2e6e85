// Package apperr defines the error kinds that services return and that the
// HTTP layer translates into status codes.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// NotFound wraps ErrNotFound with the entity name, producing messages such as
// "Patient not found".
func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return capitalize(e.Entity) + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AuthError is an authentication or authorization failure with a message
// safe to show the caller. Kind is ErrUnauthorized or ErrForbidden.
type AuthError struct {
	Kind error
	Msg  string
}

func (e *AuthError) Error() string { return e.Msg }

func (e *AuthError) Unwrap() error { return e.Kind }

// Unauthorized returns an AuthError of kind ErrUnauthorized.
func Unauthorized(msg string) error {
	return &AuthError{Kind: ErrUnauthorized, Msg: msg}
}

// Forbidden returns an AuthError of kind ErrForbidden.
func Forbidden(msg string) error {
	return &AuthError{Kind: ErrForbidden, Msg: msg}
}

// DuplicateError reports that a unique field already holds the given value.
type DuplicateError struct {
	Field string
	// Message overrides the default "<Field> already registered" text.
	Message string
	// Constraint is the database constraint that rejected the write, if known.
	Constraint string
}

func (e *DuplicateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return capitalize(strings.ReplaceAll(e.Field, "_", " ")) + " already registered"
}

// Duplicate returns a DuplicateError for field.
func Duplicate(field string) error {
	return &DuplicateError{Field: field}
}

// ValidationError is returned for malformed or out-of-range input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate reports whether err is, or wraps, a DuplicateError.
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Exists interprets the result of a lookup used as a uniqueness pre-check:
// nil means the value is taken, a not-found error means it is free, and any
// other error is returned.
func Exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case IsNotFound(err):
		return false, nil
	}
	return false, err
}

// Reference turns a not-found error from a lookup of a referenced record into
// a ValidationError carrying msg, such as "Donor not found". Other errors pass
// through unchanged.
func Reference(err error, msg string) error {
	if IsNotFound(err) {
		return &ValidationError{Msg: msg}
	}
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
