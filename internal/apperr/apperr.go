package apperr

import (
	"errors"
	"fmt"
)

// Code is the stable machine-readable error code returned across the
// service boundary. No other codes cross it.
type Code string

const (
	CodeLedgerNotFound     Code = "LEDGER_NOT_FOUND"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeRepositoryError    Code = "REPOSITORY_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
)

// Error is a domain error with a stable code, a human message and an
// optional underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func LedgerNotFound(id string) error {
	return &Error{Code: CodeLedgerNotFound, Message: fmt.Sprintf("Ledger not found: %s", id)}
}

func InvariantViolation(message string) error {
	return &Error{Code: CodeInvariantViolation, Message: message}
}

func RepositoryError(message string, cause error) error {
	return &Error{Code: CodeRepositoryError, Message: message, Cause: cause}
}

func Unauthorized(message string) error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) error {
	return &Error{Code: CodeForbidden, Message: message}
}

// CodeOf extracts the domain code from err, or CodeRepositoryError when
// err carries no domain error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeRepositoryError
}

func IsCode(err error, code Code) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeLedgerNotFound)
}

func IsInvariantViolation(err error) bool {
	return IsCode(err, CodeInvariantViolation)
}
