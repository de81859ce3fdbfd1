package domain

import (
	"errors"
	"fmt"
)

// Error codes shared by the API client, the list controller and the
// handlers. Handlers map them to HTTP statuses; the controller keeps them
// on the list state so a rejected token can be told apart from an outage.
const (
	EINVALID      = "invalid"      // rejected input, 4xx from the backend
	EUNAUTHORIZED = "unauthorized" // missing, expired or revoked token
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	ECONFLICT     = "conflict" // e.g. a brand that still has products
	ERATELIMIT    = "rate_limit"
	EUNAVAILABLE  = "unavailable" // backend unreachable or 5xx
	EINTERNAL     = "internal"
)

const genericMessage = "An internal error occurred. Please try again later."

// Error is a failure with a code, the operation that produced it
// ("api.list", "auth.sign_in") and a message that may be shown to the
// operator as is.
type Error struct {
	Code    string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, op, message string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: cause}
}

// Errorf returns an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return newError(code, op, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches a code and an operator-facing message to cause.
func Wrap(cause error, code, op, message string) *Error {
	return newError(code, op, message, cause)
}

func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s with ID %q not found", resource, id)
}

func Invalid(op, message string) *Error      { return newError(EINVALID, op, message, nil) }
func Unauthorized(op, message string) *Error { return newError(EUNAUTHORIZED, op, message, nil) }
func Forbidden(op, message string) *Error    { return newError(EFORBIDDEN, op, message, nil) }

// Unavailable reports a backend that could not be reached or failed.
func Unavailable(cause error, op, message string) *Error {
	return newError(EUNAVAILABLE, op, message, cause)
}

// Internal hides cause behind a generic message; see ErrorMessage.
func Internal(cause error, op, message string) *Error {
	return newError(EINTERNAL, op, message, cause)
}

func RateLimit(op string) *Error {
	return newError(ERATELIMIT, op, "Too many requests. Please try again later.", nil)
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ErrorCode returns the code of the first Error in err's chain. Errors
// from outside this package count as EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// Is reports whether err carries code.
func Is(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

// ErrorMessage returns the text to show the operator. Internal errors,
// foreign errors and errors without a message all read the same so no
// implementation detail reaches a page.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	e, ok := asError(err)
	if !ok || e.Code == EINTERNAL || e.Message == "" {
		return genericMessage
	}
	return e.Message
}

// ErrorOp returns the operation recorded on err, if any.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

// ValidationError collects per-field messages for a form.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError returns a ValidationError holding one field message.
func NewValidationError(op, field, message string) *ValidationError {
	return (&ValidationError{Op: op}).Add(field, message)
}

// Add records a field message and returns e. A nil receiver starts a new
// error, so checks can be chained without a nil test:
//
//	ve = ve.Add("email", "Email is required")
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e == nil {
		e = &ValidationError{}
	}
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}
