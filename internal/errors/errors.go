// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRecordNotFound is returned when a catalog row does not exist.
type ErrRecordNotFound struct {
	Kind string
	ID   int
}

func (e *ErrRecordNotFound) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Kind, e.ID)
}

// NewRecordNotFound is the helper constructor.
func NewRecordNotFound(kind string, id int) error {
	return &ErrRecordNotFound{Kind: kind, ID: id}
}

// Code is a machine-readable error code sent to clients.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeValidation   Code = "VALIDATION"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeConflict     Code = "CONFLICT"
	CodeUnsupported  Code = "UNSUPPORTED"
	CodeTooMany      Code = "TOO_MANY_REQUESTS"
	CodeInternal     Code = "INTERNAL"
)

// HTTPStatus maps a code onto a response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeUnsupported:
		return http.StatusUnsupportedMediaType
	case CodeTooMany:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded domain error.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation   = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrUnsupported  = &Error{Code: CodeUnsupported, Message: "unsupported media type"}
	ErrTooMany      = &Error{Code: CodeTooMany, Message: "too many requests"}
)

func Validation(msg string) *Error { return &Error{Code: CodeValidation, Message: msg} }

func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

func Unauthorized(msg string) *Error { return &Error{Code: CodeUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Code: CodeForbidden, Message: msg} }

func Unsupported(msg string) *Error { return &Error{Code: CodeUnsupported, Message: msg} }

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Classify reduces any error to a coded *Error for the response writer.
// Errors that carry no code become CodeInternal.
func Classify(err error) *Error {
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}
	var nf *ErrRecordNotFound
	if errors.As(err, &nf) {
		return &Error{Code: CodeNotFound, Message: nf.Error(), cause: err}
	}
	return &Error{Code: CodeInternal, Message: "internal server error", cause: err}
}
