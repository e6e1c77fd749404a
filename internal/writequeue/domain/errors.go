package domain

import (
	"fmt"
	"net/http"

	"github.com/allisson/writequeue/internal/errors"
)

// Write queue error definitions.
var (
	// ErrEmptyPayload indicates a payload without any row.
	ErrEmptyPayload = errors.Wrap(errors.ErrInvalidInput, "payload must contain at least one row")

	// ErrInvalidPayload indicates a payload that is not an object or a list of objects.
	ErrInvalidPayload = errors.Wrap(errors.ErrInvalidInput, "invalid payload")

	// ErrInvalidTable indicates a table name that is not a plain identifier.
	ErrInvalidTable = errors.Wrap(errors.ErrInvalidInput, "invalid table name")

	// ErrOperationNotFound indicates the queued operation does not exist.
	ErrOperationNotFound = errors.Wrap(errors.ErrNotFound, "queued operation not found")

	// ErrDeadLetterNotFound indicates the dead letter does not exist.
	ErrDeadLetterNotFound = errors.Wrap(errors.ErrNotFound, "dead letter not found")
)

// ErrorKind tags a remote store failure.
type ErrorKind string

const (
	// ErrorKindTransient failures are expected to succeed on a later attempt.
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindPermanent failures will fail the same way on every attempt.
	ErrorKindPermanent ErrorKind = "permanent"
)

// PostgreSQL error codes the remote store maps to application errors.
const (
	codeUniqueViolation       = "23505"
	codeInsufficientPrivilege = "42501"
)

// RemoteError is the error returned by remote store adapters. Code and Status
// carry the remote's own error code and HTTP status when known.
type RemoteError struct {
	Kind    ErrorKind
	Code    string
	Status  int
	Message string
	Err     error
}

// NewTransientError builds a transient remote error.
func NewTransientError(status int, code, message string, err error) *RemoteError {
	return &RemoteError{Kind: ErrorKindTransient, Code: code, Status: status, Message: message, Err: err}
}

// NewPermanentError builds a permanent remote error.
func NewPermanentError(status int, code, message string, err error) *RemoteError {
	return &RemoteError{Kind: ErrorKindPermanent, Code: code, Status: status, Message: message, Err: err}
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Code != "" && e.Status != 0:
		return fmt.Sprintf("remote store %s error (status %d, code %s): %s", e.Kind, e.Status, e.Code, msg)
	case e.Status != 0:
		return fmt.Sprintf("remote store %s error (status %d): %s", e.Kind, e.Status, msg)
	case e.Code != "":
		return fmt.Sprintf("remote store %s error (code %s): %s", e.Kind, e.Code, msg)
	default:
		return fmt.Sprintf("remote store %s error: %s", e.Kind, msg)
	}
}

// Unwrap returns the underlying cause.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is transient.
func (e *RemoteError) Transient() bool {
	return e.Kind == ErrorKindTransient
}

// Is matches the application sentinel that best describes the failure.
func (e *RemoteError) Is(target error) bool {
	if e.Kind == ErrorKindTransient {
		return target == errors.ErrUnavailable
	}

	switch {
	case e.Code == codeUniqueViolation || e.Status == http.StatusConflict:
		return target == errors.ErrConflict
	case e.Code == codeInsufficientPrivilege || e.Status == http.StatusForbidden:
		return target == errors.ErrForbidden
	case e.Status == http.StatusUnauthorized:
		return target == errors.ErrUnauthorized
	default:
		return target == errors.ErrInvalidInput
	}
}

// RemoteCode returns the remote's error code.
func (e *RemoteError) RemoteCode() string {
	return e.Code
}
