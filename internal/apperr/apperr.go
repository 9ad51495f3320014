// Package apperr defines the error kinds shared by every service and their
// mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

type Kind string

const (
	NotFound               Kind = "not_found"
	InvalidInput           Kind = "invalid_input"
	Unauthorized           Kind = "unauthorized"
	Forbidden              Kind = "forbidden"
	Conflict               Kind = "conflict"
	ExternalServiceFailure Kind = "external_service_failure"
	Internal               Kind = "internal"
)

// Error is an operational error: its message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so package level
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind carried by err, or Internal for anything unclassified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Operational reports whether err carries a client-safe message.
func Operational(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind != Internal
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

func Status(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromDB classifies a gorm error. notFoundMsg is used for missing records.
func FromDB(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return New(NotFound, notFoundMsg)
	}
	if IsDuplicate(err) {
		return Wrap(Conflict, "duplicate value", err)
	}
	return Wrap(Internal, "database error", err)
}

// IsDuplicate detects unique constraint violations across the supported drivers.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
