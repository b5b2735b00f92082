// Package apperr carries the error taxonomy shared by every service and the
// mapping of that taxonomy onto HTTP responses.
package apperr

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindValidationFailed Kind = "validation_failed"
	KindConflict         Kind = "conflict"
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindUnexpected       Kind = "unexpected"
)

// StatusClientClosedRequest is reported when the caller abandoned the request.
const StatusClientClosedRequest = 499

type Error struct {
	Kind    Kind
	Entity  string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Entity != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, msg)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s", e.Entity, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Entity == "" && t.Op == "" && t.Message == ""
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrValidationFailed = &Error{Kind: KindValidationFailed}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrUnexpected       = &Error{Kind: KindUnexpected}
)

func NotFound(entity string, key any) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("%v not found", key)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidationFailed, Message: fmt.Sprintf(format, args...)}
}

func Conflict(entity string, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Wrap turns a store failure into an Unexpected error with entity and
// operation context. Taxonomy errors and context cancellations pass through.
func Wrap(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Kind: KindUnexpected, Entity: entity, Op: op, Err: err}
}

// KindOf reports the taxonomy kind of err; unknown errors are Unexpected.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnexpected
}

// Status maps an error to the HTTP status and the response code string.
func Status(err error) (int, string) {
	if errors.Is(err, context.Canceled) {
		return StatusClientClosedRequest, "request_abandoned"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout, "request_abandoned"
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, "http_error"
	}

	switch kind := KindOf(err); kind {
	case KindNotFound:
		return fiber.StatusNotFound, string(kind)
	case KindValidationFailed:
		return fiber.StatusBadRequest, string(kind)
	case KindConflict:
		return fiber.StatusConflict, string(kind)
	case KindUnauthenticated:
		return fiber.StatusUnauthorized, string(kind)
	case KindForbidden:
		return fiber.StatusForbidden, string(kind)
	default:
		return fiber.StatusInternalServerError, string(KindUnexpected)
	}
}
