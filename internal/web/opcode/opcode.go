// Package opcode defines the single error taxonomy of the API and the
// fiber error boundary that serializes it.
//
// Every domain failure travels as an *opcode.Error carrying a machine
// readable code and a human message; the boundary turns it into a JSON
// body of the form {opcode, message, details?}. Anything else becomes a
// generic Error response.
package opcode

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Code is the machine readable result code wrapped into every response.
type Code int

const (
	// Success indicates the operation completed.
	Success Code = 0
	// Err is the generic failure code.
	Err Code = 1
	// RequiredLogin indicates a missing or expired session.
	RequiredLogin Code = 2
	// NotFound indicates the requested entity does not exist.
	NotFound Code = 3
	// AlreadyExists indicates a uniqueness constraint was violated.
	AlreadyExists Code = 4
	// AccessDenied indicates the user lacks a required permission.
	AccessDenied Code = 5
	// ValidationFailed indicates the request body or query was malformed.
	ValidationFailed Code = 6
)

// Error is the single domain error kind of the API.
type Error struct {
	Code    Code        `json:"opcode"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is the same taxonomy error, ignoring details.
// This keeps errors.Is working for errors decorated via WithDetails.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Message == e.Message
}

// New creates a new Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of the error carrying additional payload,
// e.g. the list of dependents blocking a delete.
func (e *Error) WithDetails(details interface{}) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details}
}

// status maps a code to the http status of the error response.
func (e *Error) status() int {
	switch e.Code {
	case RequiredLogin:
		return fiber.StatusUnauthorized
	case NotFound:
		return fiber.StatusNotFound
	case AlreadyExists:
		return fiber.StatusConflict
	case AccessDenied:
		return fiber.StatusForbidden
	case ValidationFailed:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the uniform fiber request boundary. Every handler error
// ends up here and leaves as a JSON error document; nothing is swallowed.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var opErr *Error
	if errors.As(err, &opErr) {
		return c.Status(opErr.status()).JSON(opErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(Error{Code: Err, Message: fiberErr.Message})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")

	return c.Status(fiber.StatusInternalServerError).
		JSON(Error{Code: Err, Message: "an internal error has occurred"})
}
