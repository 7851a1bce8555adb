package service

import (
	"errors"
	"fmt"
)

// Error categories. API handlers map these to HTTP status codes.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrInsufficientUpstream = errors.New("upstream returned incomplete response")
	ErrGatewayRejected      = errors.New("gateway rejected payment")
)

// Error is a client-facing failure. Message is safe to show; Code and Details are optional.
// DetailsKey names the response field Details is rendered under. Fields are
// rendered next to the message at the top level.
type Error struct {
	kind       error
	Message    string
	Code       string
	DetailsKey string
	Details    any
	Fields     map[string]any
}

// NewError returns a client-facing error that matches kind under errors.Is.
func NewError(kind error, message string) *Error {
	return &Error{kind: kind, Message: message}
}

func newError(kind error, message string) *Error {
	return NewError(kind, message)
}

func (e *Error) withCode(code string) *Error {
	e.Code = code
	return e
}

func (e *Error) withDetails(key string, details any) *Error {
	e.DetailsKey = key
	e.Details = details
	return e
}

func (e *Error) withFields(fields map[string]any) *Error {
	e.Fields = fields
	return e
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%v: %s (%s)", e.kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%v: %s", e.kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.kind
}

func invalid(message string) *Error {
	return newError(ErrInvalidInput, message)
}
