package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for the HTTP layer.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
	KindUpstreamUnavailable
	KindUpstreamTimeout
)

// Error is the application error carried from services to handlers.
type Error struct {
	Kind    Kind
	Message string
	Detail  any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Invalid(msg string) *Error   { return &Error{Kind: KindInvalid, Message: msg} }
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error  { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error  { return &Error{Kind: KindConflict, Message: msg} }

func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }

func Internal(msg string, err error) *Error { return &Error{Kind: KindInternal, Message: msg, Err: err} }

func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Detail: fields}
}

func Upstream(service string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: service + " request failed", Err: err}
}

func UpstreamUnavailable(service string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: service + " unavailable", Err: err}
}

func UpstreamTimeout(service string, err error) *Error {
	return &Error{Kind: KindUpstreamTimeout, Message: service + " timed out", Err: err}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
