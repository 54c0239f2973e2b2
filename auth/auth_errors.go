package auth

import (
	"fmt"
	"net/http"
)

// Kind classifies engine errors so the transport adapter can pick a response
// shape without parsing messages.
type Kind int

const (
	// KindValidation covers malformed or missing input and account-state
	// denials that carry a machine-usable reason.
	KindValidation Kind = iota
	// KindCredentials covers wrong passwords and invalid or expired tokens.
	KindCredentials
	// KindUnauthorized covers missing or insufficient authorization.
	KindUnauthorized
	// KindScope covers a valid session whose scope the route rejects.
	KindScope
	// KindNotFound covers unknown clients, users and routes.
	KindNotFound
	// KindStorage covers unexpected storage failures.
	KindStorage
)

// Error is the engine's business error: a user-facing message, a kind and an
// optional machine reason code for account-state denials.
type Error struct {
	Kind    Kind
	Message string
	Reason  string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error kind to the one consistent status scheme used by
// every transport path.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindScope:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func newErrorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(message, reason string) *Error {
	return &Error{Kind: KindValidation, Message: message, Reason: reason}
}

func storageError(err error) *Error {
	return &Error{Kind: KindStorage, Message: "Storage error", cause: err}
}

// AsError returns err as an engine *Error, wrapping unexpected failures as
// storage errors so partial failures never escape untyped.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if authErr, ok := err.(*Error); ok {
		return authErr
	}
	return storageError(err)
}
