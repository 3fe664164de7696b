// Package apperr defines the error taxonomy shared by the transaction engine
// and the canonical JSON envelope returned to clients. Handlers never leak
// internal details (stack traces, SQL errors); everything goes through here.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine error for handling and HTTP mapping.
type Kind int

const (
	// Validation — bad amount / quantity / missing field, rejected before any mutation.
	Validation Kind = iota
	// Policy — discount over cap, customer required, session-closed gate, supervisor denied.
	Policy
	// InsufficientPayment — finalize attempted before settlement.
	InsufficientPayment
	// SessionConflict — open attempted while a session is active, or close with items pending.
	SessionConflict
	// External — authorization/capture provider failed or timed out.
	External
	// NotFound — referenced entity does not exist.
	NotFound
	// Internal — persistence or infrastructure failure.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Policy:
		return "policy"
	case InsufficientPayment:
		return "insufficient_payment"
	case SessionConflict:
		return "session_conflict"
	case External:
		return "external"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error carries a kind plus an operator-facing message. Wrapped causes are
// preserved for logs but never serialized to clients.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind sentinels built with New.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind && (t.Msg == "" || t.Msg == e.Msg)
	}
	return false
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a kind to the status code the handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusUnprocessableEntity
	case Policy:
		return http.StatusForbidden
	case InsufficientPayment, SessionConflict:
		return http.StatusConflict
	case External:
		return http.StatusBadGateway
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ── HTTP envelope ────────────────────────────────────────────────────────────

// APIError is the canonical error body for all 4xx/5xx responses.
type APIError struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
}

// Envelope builds the client-safe body for err. Internal errors are masked.
func Envelope(err error) *APIError {
	k := KindOf(err)
	if k == Internal {
		return &APIError{Detail: "internal server error", Kind: k.String()}
	}
	var e *Error
	if errors.As(err, &e) {
		return &APIError{Detail: e.Msg, Kind: k.String()}
	}
	return &APIError{Detail: err.Error(), Kind: k.String()}
}

// ValidationFields wraps per-field binding errors.
type ValidationFields struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidationFields(fields map[string]string) *ValidationFields {
	return &ValidationFields{Detail: "validation error", Fields: fields}
}
