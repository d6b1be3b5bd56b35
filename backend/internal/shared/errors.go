package shared

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindAccessDenied
	KindNotFound
	KindConflict
	KindTooLarge
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooLarge:
		return "too_large"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is the error type returned by stores and services
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed input
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Unauthenticated reports a missing or invalid credential
func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// AccessDenied reports a role mismatch or cross-student access
func AccessDenied(msg string) error {
	return &Error{Kind: KindAccessDenied, Message: msg}
}

// NotFound reports a lookup that yielded nothing
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict reports a duplicate natural key
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// TooLarge reports an upload over the configured size limit
func TooLarge(msg string) error {
	return &Error{Kind: KindTooLarge, Message: msg}
}

// Upstream wraps a database or blob store failure
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// Internal wraps an unexpected failure
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf extracts the Kind of err. Errors not created by this package are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind k
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// MessageOf returns the caller-facing message of err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
