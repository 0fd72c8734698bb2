package social

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the engine reports.
type Kind string

const (
	// KindInvalidArgument is a locally detected client mistake (self-reference, empty identity).
	KindInvalidArgument Kind = "invalid_argument"
	// KindNotFound means a referenced identity does not exist.
	KindNotFound Kind = "not_found"
	// KindSenderNotFound means the sender of an update does not exist.
	KindSenderNotFound Kind = "sender_not_found"
	// KindBlockedRelationship rejects a friendship because one side blocks the other.
	KindBlockedRelationship Kind = "blocked_relationship"
	// KindStoreUnavailable covers persistence I/O failures and timeouts.
	KindStoreUnavailable Kind = "store_unavailable"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "identity not found"}
	ErrSenderNotFound      = &Error{Kind: KindSenderNotFound, Message: "sender not found"}
	ErrBlockedRelationship = &Error{Kind: KindBlockedRelationship, Message: "relationship is blocked"}
	ErrStoreUnavailable    = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
)

// ErrIdentityAbsent is returned by Store implementations when an identity row does not exist.
// The engine translates it into a NotFound or SenderNotFound failure.
var ErrIdentityAbsent = errors.New("identity absent")

// Error is the structured failure returned by every Engine operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrNotFound) matches any NotFound failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the whole operation.
func (e *Error) Retryable() bool {
	return e.Kind == KindStoreUnavailable
}

func newError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func invalidArgument(op, message string) *Error {
	return newError(KindInvalidArgument, op, message, nil)
}

func notFound(op, email string) *Error {
	return newError(KindNotFound, op, fmt.Sprintf("identity %q does not exist", email), nil)
}

func storeUnavailable(op string, err error) *Error {
	return newError(KindStoreUnavailable, op, "persistence failure", err)
}

// KindOf returns the kind of err, or "" when err is nil or was not produced by the engine.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
