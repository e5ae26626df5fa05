// Package apperr classifies failures of venue operations so the transport
// layer can map them to responses without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the classification of an error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInvalidState
	KindInvalidTransition
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindCapacity:
		return "capacity"
	default:
		return "internal"
	}
}

// Error carries a kind, a stable code and a human readable message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation reports malformed input; code names the violated rule.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound reports an unknown entity id.
func NotFound(entity string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    entity + "_not_found",
		Message: fmt.Sprintf("%s %v not found", entity, id),
	}
}

// Conflict reports a scheduling overlap or a duplicate record.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// InvalidState reports an operation attempted from a state that forbids it.
func InvalidState(entity, current, attempted string) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Code:    "invalid_state",
		Message: fmt.Sprintf("%s is %s, cannot %s", entity, current, attempted),
	}
}

// InvalidTransition reports an edge missing from a status graph.
func InvalidTransition(entity, from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    "invalid_transition",
		Message: fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
	}
}

// Capacity reports a head count above the configured limit.
func Capacity(requested, limit int) *Error {
	return &Error{
		Kind:    KindCapacity,
		Code:    "capacity_exceeded",
		Message: fmt.Sprintf("requested %d exceeds capacity %d", requested, limit),
	}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: message, Cause: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
