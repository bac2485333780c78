package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transports can map them uniformly:
// validation and conflict errors render inline, transient errors are
// retryable, unauthorized errors redirect to the admin login flow.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindTransient
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is a classified domain error.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Transientf(err error, format string, args ...any) *Error {
	return &Error{Kind: KindTransient, Message: fmt.Sprintf(format, args...), Cause: err}
}

func Unauthorizedf(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification, or 0 for unclassified errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsTransient(err error) bool    { return KindOf(err) == KindTransient }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

var (
	// ErrQuizNotFound is returned when no quiz matches an id or access code.
	ErrQuizNotFound = NotFoundf("quiz not found")
	// ErrParticipantNotFound is returned when a participant acts before joining.
	ErrParticipantNotFound = NotFoundf("participant not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = NotFoundf("question not found")
	// ErrAlreadyAnswered rejects a second answer for the same question.
	ErrAlreadyAnswered = Conflictf("question already answered")
	// ErrVersionConflict indicates a concurrent admin won the write race.
	ErrVersionConflict = Conflictf("quiz was modified concurrently")
)
