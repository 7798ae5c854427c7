// Package errs defines the error taxonomy shared across the pipeline.
//
// Errors are classified by Kind so callers can decide on retry or recovery
// without matching message strings:
//   - NotFound: a referenced row or index artifact is absent; recoverable by
//     re-initializing or retrying with a valid id.
//   - Validation: a required input is missing; never retried.
//   - Service: a language-model call failed or produced unusable output;
//     caller-retryable.
//   - Consistency: the relational write succeeded but the vector index append
//     failed; the stores are out of sync and an operator must re-run the
//     embed-and-append step.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindService
	KindConsistency
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindService:
		return "service"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// Error carries a Kind alongside a message and optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality, so errors.Is(err, &Error{Kind: KindNotFound})
// matches any not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Service(err error, format string, args ...any) error {
	return &Error{Kind: KindService, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Consistency(err error, format string, args ...any) error {
	return &Error{Kind: KindConsistency, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether any error in err's chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
