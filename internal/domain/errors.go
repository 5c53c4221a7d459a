package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure so transports can map it without string
// matching.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindIngestion         Kind = "ingestion"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
)

// Sentinels for errors.Is checks. A *Error matches the sentinel of its Kind.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrIngestion         = errors.New("ingestion failed")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflicting update")
)

// Error is a tagged domain error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return sentinel(e.Kind) == target
}

func sentinel(k Kind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInsufficientFunds:
		return ErrInsufficientFunds
	case KindIngestion:
		return ErrIngestion
	case KindValidation:
		return ErrValidation
	case KindConflict:
		return ErrConflict
	}
	return nil
}

// E builds a tagged error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NotFoundf(op, format string, args ...any) *Error {
	return E(KindNotFound, op, fmt.Errorf(format, args...))
}

func Validationf(op, format string, args ...any) *Error {
	return E(KindValidation, op, fmt.Errorf(format, args...))
}

func InsufficientFundsf(op, format string, args ...any) *Error {
	return E(KindInsufficientFunds, op, fmt.Errorf(format, args...))
}

func Conflictf(op, format string, args ...any) *Error {
	return E(KindConflict, op, fmt.Errorf(format, args...))
}

// Ingestion wraps cause as an ingestion failure.
func Ingestion(op string, cause error) *Error {
	return E(KindIngestion, op, cause)
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" when
// err carries none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
