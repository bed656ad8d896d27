package service

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can decide what the user has to do next.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidInput means the connection parameters are missing or malformed.
	KindInvalidInput
	// KindConnection means the database could not be reached or rejected the credentials.
	KindConnection
	// KindQuery means the database was reached but the read failed.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindConnection:
		return "ConnectionError"
	case KindQuery:
		return "QueryError"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrConnection)
// works regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrConnection   = &Error{Kind: KindConnection}
	ErrQuery        = &Error{Kind: KindQuery}
)

func invalidInputf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}

func connectionError(err error) error {
	return &Error{Kind: KindConnection, Err: err}
}

func queryError(err error) error {
	return &Error{Kind: KindQuery, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Cause returns the error wrapped by the first *Error in err's chain,
// or err itself when there is none.
func Cause(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err
	}
	return err
}
