// Package errors defines structured error types for the table engine.
//
// Every failure surfaced by parsing or executing a command carries a [Kind]
// so callers can branch on the category without matching message text.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a command failure.
type Kind string

const (
	// KindSyntax is returned when a command does not match the grammar.
	KindSyntax Kind = "SYNTAX"
	// KindSchema is returned for unknown types, duplicate or missing tables.
	KindSchema Kind = "SCHEMA"
	// KindConstraint is returned when a row violates NOT NULL or PRIMARY KEY.
	KindConstraint Kind = "CONSTRAINT"
	// KindPayload is returned when a literal or JSON object is malformed.
	KindPayload Kind = "PAYLOAD"
)

// Sentinels wrapped by *Error. Compare with errors.Is.
var (
	ErrEmptyCommand        = errors.New("empty command")
	ErrUnknownCommand      = errors.New("unknown command")
	ErrTableNotFound       = errors.New("table not found")
	ErrTableExists         = errors.New("table already exists")
	ErrReservedName        = errors.New("reserved table name")
	ErrUnknownType         = errors.New("unknown type")
	ErrColumnNotFound      = errors.New("column not found")
	ErrDuplicateCol        = errors.New("duplicate column")
	ErrMultiplePrimaryKeys = errors.New("multiple primary keys")
	ErrMissingColumn       = errors.New("missing column")
	ErrDuplicateKey        = errors.New("duplicate primary key")
	ErrCounterExhausted    = errors.New("auto-increment counter exhausted")
	ErrMalformedJSON       = errors.New("malformed JSON")
)

// Error is a command failure with a kind, a message and optional details.
type Error struct {
	kind       Kind
	message    string
	details    map[string]any
	sentinel   error
	wrappedErr error
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// WithDetail adds a single detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// Kind returns the error category.
func (e *Error) Kind() Kind {
	return e.kind
}

// Details returns additional error details.
func (e *Error) Details() map[string]any {
	return e.details
}

// Unwrap returns the sentinel and the wrapped error, if any.
func (e *Error) Unwrap() []error {
	var out []error
	if e.sentinel != nil {
		out = append(out, e.sentinel)
	}
	if e.wrappedErr != nil {
		out = append(out, e.wrappedErr)
	}
	return out
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

// Constructors for common cases.

// Syntax creates a SYNTAX error.
func Syntax(format string, args ...any) *Error {
	return New(KindSyntax, fmt.Sprintf(format, args...))
}

// Schema creates a SCHEMA error for sentinel about subject.
func Schema(sentinel error, subject string) *Error {
	return newSentinel(KindSchema, sentinel, subject)
}

// Constraint creates a CONSTRAINT error for sentinel about column.
func Constraint(sentinel error, column string) *Error {
	return newSentinel(KindConstraint, sentinel, column).WithDetail("column", column)
}

func newSentinel(kind Kind, sentinel error, subject string) *Error {
	e := New(kind, sentinel.Error()+": "+subject)
	e.sentinel = sentinel
	return e
}

// Payload creates a PAYLOAD error wrapping the decoder error. It matches
// ErrMalformedJSON.
func Payload(message string, err error) *Error {
	e := New(KindPayload, message).Wrap(err)
	e.sentinel = ErrMalformedJSON
	return e
}

// EmptyCommand creates a SYNTAX error for a blank command line.
func EmptyCommand() *Error {
	e := New(KindSyntax, ErrEmptyCommand.Error())
	e.sentinel = ErrEmptyCommand
	return e
}

// TableNotFound creates a SCHEMA error for a missing table.
func TableNotFound(name string) *Error {
	return Schema(ErrTableNotFound, name).WithDetail("table", name)
}

// UnknownCommand creates a SYNTAX error carrying the offending verb.
func UnknownCommand(verb string) *Error {
	return newSentinel(KindSyntax, ErrUnknownCommand, verb).WithDetail("verb", verb)
}
