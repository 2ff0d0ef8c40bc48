package schema

import "strings"

// ErrorKind classifies a schema-layer failure so the executor can map it to
// the statement-level error taxonomy of spec.md §7 without string-sniffing.
type ErrorKind int

const (
	// ErrSchema covers duplicate columns, unknown types, bad VARCHAR
	// lengths, and multiple PRIMARY_KEY columns — all detected while
	// building or registering a Schema.
	ErrSchema ErrorKind = iota
	// ErrType covers coercion failures (a value cannot be converted to its
	// column's declared type).
	ErrType
	// ErrConstraint covers NOT_NULL, UNIQUE, and PRIMARY_KEY violations.
	ErrConstraint
)

// Error is the schema package's structured error value.
type Error struct {
	Kind    ErrorKind
	Column  string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errors aggregates every column-level failure found while validating and
// coercing a row, per spec.md's "validate(row) -> ok | errors[]" interface
// and INSERT's "reject with aggregated error list" contract: CoerceRow
// collects every column's problem instead of stopping at the first.
type Errors struct {
	Errors []*Error
}

func (e *Errors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Message
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors for errors.Is/errors.As traversal.
func (e *Errors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}
