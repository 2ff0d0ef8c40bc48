package executor

import (
	"errors"
	"fmt"

	"github.com/sakachris/simpldb/internal/index"
	"github.com/sakachris/simpldb/internal/parser"
	"github.com/sakachris/simpldb/internal/schema"
	"github.com/sakachris/simpldb/internal/storage"
)

// ErrKind is the statement-level error taxonomy every executor path maps
// into, per spec.md §7.
type ErrKind int

const (
	ErrParse ErrKind = iota
	ErrSchemaKind
	ErrNotFound
	ErrConstraintViolation
	ErrType
	ErrIndex
	ErrInternal
)

func (k ErrKind) String() string {
	switch k {
	case ErrParse:
		return "ParseError"
	case ErrSchemaKind:
		return "SchemaError"
	case ErrNotFound:
		return "NotFound"
	case ErrConstraintViolation:
		return "ConstraintViolation"
	case ErrType:
		return "TypeError"
	case ErrIndex:
		return "IndexError"
	case ErrInternal:
		return "Internal"
	}
	return "Unknown"
}

// Error is the executor's structured failure value, carried by Result on
// any unsuccessful operation.
type Error struct {
	Kind    ErrKind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func newError(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// asExecError classifies an error surfaced by a lower layer (schema,
// storage, index) into the executor's taxonomy, falling back to kind if the
// error's concrete type carries no classification of its own.
func asExecError(err error, kind ErrKind) *Error {
	if err == nil {
		return nil
	}
	var execErr *Error
	if errors.As(err, &execErr) {
		return execErr
	}
	var schemaErrs *schema.Errors
	if errors.As(err, &schemaErrs) {
		return newError(classifySchemaErrors(schemaErrs), "%s", schemaErrs.Error())
	}
	var schemaErr *schema.Error
	if errors.As(err, &schemaErr) {
		switch schemaErr.Kind {
		case schema.ErrSchema:
			return newError(ErrSchemaKind, "%s", schemaErr.Message)
		case schema.ErrType:
			return newError(ErrType, "%s", schemaErr.Message)
		case schema.ErrConstraint:
			return newError(ErrConstraintViolation, "%s", schemaErr.Message)
		}
	}
	var notFound *storage.NotFoundError
	if errors.As(err, &notFound) {
		return newError(ErrNotFound, "%s", notFound.Error())
	}
	var alreadyExists *storage.AlreadyExistsError
	if errors.As(err, &alreadyExists) {
		return newError(ErrSchemaKind, "%s", alreadyExists.Error())
	}
	var constraintErr *index.ConstraintError
	if errors.As(err, &constraintErr) {
		return newError(ErrConstraintViolation, "%s", constraintErr.Error())
	}
	var parseErr *parser.Error
	if errors.As(err, &parseErr) {
		return newError(ErrParse, "%s", parseErr.Error())
	}
	if errors.Is(err, parser.ErrUnsupportedJoin) {
		return newError(ErrParse, "%s", err.Error())
	}
	return newError(kind, "%s", err.Error())
}

// classifySchemaErrors picks one ErrKind for a whole aggregated *schema.Errors,
// preferring the most specific classification present among its members:
// a structural problem (unknown column) over a constraint violation over a
// plain type error.
func classifySchemaErrors(errs *schema.Errors) ErrKind {
	kind := ErrType
	for _, e := range errs.Errors {
		switch e.Kind {
		case schema.ErrSchema:
			return ErrSchemaKind
		case schema.ErrConstraint:
			kind = ErrConstraintViolation
		}
	}
	return kind
}
