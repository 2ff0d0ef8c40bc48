package schema

import (
	"errors"
	"fmt"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

// CoerceRow validates and coerces one proposed row against s: every declared
// column is present in the result (defaulted when omitted and a default
// exists, or null otherwise), every value is coerced to its column's type,
// and NOT_NULL is enforced. Columns present in raw but not in the schema are
// rejected as a schema error. The returned row always has exactly one entry
// per schema column.
//
// Every column's coercion/NOT_NULL failure is collected rather than
// returned on the first one, per spec.md's "validate(row) -> ok | errors[]"
// interface: a row with several bad columns reports all of them in one
// *Errors instead of forcing the caller to fix and resubmit one at a time.
func (s *Schema) CoerceRow(raw map[string]sqltypes.Value) (map[string]sqltypes.Value, error) {
	for name := range raw {
		if _, ok := s.byName[name]; !ok {
			return nil, &Error{Kind: ErrSchema, Column: name, Message: fmt.Sprintf("unknown column %q for table %q", name, s.TableName)}
		}
	}
	out := make(map[string]sqltypes.Value, len(s.Columns))
	var errs []*Error
	for _, col := range s.Columns {
		v, present := raw[col.Name]
		if !present {
			if col.Default != nil {
				v = *col.Default
			} else {
				v = sqltypes.Null
			}
		}
		coerced, err := Coerce(col, v)
		if err != nil {
			var schemaErr *Error
			if errors.As(err, &schemaErr) {
				errs = append(errs, schemaErr)
			} else {
				errs = append(errs, &Error{Kind: ErrType, Column: col.Name, Message: err.Error()})
			}
			continue
		}
		if coerced.IsNull() && col.IsNotNull() {
			errs = append(errs, &Error{Kind: ErrConstraint, Column: col.Name,
				Message: fmt.Sprintf("column %q is NOT_NULL and cannot be null", col.Name)})
			continue
		}
		out[col.Name] = coerced
	}
	if len(errs) > 0 {
		return nil, &Errors{Errors: errs}
	}
	return out, nil
}
