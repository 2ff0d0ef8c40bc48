package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

var integerTextRe = regexp.MustCompile(`^[+-]?\d+$`)

// Coerce converts v to col's declared type per spec.md §4.1. Null is
// preserved as-is; NOT_NULL is enforced separately by Schema.CoerceRow. A
// failure returns a *Error naming the column and the offending value: kind
// ErrType when the value does not convert, kind ErrConstraint when a text
// value exceeds a VARCHAR column's length.
func Coerce(col *Column, v sqltypes.Value) (sqltypes.Value, error) {
	if v.IsNull() {
		return sqltypes.Null, nil
	}
	switch col.Type {
	case sqltypes.TypeInteger:
		return coerceInteger(col, v)
	case sqltypes.TypeFloat:
		return coerceFloat(col, v)
	case sqltypes.TypeBoolean:
		return coerceBoolean(col, v)
	case sqltypes.TypeVarchar, sqltypes.TypeText:
		return coerceText(col, v)
	case sqltypes.TypeDate:
		return coerceDate(col, v)
	}
	return sqltypes.Null, typeErr(col, v, "unreachable type")
}

func coerceInteger(col *Column, v sqltypes.Value) (sqltypes.Value, error) {
	switch v.Kind {
	case sqltypes.KindInt:
		return v, nil
	case sqltypes.KindBool:
		return sqltypes.Null, typeErr(col, v, "boolean cannot be converted to INTEGER")
	case sqltypes.KindFloat:
		if v.F != float64(int64(v.F)) {
			return sqltypes.Null, typeErr(col, v, fmt.Sprintf("float %g has a nonzero fractional part", v.F))
		}
		return sqltypes.NewInt(int64(v.F)), nil
	case sqltypes.KindText:
		if !integerTextRe.MatchString(strings.TrimSpace(v.S)) {
			return sqltypes.Null, typeErr(col, v, fmt.Sprintf("%q is not a valid integer", v.S))
		}
		i, err := strconv.ParseInt(strings.TrimSpace(v.S), 10, 64)
		if err != nil {
			return sqltypes.Null, typeErr(col, v, fmt.Sprintf("%q is not a valid integer", v.S))
		}
		return sqltypes.NewInt(i), nil
	default:
		return sqltypes.Null, typeErr(col, v, "cannot convert to INTEGER")
	}
}

func coerceFloat(col *Column, v sqltypes.Value) (sqltypes.Value, error) {
	switch v.Kind {
	case sqltypes.KindFloat:
		return v, nil
	case sqltypes.KindInt:
		return sqltypes.NewFloat(float64(v.I)), nil
	case sqltypes.KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.S), 64)
		if err != nil {
			return sqltypes.Null, typeErr(col, v, fmt.Sprintf("%q is not a valid number", v.S))
		}
		return sqltypes.NewFloat(f), nil
	default:
		return sqltypes.Null, typeErr(col, v, "cannot convert to FLOAT")
	}
}

var boolTrue = map[string]bool{"true": true, "1": true, "yes": true, "t": true, "y": true}
var boolFalse = map[string]bool{"false": true, "0": true, "no": true, "f": true, "n": true}

func coerceBoolean(col *Column, v sqltypes.Value) (sqltypes.Value, error) {
	switch v.Kind {
	case sqltypes.KindBool:
		return v, nil
	case sqltypes.KindInt:
		switch v.I {
		case 0:
			return sqltypes.NewBool(false), nil
		case 1:
			return sqltypes.NewBool(true), nil
		default:
			return sqltypes.Null, typeErr(col, v, fmt.Sprintf("integer %d is not a valid BOOLEAN (expected 0 or 1)", v.I))
		}
	case sqltypes.KindText:
		lower := strings.ToLower(strings.TrimSpace(v.S))
		if boolTrue[lower] {
			return sqltypes.NewBool(true), nil
		}
		if boolFalse[lower] {
			return sqltypes.NewBool(false), nil
		}
		return sqltypes.Null, typeErr(col, v, fmt.Sprintf("%q is not a valid BOOLEAN", v.S))
	default:
		return sqltypes.Null, typeErr(col, v, "cannot convert to BOOLEAN")
	}
}

func coerceText(col *Column, v sqltypes.Value) (sqltypes.Value, error) {
	s := v.Render()
	if col.Type == sqltypes.TypeVarchar && len([]rune(s)) > col.MaxLength {
		return sqltypes.Null, &Error{Kind: ErrConstraint, Column: col.Name,
			Message: fmt.Sprintf("value for %q exceeds max length of %d", col.Name, col.MaxLength)}
	}
	return sqltypes.NewText(s), nil
}

func coerceDate(col *Column, v sqltypes.Value) (sqltypes.Value, error) {
	switch v.Kind {
	case sqltypes.KindDate:
		return v, nil
	case sqltypes.KindText:
		s := strings.TrimSpace(v.S)
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			t, err = time.Parse(time.RFC3339, s)
			if err != nil {
				return sqltypes.Null, typeErr(col, v, fmt.Sprintf("invalid date format: %q, use YYYY-MM-DD", v.S))
			}
		}
		return sqltypes.NewDate(t), nil
	default:
		return sqltypes.Null, typeErr(col, v, "cannot convert to DATE")
	}
}

func typeErr(col *Column, v sqltypes.Value, detail string) *Error {
	return &Error{Kind: ErrType, Column: col.Name,
		Message: fmt.Sprintf("invalid value for column %q: %s", col.Name, detail)}
}
