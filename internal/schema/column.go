package schema

import (
	"fmt"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

// Constraint is one of the three column-level constraints the engine
// understands.
type Constraint string

const (
	PrimaryKey Constraint = "PRIMARY_KEY"
	Unique     Constraint = "UNIQUE"
	NotNull    Constraint = "NOT_NULL"
)

// Column describes one column of a table schema.
type Column struct {
	Name        string
	Type        sqltypes.Type
	MaxLength   int // only meaningful for VARCHAR; must be >=1
	Constraints map[Constraint]bool
	Default     *sqltypes.Value
}

// NewColumn builds a Column, folding PRIMARY_KEY's implied NOT_NULL and
// UNIQUE into the constraint set (spec.md §3: "if present it implies both
// NOT_NULL and UNIQUE").
func NewColumn(name string, typ sqltypes.Type, maxLength int, constraints []Constraint, def *sqltypes.Value) (*Column, error) {
	if !typ.IsValid() {
		return nil, &Error{Kind: ErrSchema, Message: fmt.Sprintf("unknown data type: %s", typ)}
	}
	if typ == sqltypes.TypeVarchar && maxLength < 1 {
		return nil, &Error{Kind: ErrSchema, Column: name, Message: fmt.Sprintf("VARCHAR column %q must specify max_length >= 1", name)}
	}
	set := make(map[Constraint]bool, len(constraints)+2)
	for _, c := range constraints {
		set[c] = true
	}
	if set[PrimaryKey] {
		set[NotNull] = true
		set[Unique] = true
	}
	return &Column{
		Name:        name,
		Type:        typ,
		MaxLength:   maxLength,
		Constraints: set,
		Default:     def,
	}, nil
}

func (c *Column) IsPrimaryKey() bool { return c.Constraints[PrimaryKey] }
func (c *Column) IsUnique() bool     { return c.Constraints[Unique] || c.Constraints[PrimaryKey] }
func (c *Column) IsNotNull() bool    { return c.Constraints[NotNull] }
