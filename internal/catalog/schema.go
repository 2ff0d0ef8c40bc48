package catalog

import (
	"github.com/sakachris/simpldb/internal/schema"
	"github.com/sakachris/simpldb/internal/sqltypes"
)

// StoredColumn is the YAML-serializable rendering of a schema.Column.
type StoredColumn struct {
	Name        string          `yaml:"name"`
	Type        sqltypes.Type   `yaml:"type"`
	MaxLength   int             `yaml:"max_length,omitempty"`
	Constraints []string        `yaml:"constraints,omitempty"`
	Default     *sqltypes.Value `yaml:"default,omitempty"`
}

// StoredSchema is the YAML-serializable rendering of a schema.Schema.
type StoredSchema struct {
	TableName string         `yaml:"table_name"`
	Columns   []StoredColumn `yaml:"columns"`
}

// ToStoredSchema converts a live schema.Schema into its catalog document
// form.
func ToStoredSchema(s *schema.Schema) StoredSchema {
	cols := make([]StoredColumn, len(s.Columns))
	for i, c := range s.Columns {
		var constraints []string
		for _, want := range []schema.Constraint{schema.PrimaryKey, schema.Unique, schema.NotNull} {
			if c.Constraints[want] {
				constraints = append(constraints, string(want))
			}
		}
		cols[i] = StoredColumn{
			Name:        c.Name,
			Type:        c.Type,
			MaxLength:   c.MaxLength,
			Constraints: constraints,
			Default:     c.Default,
		}
	}
	return StoredSchema{TableName: s.TableName, Columns: cols}
}

// ToSchema rebuilds a live schema.Schema from its stored form, used during
// catalog recovery at startup.
func ToSchema(s StoredSchema) (*schema.Schema, error) {
	cols := make([]*schema.Column, len(s.Columns))
	for i, sc := range s.Columns {
		constraints := make([]schema.Constraint, len(sc.Constraints))
		for j, c := range sc.Constraints {
			constraints[j] = schema.Constraint(c)
		}
		col, err := schema.NewColumn(sc.Name, sc.Type, sc.MaxLength, constraints, sc.Default)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return schema.NewSchema(s.TableName, cols)
}
