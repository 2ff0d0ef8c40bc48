package schema

import (
	"errors"
	"testing"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

func TestCoerceInteger(t *testing.T) {
	col := mustColumn(t, "n", sqltypes.TypeInteger, 0)
	cases := []struct {
		name    string
		in      sqltypes.Value
		want    int64
		wantErr bool
	}{
		{"int passthrough", sqltypes.NewInt(5), 5, false},
		{"text digits", sqltypes.NewText("42"), 42, false},
		{"text signed", sqltypes.NewText("-7"), -7, false},
		{"float whole", sqltypes.NewFloat(3.0), 3, false},
		{"float fractional rejected", sqltypes.NewFloat(3.5), 0, true},
		{"bool rejected", sqltypes.NewBool(true), 0, true},
		{"text non-numeric rejected", sqltypes.NewText("abc"), 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Coerce(col, c.in)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.I != c.want {
				t.Fatalf("got %d, want %d", got.I, c.want)
			}
		})
	}
}

func TestCoerceFloatWidensInt(t *testing.T) {
	col := mustColumn(t, "f", sqltypes.TypeFloat, 0)
	got, err := Coerce(col, sqltypes.NewInt(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.F != 4.0 {
		t.Fatalf("got %v, want 4.0", got.F)
	}
}

func TestCoerceBoolean(t *testing.T) {
	col := mustColumn(t, "b", sqltypes.TypeBoolean, 0)
	trueCases := []sqltypes.Value{sqltypes.NewText("yes"), sqltypes.NewText("TRUE"), sqltypes.NewInt(1), sqltypes.NewText("t")}
	for _, v := range trueCases {
		got, err := Coerce(col, v)
		if err != nil || got.B != true {
			t.Errorf("Coerce(%v) = %v, %v, want true", v, got, err)
		}
	}
	falseCases := []sqltypes.Value{sqltypes.NewText("no"), sqltypes.NewInt(0), sqltypes.NewText("0")}
	for _, v := range falseCases {
		got, err := Coerce(col, v)
		if err != nil || got.B != false {
			t.Errorf("Coerce(%v) = %v, %v, want false", v, got, err)
		}
	}
	if _, err := Coerce(col, sqltypes.NewInt(2)); err == nil {
		t.Fatal("expected error for integer 2")
	}
}

func TestCoerceVarcharEnforcesMaxLength(t *testing.T) {
	col := mustColumn(t, "s", sqltypes.TypeVarchar, 3)
	if _, err := Coerce(col, sqltypes.NewText("abcd")); err == nil {
		t.Fatal("expected error for value exceeding max_length")
	}
	if _, err := Coerce(col, sqltypes.NewText("abc")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCoerceDate(t *testing.T) {
	col := mustColumn(t, "d", sqltypes.TypeDate, 0)
	got, err := Coerce(col, sqltypes.NewText("2024-12-25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Render() != "2024-12-25" {
		t.Fatalf("got %q", got.Render())
	}
	if _, err := Coerce(col, sqltypes.NewText("not-a-date")); err == nil {
		t.Fatal("expected error for invalid date text")
	}
}

func TestCoerceRowAppliesDefaultsAndRejectsUnknownColumns(t *testing.T) {
	id := mustColumn(t, "id", sqltypes.TypeInteger, 0, PrimaryKey)
	active := &Column{Name: "active", Type: sqltypes.TypeBoolean, Constraints: map[Constraint]bool{}}
	def := sqltypes.NewBool(true)
	active.Default = &def
	s, err := NewSchema("t", []*Column{id, active})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	row, err := s.CoerceRow(map[string]sqltypes.Value{"id": sqltypes.NewInt(1)})
	if err != nil {
		t.Fatalf("CoerceRow: %v", err)
	}
	if row["active"].B != true {
		t.Fatalf("expected default applied, got %v", row["active"])
	}
	if _, err := s.CoerceRow(map[string]sqltypes.Value{"id": sqltypes.NewInt(1), "bogus": sqltypes.NewInt(2)}); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestCoerceRowRejectsNullForNotNull(t *testing.T) {
	id := mustColumn(t, "id", sqltypes.TypeInteger, 0, PrimaryKey)
	s, err := NewSchema("t", []*Column{id})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	if _, err := s.CoerceRow(map[string]sqltypes.Value{}); err == nil {
		t.Fatal("expected NOT_NULL violation for missing primary key")
	}
}

func TestCoerceRowAggregatesEveryColumnError(t *testing.T) {
	id := mustColumn(t, "id", sqltypes.TypeInteger, 0, PrimaryKey)
	age := mustColumn(t, "age", sqltypes.TypeInteger, 0)
	name := mustColumn(t, "name", sqltypes.TypeVarchar, 3, NotNull)
	s, err := NewSchema("t", []*Column{id, age, name})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}

	_, err = s.CoerceRow(map[string]sqltypes.Value{
		"id":   sqltypes.NewInt(1),
		"age":  sqltypes.NewText("not-a-number"),
		"name": sqltypes.Null,
	})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	var errs *Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected *Errors, got %T: %v", err, err)
	}
	if len(errs.Errors) != 2 {
		t.Fatalf("expected both the age type error and the name NOT_NULL error, got %d: %v", len(errs.Errors), errs.Errors)
	}
	byColumn := map[string]*Error{}
	for _, e := range errs.Errors {
		byColumn[e.Column] = e
	}
	if byColumn["age"] == nil || byColumn["age"].Kind != ErrType {
		t.Fatalf("expected a type error on age, got %+v", byColumn["age"])
	}
	if byColumn["name"] == nil || byColumn["name"].Kind != ErrConstraint {
		t.Fatalf("expected a constraint error on name, got %+v", byColumn["name"])
	}
}
