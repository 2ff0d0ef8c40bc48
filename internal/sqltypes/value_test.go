package sqltypes

import (
	"testing"
	"time"
)

func TestValueOrdering(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want int
	}{
		{"int lt", NewInt(1), NewInt(2), -1},
		{"int eq", NewInt(5), NewInt(5), 0},
		{"float gt", NewFloat(3.5), NewFloat(1.1), 1},
		{"bool false lt true", NewBool(false), NewBool(true), -1},
		{"text lexicographic", NewText("apple"), NewText("banana"), -1},
		{"null smallest", Null, NewInt(0), -1},
		{"null equal null", Null, Null, 0},
		{"date chronological", NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), NewDate(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.a.Compare(c.b)
			if got != c.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestValueRender(t *testing.T) {
	d := NewDate(time.Date(2025, 3, 7, 15, 30, 0, 0, time.UTC))
	if got := d.Render(); got != "2025-03-07" {
		t.Errorf("date Render() = %q, want 2025-03-07", got)
	}
	if got := NewBool(true).Render(); got != "true" {
		t.Errorf("bool Render() = %q", got)
	}
}

func TestValueCompareCrossKindPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic comparing differing non-null kinds")
		}
	}()
	NewInt(1).Less(NewText("x"))
}
