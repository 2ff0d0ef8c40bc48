package index

import (
	"testing"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

func TestIndexInsertSearch(t *testing.T) {
	idx := New("users", "age", false)
	if err := idx.Insert(sqltypes.NewInt(30), 1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Insert(sqltypes.NewInt(30), 3); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Insert(sqltypes.NewInt(25), 2); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got := idx.Search(sqltypes.NewInt(30))
	if len(got) != 2 {
		t.Fatalf("Search(30) = %v, want 2 rows", got)
	}
}

func TestUniqueIndexRejectsDuplicateKey(t *testing.T) {
	idx := New("users", "email", true)
	if err := idx.Insert(sqltypes.NewText("a@x.com"), 1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Insert(sqltypes.NewText("a@x.com"), 2); err == nil {
		t.Fatal("expected unique constraint violation")
	}
	// Re-inserting the same key for the SAME row id must be a no-op, not
	// an error (idempotent insert of an already-indexed row).
	if err := idx.Insert(sqltypes.NewText("a@x.com"), 1); err != nil {
		t.Fatalf("re-insert of same row should not fail: %v", err)
	}
}

func TestIndexDelete(t *testing.T) {
	idx := New("t", "c", false)
	idx.Insert(sqltypes.NewInt(1), 10)
	idx.Insert(sqltypes.NewInt(1), 11)
	idx.Delete(sqltypes.NewInt(1), 10)
	got := idx.Search(sqltypes.NewInt(1))
	if len(got) != 1 || got[0] != 11 {
		t.Fatalf("Search after delete = %v", got)
	}
	idx.Delete(sqltypes.NewInt(1), 11)
	if got := idx.Search(sqltypes.NewInt(1)); len(got) != 0 {
		t.Fatalf("expected empty key to disappear, got %v", got)
	}
}

func TestIndexUpdateRollsBackOnUniqueViolation(t *testing.T) {
	idx := New("t", "c", true)
	idx.Insert(sqltypes.NewText("a"), 1)
	idx.Insert(sqltypes.NewText("b"), 2)
	if err := idx.Update(sqltypes.NewText("a"), sqltypes.NewText("b"), 1); err == nil {
		t.Fatal("expected unique violation moving row 1's key to an existing key")
	}
	// Row 1 must still be found under its original key "a".
	if got := idx.Search(sqltypes.NewText("a")); len(got) != 1 || got[0] != 1 {
		t.Fatalf("rollback failed, Search(a) = %v", got)
	}
}

func TestRangeSearchInclusiveExclusive(t *testing.T) {
	idx := New("t", "age", false)
	for _, v := range []int64{10, 20, 30, 40} {
		idx.Insert(sqltypes.NewInt(v), v)
	}
	lo, hi := sqltypes.NewInt(20), sqltypes.NewInt(40)
	got := idx.RangeSearch(&lo, &hi, true, true)
	if len(got) != 3 {
		t.Fatalf("inclusive range = %v, want 3 rows", got)
	}
	got = idx.RangeSearch(&lo, &hi, false, false)
	if len(got) != 1 || got[0] != 30 {
		t.Fatalf("exclusive range = %v, want [30]", got)
	}
}

func TestManagerInsertIntoIndexesRollsBackOnViolation(t *testing.T) {
	m := NewManager()
	m.CreateIndex("users", "id", true)
	m.CreateIndex("users", "email", true)

	if err := m.InsertIntoIndexes("users", 1, map[string]sqltypes.Value{
		"id": sqltypes.NewInt(1), "email": sqltypes.NewText("a@x.com"),
	}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// Row 2 collides on email but not on id; the id index should be rolled
	// back so it doesn't retain a dangling entry for row 2.
	err := m.InsertIntoIndexes("users", 2, map[string]sqltypes.Value{
		"id": sqltypes.NewInt(2), "email": sqltypes.NewText("a@x.com"),
	})
	if err == nil {
		t.Fatal("expected unique violation on email")
	}
	idIdx, _ := m.GetIndex("users", "id")
	if got := idIdx.Search(sqltypes.NewInt(2)); len(got) != 0 {
		t.Fatalf("id index should have been rolled back, got %v", got)
	}
}

func TestManagerUpdateIndexesOnlyTouchesChangedColumns(t *testing.T) {
	m := NewManager()
	m.CreateIndex("t", "a", false)
	m.CreateIndex("t", "b", false)
	m.InsertIntoIndexes("t", 1, map[string]sqltypes.Value{"a": sqltypes.NewInt(1), "b": sqltypes.NewInt(2)})

	err := m.UpdateIndexes("t", 1,
		map[string]sqltypes.Value{"a": sqltypes.NewInt(1), "b": sqltypes.NewInt(2)},
		map[string]sqltypes.Value{"a": sqltypes.NewInt(1), "b": sqltypes.NewInt(5)})
	if err != nil {
		t.Fatalf("UpdateIndexes: %v", err)
	}
	aIdx, _ := m.GetIndex("t", "a")
	bIdx, _ := m.GetIndex("t", "b")
	if got := aIdx.Search(sqltypes.NewInt(1)); len(got) != 1 {
		t.Fatalf("unchanged column a should be untouched, got %v", got)
	}
	if got := bIdx.Search(sqltypes.NewInt(5)); len(got) != 1 {
		t.Fatalf("changed column b should reflect new value, got %v", got)
	}
	if got := bIdx.Search(sqltypes.NewInt(2)); len(got) != 0 {
		t.Fatalf("old value for column b should be gone, got %v", got)
	}
}

func TestManagerDeleteFromIndexes(t *testing.T) {
	m := NewManager()
	m.CreateIndex("t", "a", false)
	m.InsertIntoIndexes("t", 1, map[string]sqltypes.Value{"a": sqltypes.NewInt(9)})
	m.DeleteFromIndexes("t", 1, map[string]sqltypes.Value{"a": sqltypes.NewInt(9)})
	aIdx, _ := m.GetIndex("t", "a")
	if got := aIdx.Search(sqltypes.NewInt(9)); len(got) != 0 {
		t.Fatalf("expected row removed from index, got %v", got)
	}
}

func TestManagerRebuild(t *testing.T) {
	m := NewManager()
	m.CreateIndex("t", "a", false)
	rows := []RowRef{
		{ID: 1, Data: map[string]sqltypes.Value{"a": sqltypes.NewInt(1)}},
		{ID: 2, Data: map[string]sqltypes.Value{"a": sqltypes.NewInt(2)}},
	}
	if err := m.Rebuild("t", "a", rows); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	aIdx, _ := m.GetIndex("t", "a")
	if got := aIdx.All(); len(got) != 2 {
		t.Fatalf("All() = %v, want 2 rows", got)
	}
}
