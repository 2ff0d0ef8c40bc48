// Package index implements an ordered multimap index over sqltypes.Value
// keys, and a Manager coordinating every index for a table during inserts,
// updates, and deletes.
package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

// entry is one distinct key and the row ids that carry it, kept sorted by
// Key across the Index's entries slice — the Go rendering of the original
// engine's "simplified B-tree" (a sorted key list plus parallel value
// lists, searched and inserted via binary search rather than real B-tree
// node splitting).
type entry struct {
	Key  sqltypes.Value
	Rows []int64
}

// Index is a single-column ordered index, unique or non-unique.
type Index struct {
	mu      sync.Mutex
	Table   string
	Column  string
	Unique  bool
	entries []entry
}

// New returns an empty index on table.column.
func New(table, column string, unique bool) *Index {
	return &Index{Table: table, Column: column, Unique: unique}
}

func (idx *Index) find(key sqltypes.Value) (int, bool) {
	pos := sort.Search(len(idx.entries), func(i int) bool {
		return !idx.entries[i].Key.Less(key)
	})
	if pos < len(idx.entries) && idx.entries[pos].Key.Equal(key) {
		return pos, true
	}
	return pos, false
}

// Insert adds key->rowID. It fails with a *ConstraintError if idx is unique
// and key is already associated with a different row id.
func (idx *Index) Insert(key sqltypes.Value, rowID int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.insertLocked(key, rowID)
}

func (idx *Index) insertLocked(key sqltypes.Value, rowID int64) error {
	pos, found := idx.find(key)
	if found {
		rows := idx.entries[pos].Rows
		if idx.Unique && !containsID(rows, rowID) {
			return &ConstraintError{Table: idx.Table, Column: idx.Column, Key: key}
		}
		if !containsID(rows, rowID) {
			idx.entries[pos].Rows = append(rows, rowID)
		}
		return nil
	}
	idx.entries = append(idx.entries, entry{})
	copy(idx.entries[pos+1:], idx.entries[pos:])
	idx.entries[pos] = entry{Key: key, Rows: []int64{rowID}}
	return nil
}

// Delete removes rowID from key's entry (or the whole entry if rowID is the
// last row carrying it).
func (idx *Index) Delete(key sqltypes.Value, rowID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.deleteLocked(key, rowID)
}

func (idx *Index) deleteLocked(key sqltypes.Value, rowID int64) {
	pos, found := idx.find(key)
	if !found {
		return
	}
	rows := removeID(idx.entries[pos].Rows, rowID)
	if len(rows) == 0 {
		idx.entries = append(idx.entries[:pos], idx.entries[pos+1:]...)
		return
	}
	idx.entries[pos].Rows = rows
}

// Update atomically moves rowID from oldKey to newKey, rolling back to the
// prior state if the new key violates a unique constraint.
func (idx *Index) Update(oldKey, newKey sqltypes.Value, rowID int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.deleteLocked(oldKey, rowID)
	if err := idx.insertLocked(newKey, rowID); err != nil {
		idx.insertLocked(oldKey, rowID)
		return err
	}
	return nil
}

// Search returns the row ids exactly matching key.
func (idx *Index) Search(key sqltypes.Value) []int64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	pos, found := idx.find(key)
	if !found {
		return nil
	}
	out := make([]int64, len(idx.entries[pos].Rows))
	copy(out, idx.entries[pos].Rows)
	return out
}

// RangeSearch returns every row id whose key falls within [start, end],
// honoring includeStart/includeEnd. A nil start or end means unbounded on
// that side.
func (idx *Index) RangeSearch(start, end *sqltypes.Value, includeStart, includeEnd bool) []int64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var out []int64
	for _, e := range idx.entries {
		if start != nil {
			if e.Key.Less(*start) {
				continue
			}
			if e.Key.Equal(*start) && !includeStart {
				continue
			}
		}
		if end != nil {
			if end.Less(e.Key) {
				continue
			}
			if e.Key.Equal(*end) && !includeEnd {
				continue
			}
		}
		out = append(out, e.Rows...)
	}
	return out
}

// All returns every row id in the index, in key order.
func (idx *Index) All() []int64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var out []int64
	for _, e := range idx.entries {
		out = append(out, e.Rows...)
	}
	return out
}

// Reset clears the index's contents, used by Rebuild.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
}

// Stats summarizes an index for introspection (spec.md's stats surface).
type Stats struct {
	Table        string
	Column       string
	Unique       bool
	DistinctKeys int
	TotalEntries int
}

func (idx *Index) Stats() Stats {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	total := 0
	for _, e := range idx.entries {
		total += len(e.Rows)
	}
	return Stats{Table: idx.Table, Column: idx.Column, Unique: idx.Unique, DistinctKeys: len(idx.entries), TotalEntries: total}
}

// ConstraintError reports a unique-index violation.
type ConstraintError struct {
	Table, Column string
	Key           sqltypes.Value
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("unique constraint violation on %s.%s: %q already exists", e.Table, e.Column, e.Key.Render())
}

func containsID(rows []int64, id int64) bool {
	for _, r := range rows {
		if r == id {
			return true
		}
	}
	return false
}

func removeID(rows []int64, id int64) []int64 {
	out := rows[:0]
	for _, r := range rows {
		if r != id {
			out = append(out, r)
		}
	}
	return out
}
