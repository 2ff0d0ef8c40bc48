package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

// Manager tracks every index for every table and keeps them consistent
// across insert/update/delete, rolling an operation back across the
// indexes it already touched if a later index rejects it.
type Manager struct {
	mu      sync.RWMutex
	indexes map[string]map[string]*Index // table -> column -> Index
}

// NewManager returns an empty index manager.
func NewManager() *Manager {
	return &Manager{indexes: make(map[string]map[string]*Index)}
}

// CreateIndex registers a new index on table.column. It fails if one
// already exists for that column.
func (m *Manager) CreateIndex(table, column string, unique bool) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cols, ok := m.indexes[table]
	if !ok {
		cols = make(map[string]*Index)
		m.indexes[table] = cols
	}
	if _, exists := cols[column]; exists {
		return nil, fmt.Errorf("index on %s.%s already exists", table, column)
	}
	idx := New(table, column, unique)
	cols[column] = idx
	return idx, nil
}

// GetIndex returns the index for table.column, if any.
func (m *Manager) GetIndex(table, column string) (*Index, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cols, ok := m.indexes[table]
	if !ok {
		return nil, false
	}
	idx, ok := cols[column]
	return idx, ok
}

// HasIndex reports whether table.column is indexed.
func (m *Manager) HasIndex(table, column string) bool {
	_, ok := m.GetIndex(table, column)
	return ok
}

// DropIndex removes the index on table.column.
func (m *Manager) DropIndex(table, column string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cols, ok := m.indexes[table]
	if !ok {
		return fmt.Errorf("no indexes on table %s", table)
	}
	if _, ok := cols[column]; !ok {
		return fmt.Errorf("no index on %s.%s", table, column)
	}
	delete(cols, column)
	if len(cols) == 0 {
		delete(m.indexes, table)
	}
	return nil
}

// ListIndexes returns the indexed column names for table, sorted.
func (m *Manager) ListIndexes(table string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cols, ok := m.indexes[table]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DropTable removes every index registered for table (used when the table
// itself is dropped).
func (m *Manager) DropTable(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indexes, table)
}

// InsertIntoIndexes inserts rowID into every index on table, keyed by the
// matching column of rowData. If any index rejects the insert (a unique
// violation), every index already updated for this row is rolled back
// before the error is returned — mirroring the original engine's
// insert_into_indexes rollback contract.
func (m *Manager) InsertIntoIndexes(table string, rowID int64, rowData map[string]sqltypes.Value) error {
	m.mu.RLock()
	cols := m.indexes[table]
	m.mu.RUnlock()
	if len(cols) == 0 {
		return nil
	}

	var touched []string
	for column, idx := range cols {
		v, ok := rowData[column]
		if !ok || v.IsNull() {
			continue
		}
		if err := idx.Insert(v, rowID); err != nil {
			for _, c := range touched {
				cols[c].Delete(rowData[c], rowID)
			}
			return err
		}
		touched = append(touched, column)
	}
	return nil
}

// DeleteFromIndexes removes rowID from every index on table.
func (m *Manager) DeleteFromIndexes(table string, rowID int64, rowData map[string]sqltypes.Value) {
	m.mu.RLock()
	cols := m.indexes[table]
	m.mu.RUnlock()
	for column, idx := range cols {
		v, ok := rowData[column]
		if !ok || v.IsNull() {
			continue
		}
		idx.Delete(v, rowID)
	}
}

// UpdateIndexes moves rowID's entries from oldData to newData across every
// index on table whose column actually changed value, rolling back any
// already-applied moves if a later column's new value violates a unique
// constraint.
func (m *Manager) UpdateIndexes(table string, rowID int64, oldData, newData map[string]sqltypes.Value) error {
	m.mu.RLock()
	cols := m.indexes[table]
	m.mu.RUnlock()
	if len(cols) == 0 {
		return nil
	}

	var touched []string
	for column, idx := range cols {
		oldV, oldOK := oldData[column]
		newV, newOK := newData[column]
		if oldOK && newOK && oldV.Equal(newV) {
			continue
		}
		if !newOK || newV.IsNull() {
			if oldOK && !oldV.IsNull() {
				idx.Delete(oldV, rowID)
				touched = append(touched, column)
			}
			continue
		}
		if !oldOK || oldV.IsNull() {
			if err := idx.Insert(newV, rowID); err != nil {
				rollbackUpdate(cols, oldData, newData, touched, rowID)
				return err
			}
			touched = append(touched, column)
			continue
		}
		if err := idx.Update(oldV, newV, rowID); err != nil {
			rollbackUpdate(cols, oldData, newData, touched, rowID)
			return err
		}
		touched = append(touched, column)
	}
	return nil
}

func rollbackUpdate(cols map[string]*Index, oldData, newData map[string]sqltypes.Value, touched []string, rowID int64) {
	for i := len(touched) - 1; i >= 0; i-- {
		column := touched[i]
		idx := cols[column]
		oldV, oldOK := oldData[column]
		newV, newOK := newData[column]
		switch {
		case newOK && !newV.IsNull() && oldOK && !oldV.IsNull():
			idx.Update(newV, oldV, rowID)
		case newOK && !newV.IsNull():
			idx.Delete(newV, rowID)
		case oldOK && !oldV.IsNull():
			idx.Insert(oldV, rowID)
		}
	}
}

// RowRef is the minimal row shape Rebuild needs: an id and its data, so this
// package does not need to import the storage package.
type RowRef struct {
	ID   int64
	Data map[string]sqltypes.Value
}

// Rebuild clears table.column's index and re-populates it from rows.
func (m *Manager) Rebuild(table, column string, rows []RowRef) error {
	idx, ok := m.GetIndex(table, column)
	if !ok {
		return fmt.Errorf("no index on %s.%s", table, column)
	}
	idx.Reset()
	for _, row := range rows {
		v, ok := row.Data[column]
		if !ok || v.IsNull() {
			continue
		}
		if err := idx.Insert(v, row.ID); err != nil {
			return err
		}
	}
	return nil
}

// AllStats returns index statistics for every index on table.
func (m *Manager) AllStats(table string) []Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cols := m.indexes[table]
	out := make([]Stats, 0, len(cols))
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, cols[name].Stats())
	}
	return out
}
