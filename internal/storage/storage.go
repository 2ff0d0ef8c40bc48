// Package storage defines the pluggable row-storage interface used by the
// executor, and the backends that implement it.
package storage

import (
	"context"
	"time"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

// Row is one stored record: column name to coerced value, plus the
// row-level bookkeeping timestamps the original engine tracks per row.
type Row struct {
	ID        int64
	Data      map[string]sqltypes.Value
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of r's Data map so callers cannot mutate a
// backend's internal state through a returned Row.
func (r Row) Clone() Row {
	data := make(map[string]sqltypes.Value, len(r.Data))
	for k, v := range r.Data {
		data[k] = v
	}
	return Row{ID: r.ID, Data: data, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// Storage is the interface every backend (memory, sqlitekv) implements. A
// table must be created before rows can be stored in it; row ids are
// assigned by the backend and are monotonically increasing per table,
// mirroring the original engine's per-table next_id counter.
type Storage interface {
	CreateTable(ctx context.Context, table string) error
	DropTable(ctx context.Context, table string) error
	TableExists(ctx context.Context, table string) (bool, error)

	Insert(ctx context.Context, table string, data map[string]sqltypes.Value) (int64, error)
	Get(ctx context.Context, table string, id int64) (Row, bool, error)
	Update(ctx context.Context, table string, id int64, data map[string]sqltypes.Value) error
	Delete(ctx context.Context, table string, id int64) error

	// Scan returns every row in table ordered by ascending row id.
	Scan(ctx context.Context, table string) ([]Row, error)
	Count(ctx context.Context, table string) (int, error)

	Close() error
}

// NotFoundError is returned by Get/Update/Delete when the named row or
// table does not exist.
type NotFoundError struct {
	Table string
	ID    int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return "storage: table " + e.Table + " does not exist"
	}
	return "storage: no such row in table " + e.Table
}

// AlreadyExistsError is returned by CreateTable when the table is already
// present in the backend.
type AlreadyExistsError struct {
	Table string
}

func (e *AlreadyExistsError) Error() string {
	return "storage: table " + e.Table + " already exists"
}
