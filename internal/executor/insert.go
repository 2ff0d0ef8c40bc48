package executor

import (
	"context"
	"fmt"

	"github.com/sakachris/simpldb/internal/parser"
	"github.com/sakachris/simpldb/internal/sqltypes"
)

// execInsert implements spec.md §4.5's INSERT contract: resolve schema,
// fill defaults, coerce, pre-check uniqueness, insert into storage, then
// into indexes — with a compensating storage delete if the index step
// fails, so an observer never sees a stored row with no matching index
// entry.
func (e *Executor) execInsert(ctx context.Context, q *parser.Query) *Result {
	lock := e.tableLock(q.Table)
	lock.Lock()
	defer lock.Unlock()

	sch, execErr := e.requireSchema(q.Table)
	if execErr != nil {
		return errResult(execErr)
	}

	insertCols := q.InsertColumns
	if insertCols == nil {
		insertCols = sch.ColumnNames()
		if len(q.InsertValues) != len(insertCols) {
			return errResult(newError(ErrType,
				"value count (%d) doesn't match column count (%d) for table %q", len(q.InsertValues), len(insertCols), q.Table))
		}
	}
	raw := make(map[string]sqltypes.Value, len(insertCols))
	for i, col := range insertCols {
		raw[col] = q.InsertValues[i]
	}
	coerced, err := sch.CoerceRow(raw)
	if err != nil {
		return errResult(asExecError(err, ErrType))
	}

	for _, col := range sch.UniqueColumns() {
		v := coerced[col.Name]
		if v.IsNull() {
			continue
		}
		idx, ok := e.indexes.GetIndex(q.Table, col.Name)
		if !ok {
			continue
		}
		if len(idx.Search(v)) > 0 {
			return errResult(newError(ErrConstraintViolation,
				"unique constraint violation on %s.%s: %q already exists", q.Table, col.Name, v.Render()))
		}
	}

	rowID, err := e.store.Insert(ctx, q.Table, coerced)
	if err != nil {
		return errResult(asExecError(err, ErrInternal))
	}

	if err := e.indexes.InsertIntoIndexes(q.Table, rowID, coerced); err != nil {
		// Compensating delete: storage and indexes must never disagree on
		// which rows exist.
		e.store.Delete(ctx, q.Table, rowID)
		return errResult(asExecError(err, ErrConstraintViolation))
	}

	count, err := e.store.Count(ctx, q.Table)
	if err == nil {
		e.catalog.UpdateTableStats(q.Table, count)
	}

	res := okResult(fmt.Sprintf("1 row inserted into %q", q.Table), 1)
	res.RowID = rowID
	return res
}
