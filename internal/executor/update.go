package executor

import (
	"context"
	"fmt"

	"github.com/sakachris/simpldb/internal/parser"
	"github.com/sakachris/simpldb/internal/sqltypes"
)

// execUpdate implements spec.md §4.5's UPDATE contract: select target rows
// by WHERE only (no JOIN support in UPDATE), merge each row's old data with
// the SET assignments, coerce/validate the merged row, check uniqueness on
// any SET-listed UNIQUE column excluding the row being updated, write
// storage, then update indexes with a storage rollback on failure. Rows are
// updated independently; a later row's failure does not roll back earlier
// ones (spec.md's explicit no-cross-row-atomicity note).
func (e *Executor) execUpdate(ctx context.Context, q *parser.Query) *Result {
	lock := e.tableLock(q.Table)
	lock.Lock()
	defer lock.Unlock()

	sch, execErr := e.requireSchema(q.Table)
	if execErr != nil {
		return errResult(execErr)
	}

	rows, err := e.store.Scan(ctx, q.Table)
	if err != nil {
		return errResult(asExecError(err, ErrInternal))
	}

	var targets []int
	for i, row := range rows {
		ok, evalErr := evaluateConditions(row.Data, q.Where)
		if evalErr != nil {
			return errResult(evalErr)
		}
		if ok {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return okResult("0 rows updated", 0)
	}

	updated := 0
	for _, i := range targets {
		row := rows[i]
		merged := make(map[string]sqltypes.Value, len(row.Data))
		for k, v := range row.Data {
			merged[k] = v
		}
		for k, v := range q.Assignments {
			merged[k] = v
		}

		coerced, err := sch.CoerceRow(merged)
		if err != nil {
			return errResult(asExecError(err, ErrType))
		}

		for _, col := range sch.UniqueColumns() {
			if _, changing := q.Assignments[col.Name]; !changing {
				continue
			}
			v := coerced[col.Name]
			if v.IsNull() {
				continue
			}
			idx, ok := e.indexes.GetIndex(q.Table, col.Name)
			if !ok {
				continue
			}
			for _, id := range idx.Search(v) {
				if id != row.ID {
					return errResult(newError(ErrConstraintViolation,
						"unique constraint violation on %s.%s: %q already exists", q.Table, col.Name, v.Render()))
				}
			}
		}

		if err := e.store.Update(ctx, q.Table, row.ID, coerced); err != nil {
			return errResult(asExecError(err, ErrInternal))
		}
		if err := e.indexes.UpdateIndexes(q.Table, row.ID, row.Data, coerced); err != nil {
			e.store.Update(ctx, q.Table, row.ID, row.Data)
			return errResult(asExecError(err, ErrConstraintViolation))
		}
		updated++
	}

	return okResult(fmt.Sprintf("%d rows updated", updated), updated)
}
