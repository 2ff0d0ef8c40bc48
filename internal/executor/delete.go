package executor

import (
	"context"
	"fmt"

	"github.com/sakachris/simpldb/internal/parser"
)

// execDelete implements spec.md §4.5's DELETE contract: select target rows
// by WHERE only, then for each remove from indexes before storage so an
// observer never sees a stored row with a dangling index entry.
func (e *Executor) execDelete(ctx context.Context, q *parser.Query) *Result {
	lock := e.tableLock(q.Table)
	lock.Lock()
	defer lock.Unlock()

	if _, execErr := e.requireSchema(q.Table); execErr != nil {
		return errResult(execErr)
	}

	rows, err := e.store.Scan(ctx, q.Table)
	if err != nil {
		return errResult(asExecError(err, ErrInternal))
	}

	deleted := 0
	for _, row := range rows {
		ok, evalErr := evaluateConditions(row.Data, q.Where)
		if evalErr != nil {
			return errResult(evalErr)
		}
		if !ok {
			continue
		}
		e.indexes.DeleteFromIndexes(q.Table, row.ID, row.Data)
		if err := e.store.Delete(ctx, q.Table, row.ID); err != nil {
			return errResult(asExecError(err, ErrInternal))
		}
		deleted++
	}

	if deleted > 0 {
		if count, err := e.store.Count(ctx, q.Table); err == nil {
			e.catalog.UpdateTableStats(q.Table, count)
		}
	}

	return okResult(fmt.Sprintf("%d rows deleted", deleted), deleted)
}
