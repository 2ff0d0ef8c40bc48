package executor

import (
	"context"
	"fmt"

	"github.com/sakachris/simpldb/internal/catalog"
	"github.com/sakachris/simpldb/internal/parser"
	"github.com/sakachris/simpldb/internal/schema"
)

func (e *Executor) execCreateTable(ctx context.Context, q *parser.Query) *Result {
	lock := e.tableLock(q.Table)
	lock.Lock()
	defer lock.Unlock()

	if e.schemas.Exists(q.Table) {
		return errResult(newError(ErrSchemaKind, "table %q already exists", q.Table))
	}

	cols := make([]*schema.Column, len(q.Columns))
	for i, cd := range q.Columns {
		constraints := make([]schema.Constraint, len(cd.Constraints))
		for j, c := range cd.Constraints {
			constraints[j] = schema.Constraint(c)
		}
		col, err := schema.NewColumn(cd.Name, cd.Type, cd.MaxLength, constraints, cd.Default)
		if err != nil {
			return errResult(asExecError(err, ErrSchemaKind))
		}
		cols[i] = col
	}
	sch, err := schema.NewSchema(q.Table, cols)
	if err != nil {
		return errResult(asExecError(err, ErrSchemaKind))
	}

	// Column errors above leave the catalog untouched (spec.md §4.5); only
	// once the schema itself is valid do we touch storage/catalog/indexes.
	if err := e.store.CreateTable(ctx, q.Table); err != nil {
		return errResult(asExecError(err, ErrInternal))
	}
	if err := e.schemas.Create(sch); err != nil {
		e.store.DropTable(ctx, q.Table)
		return errResult(asExecError(err, ErrSchemaKind))
	}
	if err := e.catalog.RegisterTable(q.Table, catalog.ToStoredSchema(sch)); err != nil {
		e.schemas.Drop(q.Table)
		e.store.DropTable(ctx, q.Table)
		return errResult(asExecError(err, ErrInternal))
	}

	for _, col := range sch.Columns {
		if !col.IsUnique() {
			continue
		}
		if _, err := e.indexes.CreateIndex(q.Table, col.Name, true); err != nil {
			return errResult(asExecError(err, ErrInternal))
		}
		idxName := fmt.Sprintf("idx_%s_%s", q.Table, col.Name)
		if err := e.catalog.RegisterIndex(q.Table, col.Name, idxName, true); err != nil {
			return errResult(asExecError(err, ErrInternal))
		}
	}

	return okResult(fmt.Sprintf("table %q created", q.Table), 0)
}

func (e *Executor) execDropTable(ctx context.Context, q *parser.Query) *Result {
	lock := e.tableLock(q.Table)
	lock.Lock()
	defer lock.Unlock()

	if _, execErr := e.requireSchema(q.Table); execErr != nil {
		return errResult(execErr)
	}

	// Indexes first, then storage, then the catalog entry, so no index
	// outlives its table's rows (spec.md §4.5's DROP TABLE ordering). A
	// crash between the storage drop and the catalog update leaves a
	// catalog entry whose storage is gone.
	e.indexes.DropTable(q.Table)
	if err := e.store.DropTable(ctx, q.Table); err != nil {
		return errResult(asExecError(err, ErrInternal))
	}
	if err := e.catalog.UnregisterTable(q.Table); err != nil {
		return errResult(asExecError(err, ErrInternal))
	}
	if err := e.schemas.Drop(q.Table); err != nil {
		return errResult(asExecError(err, ErrInternal))
	}

	return okResult(fmt.Sprintf("table %q dropped", q.Table), 0)
}

func (e *Executor) execCreateIndex(ctx context.Context, q *parser.Query) *Result {
	lock := e.tableLock(q.Table)
	lock.Lock()
	defer lock.Unlock()

	sch, execErr := e.requireSchema(q.Table)
	if execErr != nil {
		return errResult(execErr)
	}
	if _, ok := sch.Column(q.OnColumn); !ok {
		return errResult(newError(ErrNotFound, "column %q does not exist on table %q", q.OnColumn, q.Table))
	}
	if e.indexes.HasIndex(q.Table, q.OnColumn) {
		return errResult(newError(ErrSchemaKind, "index already exists on %s.%s", q.Table, q.OnColumn))
	}

	idx, err := e.indexes.CreateIndex(q.Table, q.OnColumn, q.Unique)
	if err != nil {
		return errResult(asExecError(err, ErrInternal))
	}

	rows, err := e.store.Scan(ctx, q.Table)
	if err != nil {
		e.indexes.DropIndex(q.Table, q.OnColumn)
		return errResult(asExecError(err, ErrInternal))
	}
	for _, row := range rows {
		v, ok := row.Data[q.OnColumn]
		if !ok || v.IsNull() {
			continue
		}
		if err := idx.Insert(v, row.ID); err != nil {
			// Populate failed on a UNIQUE violation: discard the
			// partially built index entirely (spec.md §4.5).
			e.indexes.DropIndex(q.Table, q.OnColumn)
			return errResult(asExecError(err, ErrConstraintViolation))
		}
	}

	if err := e.catalog.RegisterIndex(q.Table, q.OnColumn, q.IndexName, q.Unique); err != nil {
		e.indexes.DropIndex(q.Table, q.OnColumn)
		return errResult(asExecError(err, ErrInternal))
	}

	return okResult(fmt.Sprintf("index %q created on %s.%s", q.IndexName, q.Table, q.OnColumn), 0)
}

func (e *Executor) execDropIndex(ctx context.Context, q *parser.Query) *Result {
	lock := e.tableLock(q.Table)
	lock.Lock()
	defer lock.Unlock()

	if _, execErr := e.requireSchema(q.Table); execErr != nil {
		return errResult(execErr)
	}

	// DROP INDEX names the index, not its column, so the column is
	// resolved through the catalog's (table, index name) -> column entry.
	column := ""
	for _, entry := range e.catalog.IndexesForTable(q.Table) {
		if entry.Name == q.IndexName {
			column = entry.Column
			break
		}
	}
	if column == "" {
		return errResult(newError(ErrNotFound, "no index named %q on table %q", q.IndexName, q.Table))
	}

	if err := e.indexes.DropIndex(q.Table, column); err != nil {
		return errResult(asExecError(err, ErrInternal))
	}
	if err := e.catalog.UnregisterIndex(q.Table, column); err != nil {
		return errResult(asExecError(err, ErrInternal))
	}

	return okResult(fmt.Sprintf("index %q dropped on %s.%s", q.IndexName, q.Table, column), 0)
}
