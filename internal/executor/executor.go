// Package executor dispatches parsed Query ASTs against the schema,
// storage, and index layers, implementing spec.md §4.5's per-statement
// contracts including INSERT's compensating delete, UPDATE's no-cross-row
// atomicity, and DELETE's indexes-before-storage ordering.
package executor

import (
	"context"
	"sync"

	"github.com/sakachris/simpldb/internal/catalog"
	"github.com/sakachris/simpldb/internal/index"
	"github.com/sakachris/simpldb/internal/parser"
	"github.com/sakachris/simpldb/internal/schema"
	"github.com/sakachris/simpldb/internal/storage"
)

// Executor orchestrates the schema registry, catalog, row storage, and
// index manager into the eight statement operations.
type Executor struct {
	schemas *schema.Manager
	catalog *catalog.Catalog
	store   storage.Storage
	indexes *index.Manager

	locksMu sync.Mutex
	locks   map[string]*sync.RWMutex
}

// New builds an Executor over already-open components. Recovery (loading
// the catalog, rebuilding schemas/indexes at startup) is internal/engine's
// responsibility; Executor assumes schemas/indexes are already populated
// for every table the catalog lists.
func New(schemas *schema.Manager, cat *catalog.Catalog, store storage.Storage, indexes *index.Manager) *Executor {
	return &Executor{
		schemas: schemas,
		catalog: cat,
		store:   store,
		indexes: indexes,
		locks:   make(map[string]*sync.RWMutex),
	}
}

// tableLock returns the per-table mutex, creating one on first use. Every
// public operation on a table holds this for its duration (spec.md §5).
func (e *Executor) tableLock(table string) *sync.RWMutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	l, ok := e.locks[table]
	if !ok {
		l = &sync.RWMutex{}
		e.locks[table] = l
	}
	return l
}

// Execute dispatches q to the matching statement handler.
func (e *Executor) Execute(ctx context.Context, q *parser.Query) *Result {
	switch q.Type {
	case parser.CreateTable:
		return e.execCreateTable(ctx, q)
	case parser.DropTable:
		return e.execDropTable(ctx, q)
	case parser.CreateIndex:
		return e.execCreateIndex(ctx, q)
	case parser.DropIndex:
		return e.execDropIndex(ctx, q)
	case parser.Insert:
		return e.execInsert(ctx, q)
	case parser.Select:
		return e.execSelect(ctx, q)
	case parser.Update:
		return e.execUpdate(ctx, q)
	case parser.Delete:
		return e.execDelete(ctx, q)
	}
	return errResult(newError(ErrInternal, "unknown query type %v", q.Type))
}

func (e *Executor) requireSchema(table string) (*schema.Schema, *Error) {
	sch, ok := e.schemas.Get(table)
	if !ok {
		return nil, newError(ErrNotFound, "table %q does not exist", table)
	}
	return sch, nil
}

func rowIndexRef(row storage.Row) index.RowRef {
	return index.RowRef{ID: row.ID, Data: row.Data}
}
