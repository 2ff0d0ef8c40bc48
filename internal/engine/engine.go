// Package engine wires the parser, schema manager, catalog, row storage,
// and index manager into the single handle external callers use, and
// performs the startup recovery walk spec.md §6 requires: catalog, schema,
// storage, and index state must all agree before any statement runs.
package engine

import (
	"context"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/sakachris/simpldb/internal/catalog"
	"github.com/sakachris/simpldb/internal/executor"
	"github.com/sakachris/simpldb/internal/index"
	"github.com/sakachris/simpldb/internal/parser"
	"github.com/sakachris/simpldb/internal/schema"
	"github.com/sakachris/simpldb/internal/storage"
	"github.com/sakachris/simpldb/internal/storage/factory"
)

// ExecResult is the Go rendering of spec.md's QueryResult, re-exported from
// executor so callers outside this module never import internal/executor
// directly.
type ExecResult = executor.Result

// TableStats is the supplemented stats surface (SPEC_FULL.md §9): row
// count plus per-index distinct-key/total-entry counts for one table.
type TableStats struct {
	Table    string
	RowCount int
	Indexes  []index.Stats
}

// Engine is the top-level handle: one per open data directory.
type Engine struct {
	dataDir string
	backend string

	lock *flock.Flock

	schemas *schema.Manager
	catalog *catalog.Catalog
	store   storage.Storage
	indexes *index.Manager
	exec    *executor.Executor
}

// Open recovers an engine over dataDir: it reads the catalog, rebuilds
// in-memory schemas, opens the row storage backend, and rebuilds every
// index from the catalog's index entries plus the storage's current rows.
// With the sqlite backend, a table the catalog lists but storage cannot
// provide is a recovery error (spec.md §6's mutual-recoverability
// contract); the memory backend keeps no rows between opens, so its tables
// are recreated empty. Index entries are read only for the tables the
// catalog lists; an index entry naming a table the catalog does not list
// is not checked. A process-exclusion flock on
// dataDir/simpldb.lock guards against two processes opening the same data
// directory concurrently.
func Open(ctx context.Context, dataDir, backend string) (*Engine, error) {
	lock := flock.New(dataDir + "/simpldb.lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("engine: acquiring data directory lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("engine: data directory %q is already open by another process", dataDir)
	}

	cat, err := catalog.Open(dataDir)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("engine: opening catalog: %w", err)
	}

	store, err := factory.New(ctx, backend, dataDir+"/data.db")
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("engine: opening storage backend %q: %w", backend, err)
	}

	schemas := schema.NewManager()
	indexes := index.NewManager()

	for _, name := range cat.Tables() {
		entry, ok := cat.TableInfo(name)
		if !ok {
			continue
		}
		sch, err := catalog.ToSchema(entry.Schema)
		if err != nil {
			store.Close()
			lock.Unlock()
			return nil, fmt.Errorf("engine: rebuilding schema for table %q: %w", name, err)
		}
		if err := schemas.Create(sch); err != nil {
			store.Close()
			lock.Unlock()
			return nil, fmt.Errorf("engine: registering recovered schema %q: %w", name, err)
		}

		exists, err := store.TableExists(ctx, name)
		if err != nil {
			store.Close()
			lock.Unlock()
			return nil, fmt.Errorf("engine: checking storage for table %q: %w", name, err)
		}
		if !exists {
			if backend == factory.BackendSQLite {
				store.Close()
				lock.Unlock()
				return nil, fmt.Errorf("engine: table %q is in the catalog but missing from storage", name)
			}
			if err := store.CreateTable(ctx, name); err != nil {
				store.Close()
				lock.Unlock()
				return nil, fmt.Errorf("engine: recreating missing storage for table %q: %w", name, err)
			}
		}

		for _, ie := range cat.IndexesForTable(name) {
			if _, err := indexes.CreateIndex(name, ie.Column, ie.Unique); err != nil {
				store.Close()
				lock.Unlock()
				return nil, fmt.Errorf("engine: rebuilding index %q: %w", ie.Name, err)
			}
		}

		rows, err := store.Scan(ctx, name)
		if err != nil {
			store.Close()
			lock.Unlock()
			return nil, fmt.Errorf("engine: scanning table %q for index rebuild: %w", name, err)
		}
		for _, ie := range cat.IndexesForTable(name) {
			refs := make([]index.RowRef, 0, len(rows))
			for _, r := range rows {
				refs = append(refs, index.RowRef{ID: r.ID, Data: r.Data})
			}
			if err := indexes.Rebuild(name, ie.Column, refs); err != nil {
				store.Close()
				lock.Unlock()
				return nil, fmt.Errorf("engine: populating rebuilt index %q: %w", ie.Name, err)
			}
		}
	}

	e := &Engine{
		dataDir: dataDir,
		backend: backend,
		lock:    lock,
		schemas: schemas,
		catalog: cat,
		store:   store,
		indexes: indexes,
		exec:    executor.New(schemas, cat, store, indexes),
	}
	return e, nil
}

// Execute parses and runs one SQL statement.
func (e *Engine) Execute(ctx context.Context, sql string) *ExecResult {
	q, err := parser.Parse(sql)
	if err != nil {
		return &ExecResult{Success: false, Message: err.Error()}
	}
	return e.exec.Execute(ctx, q)
}

// Stats reports row and index statistics for table.
func (e *Engine) Stats(table string) (TableStats, error) {
	info, ok := e.catalog.TableInfo(table)
	if !ok {
		return TableStats{}, fmt.Errorf("engine: table %q does not exist", table)
	}
	return TableStats{
		Table:    table,
		RowCount: info.RowCount,
		Indexes:  e.indexes.AllStats(table),
	}, nil
}

// Close releases the storage backend and the data directory lock.
func (e *Engine) Close() error {
	err := e.store.Close()
	if unlockErr := e.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}
