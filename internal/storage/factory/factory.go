// Package factory creates a storage.Storage backend by name.
package factory

import (
	"context"
	"fmt"

	"github.com/sakachris/simpldb/internal/storage"
	"github.com/sakachris/simpldb/internal/storage/memory"
	"github.com/sakachris/simpldb/internal/storage/sqlitekv"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// New creates a storage backend. path is ignored for the memory backend and
// is the SQLite file path for the sqlite backend.
func New(ctx context.Context, backend, path string) (storage.Storage, error) {
	switch backend {
	case BackendMemory, "":
		return memory.New(), nil
	case BackendSQLite:
		return sqlitekv.New(ctx, path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: %s, %s)", backend, BackendMemory, BackendSQLite)
	}
}
