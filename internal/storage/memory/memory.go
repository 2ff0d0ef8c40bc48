// Package memory implements storage.Storage with in-memory maps. It never
// touches disk; callers that need durability across restarts should use the
// sqlitekv backend instead.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sakachris/simpldb/internal/storage"
	"github.com/sakachris/simpldb/internal/sqltypes"
)

type table struct {
	rows   map[int64]storage.Row
	nextID int64
}

// Storage is the in-memory backend.
type Storage struct {
	mu     sync.RWMutex
	tables map[string]*table
	closed bool
}

// New returns an empty in-memory backend.
func New() *Storage {
	return &Storage{tables: make(map[string]*table)}
}

func (s *Storage) CreateTable(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; exists {
		return &storage.AlreadyExistsError{Table: name}
	}
	s.tables[name] = &table{rows: make(map[int64]storage.Row), nextID: 1}
	return nil
}

func (s *Storage) DropTable(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; !exists {
		return &storage.NotFoundError{Table: name}
	}
	delete(s.tables, name)
	return nil
}

func (s *Storage) TableExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.tables[name]
	return exists, nil
}

func (s *Storage) Insert(ctx context.Context, name string, data map[string]sqltypes.Value) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return 0, &storage.NotFoundError{Table: name}
	}
	now := time.Now()
	id := t.nextID
	t.nextID++
	t.rows[id] = storage.Row{ID: id, Data: cloneData(data), CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (s *Storage) Get(ctx context.Context, name string, id int64) (storage.Row, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.Row{}, false, &storage.NotFoundError{Table: name}
	}
	r, ok := t.rows[id]
	if !ok {
		return storage.Row{}, false, nil
	}
	return r.Clone(), true, nil
}

func (s *Storage) Update(ctx context.Context, name string, id int64, data map[string]sqltypes.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return &storage.NotFoundError{Table: name}
	}
	r, ok := t.rows[id]
	if !ok {
		return &storage.NotFoundError{Table: name, ID: id}
	}
	r.Data = cloneData(data)
	r.UpdatedAt = time.Now()
	t.rows[id] = r
	return nil
}

func (s *Storage) Delete(ctx context.Context, name string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return &storage.NotFoundError{Table: name}
	}
	if _, ok := t.rows[id]; !ok {
		return &storage.NotFoundError{Table: name, ID: id}
	}
	delete(t.rows, id)
	return nil
}

func (s *Storage) Scan(ctx context.Context, name string) ([]storage.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, &storage.NotFoundError{Table: name}
	}
	out := make([]storage.Row, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Storage) Count(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return 0, &storage.NotFoundError{Table: name}
	}
	return len(t.rows), nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func cloneData(data map[string]sqltypes.Value) map[string]sqltypes.Value {
	out := make(map[string]sqltypes.Value, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
