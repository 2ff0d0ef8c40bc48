// Package catalog persists the durable metadata document describing every
// table and index the engine knows about: schemas, row counts, creation
// and modification timestamps, and database-wide metadata key/value pairs.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const fileName = "catalog.yaml"
const formatVersion = "1.0.0"

// TableEntry is one table's catalog record.
type TableEntry struct {
	CreatedAt    time.Time    `yaml:"created_at"`
	LastModified time.Time    `yaml:"last_modified"`
	Schema       StoredSchema `yaml:"schema"`
	RowCount     int          `yaml:"row_count"`
}

// IndexEntry is one index's catalog record, keyed by "table.column".
type IndexEntry struct {
	Name      string    `yaml:"name"`
	Table     string    `yaml:"table"`
	Column    string    `yaml:"column"`
	Unique    bool      `yaml:"unique"`
	CreatedAt time.Time `yaml:"created_at"`
}

type document struct {
	Version   string                 `yaml:"version"`
	CreatedAt time.Time              `yaml:"created_at"`
	Tables    map[string]*TableEntry `yaml:"tables"`
	Indexes   map[string]*IndexEntry `yaml:"indexes"`
	Metadata  map[string]string      `yaml:"metadata"`
}

// Catalog is the concurrency-safe, disk-backed metadata document. Catalog
// mutations serialize with each other via mu but never block table data
// mutations in storage/index — spec.md §5's catalog/table lock separation.
type Catalog struct {
	mu   sync.RWMutex
	path string
	doc  document
}

// Open loads the catalog document at dataDir/catalog.yaml, creating an
// empty one if it does not yet exist.
func Open(dataDir string) (*Catalog, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: creating data directory: %w", err)
	}
	path := filepath.Join(dataDir, fileName)
	c := &Catalog{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c.doc = document{
			Version:   formatVersion,
			CreatedAt: time.Now(),
			Tables:    make(map[string]*TableEntry),
			Indexes:   make(map[string]*IndexEntry),
			Metadata:  make(map[string]string),
		}
		if err := c.save(); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", path, err)
	}
	if doc.Tables == nil {
		doc.Tables = make(map[string]*TableEntry)
	}
	if doc.Indexes == nil {
		doc.Indexes = make(map[string]*IndexEntry)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}
	c.doc = doc
	return c, nil
}

func (c *Catalog) save() error {
	data, err := yaml.Marshal(c.doc)
	if err != nil {
		return fmt.Errorf("catalog: encoding: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("catalog: writing %s: %w", c.path, err)
	}
	return nil
}

// RegisterTable adds a new table entry with row_count 0. It fails if the
// table is already registered.
func (c *Catalog) RegisterTable(name string, schema StoredSchema) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.doc.Tables[name]; exists {
		return fmt.Errorf("catalog: table %q already registered", name)
	}
	now := time.Now()
	c.doc.Tables[name] = &TableEntry{CreatedAt: now, LastModified: now, Schema: schema}
	return c.save()
}

// UnregisterTable removes a table entry and every index entry belonging to
// it (the original engine's "indexes keyed table.column get dropped
// alongside their table" behavior).
func (c *Catalog) UnregisterTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.doc.Tables[name]; !exists {
		return fmt.Errorf("catalog: table %q not registered", name)
	}
	delete(c.doc.Tables, name)
	prefix := name + "."
	for key := range c.doc.Indexes {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(c.doc.Indexes, key)
		}
	}
	return c.save()
}

// RegisterIndex adds a new index entry keyed "table.column".
func (c *Catalog) RegisterIndex(table, column, indexName string, unique bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := table + "." + column
	if _, exists := c.doc.Indexes[key]; exists {
		return fmt.Errorf("catalog: index on %s.%s already registered", table, column)
	}
	c.doc.Indexes[key] = &IndexEntry{Name: indexName, Table: table, Column: column, Unique: unique, CreatedAt: time.Now()}
	return c.save()
}

// UnregisterIndex removes an index entry.
func (c *Catalog) UnregisterIndex(table, column string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := table + "." + column
	if _, exists := c.doc.Indexes[key]; !exists {
		return fmt.Errorf("catalog: no index on %s.%s", table, column)
	}
	delete(c.doc.Indexes, key)
	return c.save()
}

// UpdateTableStats sets a table's row_count and bumps last_modified.
func (c *Catalog) UpdateTableStats(table string, rowCount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, exists := c.doc.Tables[table]
	if !exists {
		return fmt.Errorf("catalog: table %q not registered", table)
	}
	entry.RowCount = rowCount
	entry.LastModified = time.Now()
	return c.save()
}

// TableInfo returns a table's catalog entry.
func (c *Catalog) TableInfo(table string) (TableEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.doc.Tables[table]
	if !ok {
		return TableEntry{}, false
	}
	return *entry, true
}

// Tables returns every registered table name, sorted.
func (c *Catalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.doc.Tables))
	for name := range c.doc.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IndexesForTable returns every index entry registered for table.
func (c *Catalog) IndexesForTable(table string) []IndexEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prefix := table + "."
	var out []IndexEntry
	for key, entry := range c.doc.Indexes {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out
}

// SetMetadata stores a database-wide metadata key/value pair.
func (c *Catalog) SetMetadata(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc.Metadata[key] = value
	return c.save()
}

// GetMetadata returns a database-wide metadata value, or "" if unset.
func (c *Catalog) GetMetadata(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Metadata[key]
}
