package fixture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/codec"
	"slices"
	"sync"
)

// ErrTableNotFound is returned when scanning a table the store does not hold.
var ErrTableNotFound = errors.New("table not found")

// Table is an in-memory table with rows kept in key order.
type Table struct {
	name string
	rows map[string]*chunk.Row
	keys [][]byte
}

// NewTable returns an empty table.
func NewTable(name string) *Table {
	return &Table{
		name: name,
		rows: make(map[string]*chunk.Row),
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.keys)
}

// Add stores one cell.
func (t *Table) Add(e *Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	v, err := e.value()
	if err != nil {
		return err
	}

	row, ok := t.rows[e.Key]
	if !ok {
		row = chunk.NewRow([]byte(e.Key))
		t.rows[e.Key] = row
		i, _ := slices.BinarySearchFunc(t.keys, row.Key, bytes.Compare)
		t.keys = slices.Insert(t.keys, i, row.Key)
	}
	col := row.EnsureFamily(e.Family).EnsureColumn([]byte(e.Qualifier), codec.String(e.Qualifier))
	col.Cells = append(col.Cells, &chunk.Cell{
		Value:           v,
		Labels:          e.Labels,
		TimestampMicros: e.Timestamp,
	})
	return nil
}

// Row returns the row stored under key.
func (t *Table) Row(key string) (*chunk.Row, bool) {
	r, ok := t.rows[key]
	return r, ok
}

// Scan calls fn for every row in key order, or in reverse key order. It stops at the first
// error fn returns.
func (t *Table) Scan(ctx context.Context, reversed bool, fn func(*chunk.Row) error) error {
	n := len(t.keys)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		k := t.keys[i]
		if reversed {
			k = t.keys[n-1-i]
		}
		if err := fn(t.rows[string(k)]); err != nil {
			return err
		}
	}
	return nil
}

// Store holds tables by name.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewStore returns a store holding tables.
func NewStore(tables ...*Table) *Store {
	s := &Store{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.tables[t.name] = t
	}
	return s
}

// Put adds or replaces a table.
func (s *Store) Put(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.name] = t
}

// Scan scans the named table.
func (s *Store) Scan(ctx context.Context, table string, reversed bool, fn func(*chunk.Row) error) error {
	s.mu.RLock()
	t, ok := s.tables[table]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return t.Scan(ctx, reversed, fn)
}
