// Package memory is an in-process warehouse for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/foospace/sprintsync/internal/types"
	"github.com/foospace/sprintsync/internal/warehouse"
)

type table struct {
	schema warehouse.Schema
	rows   []warehouse.Row
}

// Store keeps tables in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table

	// FailOn, when set, forces the named operation ("delete", "append",
	// "distinct") to fail for the named table.
	FailOn map[string]string
}

var _ warehouse.Warehouse = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

func (s *Store) injected(op, name string) error {
	if s.FailOn != nil && s.FailOn[name] == op {
		return fmt.Errorf("memory: injected %s failure on %s", op, name)
	}
	return nil
}

// EnsureTable creates the table if missing.
func (s *Store) EnsureTable(_ context.Context, name string, schema warehouse.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		s.tables[name] = &table{schema: schema}
	}
	return nil
}

// DeleteWhere drops matching rows. A missing table deletes nothing.
func (s *Store) DeleteWhere(_ context.Context, name string, pred warehouse.Predicate) (int64, error) {
	if err := s.injected("delete", name); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return 0, nil
	}
	before := len(t.rows)
	var err error
	t.rows = slices.DeleteFunc(t.rows, func(r warehouse.Row) bool {
		m, merr := matches(t.schema, r, pred)
		if merr != nil {
			err = merr
		}
		return m
	})
	return int64(before - len(t.rows)), err
}

// AppendRows adds copies of rows, creating the table on first write.
func (s *Store) AppendRows(_ context.Context, name string, schema warehouse.Schema, rows []warehouse.Row) (int64, error) {
	if err := s.injected("append", name); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		t = &table{schema: schema}
		s.tables[name] = t
	}
	for i, r := range rows {
		if len(r) != len(t.schema.Columns) {
			return 0, fmt.Errorf("row %d has %d values, table %s has %d columns", i, len(r), name, len(t.schema.Columns))
		}
	}
	for _, r := range rows {
		t.rows = append(t.rows, normalizeRow(r))
	}
	return int64(len(rows)), nil
}

// DistinctValues returns distinct non-null values of column in first-seen order.
func (s *Store) DistinctValues(_ context.Context, name, column string, pred warehouse.Predicate) ([]string, error) {
	if err := s.injected("distinct", name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("memory: table %s not found", name)
	}
	idx := t.schema.Index(column)
	if idx < 0 {
		return nil, fmt.Errorf("memory: table %s has no column %s", name, column)
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		ok, err := matches(t.schema, r, pred)
		if err != nil {
			return nil, err
		}
		if !ok || r[idx] == nil {
			continue
		}
		v := fmt.Sprint(r[idx])
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Rows returns a copy of the table's rows.
func (s *Store) Rows(name string) []warehouse.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	out := make([]warehouse.Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Column returns one column of every row, keyed by the value of keyCol.
func (s *Store) Column(name, keyCol, valCol string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	k, v := t.schema.Index(keyCol), t.schema.Index(valCol)
	out := make(map[string]any, len(t.rows))
	for _, r := range t.rows {
		out[fmt.Sprint(r[k])] = r[v]
	}
	return out
}

func normalizeRow(r warehouse.Row) warehouse.Row {
	out := slices.Clone(r)
	for i, v := range out {
		if t, ok := v.(time.Time); ok {
			out[i] = warehouse.NormalizeDate(t)
		}
	}
	return out
}

func matches(schema warehouse.Schema, r warehouse.Row, pred warehouse.Predicate) (bool, error) {
	for _, c := range pred {
		idx := schema.Index(c.Column)
		if idx < 0 {
			return false, fmt.Errorf("memory: unknown column %s", c.Column)
		}
		eq := equal(r[idx], c.Value)
		switch c.Op {
		case warehouse.OpEq:
			if !eq {
				return false, nil
			}
		case warehouse.OpNotEq:
			// SQL semantics: NULL != x is not true.
			if eq || r[idx] == nil {
				return false, nil
			}
		default:
			return false, fmt.Errorf("memory: unsupported operator %q", c.Op)
		}
	}
	return true, nil
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return warehouse.NormalizeDate(ta).Equal(warehouse.NormalizeDate(tb))
		}
		return ta.Format(types.DateLayout) == fmt.Sprint(b)
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
