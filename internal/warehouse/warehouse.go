// Package warehouse defines the analytics warehouse contract and the
// delete-then-append upload used to publish one sprint's rows.
package warehouse

import (
	"context"
	"time"
)

// ColumnType is the logical type of a warehouse column.
type ColumnType string

const (
	TypeString ColumnType = "STRING"
	TypeInt64  ColumnType = "INT64"
	TypeDate   ColumnType = "DATE"
)

// Column describes one table column.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Schema is an ordered column list. Row values are positional.
type Schema struct {
	Columns []Column
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Row is one positional row matching a Schema.
type Row []any

// Op is a comparison operator in a predicate.
type Op string

const (
	OpEq    Op = "="
	OpNotEq Op = "!="
)

// Cond compares a column against a literal value.
type Cond struct {
	Column string
	Op     Op
	Value  any
}

// Predicate is a conjunction of conditions. An empty predicate matches every row.
type Predicate []Cond

// Eq is shorthand for an equality condition.
func Eq(column string, value any) Cond { return Cond{Column: column, Op: OpEq, Value: value} }

// NotEq is shorthand for an inequality condition.
func NotEq(column string, value any) Cond { return Cond{Column: column, Op: OpNotEq, Value: value} }

// Warehouse is the tabular store the sync publishes into.
type Warehouse interface {
	// EnsureTable creates the table if it does not exist.
	EnsureTable(ctx context.Context, table string, schema Schema) error

	// DeleteWhere removes every row matching pred and reports how many went.
	DeleteWhere(ctx context.Context, table string, pred Predicate) (int64, error)

	// AppendRows inserts rows without touching existing data.
	AppendRows(ctx context.Context, table string, schema Schema, rows []Row) (int64, error)

	// DistinctValues returns the distinct non-null values of column among rows matching pred.
	DistinctValues(ctx context.Context, table, column string, pred Predicate) ([]string, error)

	// Close releases connections.
	Close() error
}

// NormalizeDate strips the clock so DATE columns hold calendar dates only.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
