package dolt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/foospace/sprintsync/internal/warehouse"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

func validateIdentifier(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("identifier %q must match %s", name, identPattern.String())
	}
	return nil
}

// quoteIdent backtick-quotes each dot-separated part. Callers validate first.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + p + "`"
	}
	return strings.Join(parts, ".")
}

func checkedIdent(name string) (string, error) {
	for _, p := range strings.Split(name, ".") {
		if err := validateIdentifier(p); err != nil {
			return "", err
		}
	}
	return quoteIdent(name), nil
}

func sqlType(t warehouse.ColumnType) (string, error) {
	switch t {
	case warehouse.TypeString:
		return "TEXT", nil
	case warehouse.TypeInt64:
		return "BIGINT", nil
	case warehouse.TypeDate:
		return "DATE", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", t)
	}
}

func createTableSQL(table string, schema warehouse.Schema) (string, error) {
	tbl, err := checkedIdent(table)
	if err != nil {
		return "", err
	}
	if len(schema.Columns) == 0 {
		return "", fmt.Errorf("table %s: empty schema", table)
	}
	defs := make([]string, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		col, err := checkedIdent(c.Name)
		if err != nil {
			return "", err
		}
		typ, err := sqlType(c.Type)
		if err != nil {
			return "", err
		}
		null := " NOT NULL"
		if c.Nullable {
			null = ""
		}
		defs = append(defs, col+" "+typ+null)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", tbl, strings.Join(defs, ",\n  ")), nil
}

func whereClause(pred warehouse.Predicate) (string, []any, error) {
	if len(pred) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(pred))
	args := make([]any, 0, len(pred))
	for _, c := range pred {
		col, err := checkedIdent(c.Column)
		if err != nil {
			return "", nil, err
		}
		switch c.Op {
		case warehouse.OpEq, warehouse.OpNotEq:
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		conds = append(conds, fmt.Sprintf("%s %s ?", col, c.Op))
		args = append(args, bindValue(c.Value))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func deleteSQL(table string, pred warehouse.Predicate) (string, []any, error) {
	tbl, err := checkedIdent(table)
	if err != nil {
		return "", nil, err
	}
	where, args, err := whereClause(pred)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + tbl + where, args, nil
}

func distinctSQL(table, column string, pred warehouse.Predicate) (string, []any, error) {
	tbl, err := checkedIdent(table)
	if err != nil {
		return "", nil, err
	}
	col, err := checkedIdent(column)
	if err != nil {
		return "", nil, err
	}
	where, args, err := whereClause(pred)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s%s", col, tbl, where), args, nil
}

func insertSQL(table string, schema warehouse.Schema, rows []warehouse.Row) (string, []any, error) {
	tbl, err := checkedIdent(table)
	if err != nil {
		return "", nil, err
	}
	cols := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		if cols[i], err = checkedIdent(c.Name); err != nil {
			return "", nil, err
		}
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	tuples := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(cols))
	for i, r := range rows {
		if len(r) != len(cols) {
			return "", nil, fmt.Errorf("row %d has %d values, table %s has %d columns", i, len(r), table, len(cols))
		}
		tuples[i] = placeholder
		for _, v := range r {
			args = append(args, bindValue(v))
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", tbl, strings.Join(cols, ", "), strings.Join(tuples, ", ")), args, nil
}
