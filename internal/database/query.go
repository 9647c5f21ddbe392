package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/dbinit/internal/errs"
)

// Dialect controls placeholder style and identifier quoting.
type Dialect int

const (
	// DialectMySQL uses ? placeholders and `backtick` identifiers.
	DialectMySQL Dialect = iota

	// DialectPostgres uses $1, $2, … placeholders and "double-quoted" identifiers.
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "mysql"
}

// Placeholder returns the parameter placeholder for the 1-based position idx.
// Postgres: $1, $2, …   MySQL: ? (index is ignored)
func (d Dialect) Placeholder(idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// QuoteIdent quotes a table or column name for the dialect. Identifiers
// cannot be bound as parameters, so every DDL statement goes through this.
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectPostgres {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// validOps is the allowlist of comparison operators for WHERE clauses.
// The operator position cannot be parameterized.
var validOps = map[string]bool{
	"=":  true,
	"!=": true,
	"<>": true,
	"<":  true,
	">":  true,
	"<=": true,
	">=": true,
}

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Values are never interpolated into the SQL string; always passed as args.
//
// Usage:
//
//	sql, args, err := Select("td_company", DialectMySQL).
//	    Columns("company_id", "name").
//	    Where("name", "=", "Acme Corp").
//	    Limit(1).
//	    Build()
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	where   []whereClause
	limit   *int
}

type whereClause struct {
	column string
	op     string
	value  any
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition. Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Build produces the final SQL string and argument slice.
// Returns an invalid_input error if any WHERE operator is not allowed.
func (b *SelectBuilder) Build() (string, []any, error) {
	if b.table == "" {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "select: table is required")
	}

	cols := "*"
	if len(b.columns) > 0 {
		cols = b.quoteList(b.columns)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.dialect.QuoteIdent(b.table))

	var args []any
	argIdx := 1

	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			op := strings.ToUpper(w.op)
			if !validOps[op] {
				return "", nil, errs.New(errs.ErrKindInvalidInput,
					fmt.Sprintf("unsupported WHERE operator: %q", w.op))
			}
			parts = append(parts, fmt.Sprintf("%s %s %s",
				b.dialect.QuoteIdent(w.column), op, b.dialect.Placeholder(argIdx)))
			args = append(args, w.value)
			argIdx++
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if b.limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.dialect.Placeholder(argIdx))
		args = append(args, *b.limit)
	}

	return sb.String(), args, nil
}

func (b *SelectBuilder) quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = b.dialect.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// InsertBuilder constructs a parameterized single-row INSERT.
//
// Usage:
//
//	sql, args, err := Insert("td_department", DialectPostgres).
//	    Set("code", "ACME-ENG").
//	    Set("company_id", 1).
//	    Returning("department_id").
//	    Build()
type InsertBuilder struct {
	table     string
	dialect   Dialect
	columns   []string
	values    []any
	returning string
}

// Insert starts a new InsertBuilder for the given table and dialect.
func Insert(table string, d Dialect) *InsertBuilder {
	return &InsertBuilder{table: table, dialect: d}
}

// Set adds one column/value pair. Setting the same column twice keeps the
// last value.
func (b *InsertBuilder) Set(column string, value any) *InsertBuilder {
	for i, c := range b.columns {
		if c == column {
			b.values[i] = value
			return b
		}
	}
	b.columns = append(b.columns, column)
	b.values = append(b.values, value)
	return b
}

// Returning appends a RETURNING clause. Only Postgres supports it; the
// builder ignores it for MySQL, where callers read LastInsertID instead.
func (b *InsertBuilder) Returning(column string) *InsertBuilder {
	b.returning = column
	return b
}

// Build produces the final SQL string and argument slice.
func (b *InsertBuilder) Build() (string, []any, error) {
	if b.table == "" {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "insert: table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "insert: no columns set")
	}

	cols := make([]string, len(b.columns))
	marks := make([]string, len(b.columns))
	for i, c := range b.columns {
		cols[i] = b.dialect.QuoteIdent(c)
		marks[i] = b.dialect.Placeholder(i + 1)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.dialect.QuoteIdent(b.table),
		strings.Join(cols, ", "),
		strings.Join(marks, ", "),
	)
	if b.returning != "" && b.dialect == DialectPostgres {
		sql += " RETURNING " + b.dialect.QuoteIdent(b.returning)
	}

	args := make([]any, len(b.values))
	copy(args, b.values)
	return sql, args, nil
}
