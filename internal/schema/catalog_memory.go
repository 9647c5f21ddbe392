package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/koustreak/dbinit/internal/database"
	"github.com/koustreak/dbinit/internal/errs"
)

// MemoryCatalog is an in-process Catalog holding column definitions in a
// map. Statements it rendered itself are applied to that map; anything else
// is rejected. It backs dry runs.
type MemoryCatalog struct {
	mu       sync.Mutex
	render   Catalog
	columns  map[string]ColumnInfo
	pending  map[string]Descriptor
	executed []string
}

// NewMemoryCatalog returns an empty catalog rendering statements for dialect.
func NewMemoryCatalog(dialect database.Dialect) *MemoryCatalog {
	var render Catalog = NewMySQLCatalog(nil)
	if dialect == database.DialectPostgres {
		render = NewPostgresCatalog(nil)
	}
	return &MemoryCatalog{
		render:  render,
		columns: make(map[string]ColumnInfo),
		pending: make(map[string]Descriptor),
	}
}

func columnKey(table, column string) string {
	return strings.ToLower(table + "." + column)
}

// Define adds or replaces a column of table.
func (m *MemoryCatalog) Define(table string, col ColumnInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.columns[columnKey(table, col.Name)] = col
}

func (m *MemoryCatalog) AlterStatement(d Descriptor) string {
	stmt := m.render.AlterStatement(d)

	m.mu.Lock()
	m.pending[stmt] = d
	m.mu.Unlock()

	return stmt
}

func (m *MemoryCatalog) Execute(_ context.Context, statement string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executed = append(m.executed, statement)

	d, ok := m.pending[statement]
	if !ok {
		return errs.New(errs.ErrKindQueryFailed, "unsupported statement")
	}
	key := columnKey(d.Table, d.Column)
	col, ok := m.columns[key]
	if !ok {
		return errs.New(errs.ErrKindNotFound, fmt.Sprintf("column %s does not exist", d))
	}

	col.Type = strings.ToLower(d.Type)
	col.Nullable = !d.NotNull
	col.Extra = ""
	if d.AutoIncrement {
		col.Extra = AutoIncrementMarker
	}
	m.columns[key] = col
	return nil
}

func (m *MemoryCatalog) QueryColumns(_ context.Context, table, column string) ([]ColumnInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.columns[columnKey(table, column)]
	if !ok {
		return []ColumnInfo{}, nil
	}
	return []ColumnInfo{col}, nil
}

// Executed returns every statement passed to Execute, in order.
func (m *MemoryCatalog) Executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.executed))
	copy(out, m.executed)
	return out
}
