package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/dbinit/internal/database"
)

// Catalog is the SQL capability the reconciler needs: render the dialect's
// alteration, run it, and read the column back from the catalog.
type Catalog interface {
	// AlterStatement renders the DDL that brings the column to d.
	AlterStatement(d Descriptor) string

	// Execute runs a DDL statement.
	Execute(ctx context.Context, statement string) error

	// QueryColumns returns the catalog rows for table.column; an empty
	// slice means the table or column does not exist.
	QueryColumns(ctx context.Context, table, column string) ([]ColumnInfo, error)
}

// NewCatalog returns the catalog matching db's dialect.
func NewCatalog(db database.DB) Catalog {
	if db.Dialect() == database.DialectPostgres {
		return NewPostgresCatalog(db)
	}
	return NewMySQLCatalog(db)
}

// sqlCatalog holds the parts both dialects share.
type sqlCatalog struct {
	db database.DB
}

func (c sqlCatalog) Execute(ctx context.Context, statement string) error {
	_, err := c.db.Exec(ctx, statement)
	return err
}

// queryColumns runs q with (table, column) and scans
// name, type, nullable, extra from every row.
func (c sqlCatalog) queryColumns(ctx context.Context, q, table, column string) ([]ColumnInfo, error) {
	rows, err := c.db.Query(ctx, q, table, column)
	if err != nil {
		return nil, fmt.Errorf("query columns %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	cols := make([]ColumnInfo, 0, 1)
	for rows.Next() {
		var col ColumnInfo
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Extra); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
