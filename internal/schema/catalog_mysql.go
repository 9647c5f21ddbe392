package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/dbinit/internal/database"
)

// MySQLCatalog implements Catalog for MySQL and MariaDB using
// information_schema. The schema is the connection's default database.
type MySQLCatalog struct {
	sqlCatalog
}

// NewMySQLCatalog creates a new MySQL column catalog
func NewMySQLCatalog(db database.DB) *MySQLCatalog {
	return &MySQLCatalog{sqlCatalog{db: db}}
}

// AlterStatement renders
//
//	ALTER TABLE `t` MODIFY COLUMN `c` BIGINT NOT NULL AUTO_INCREMENT
//
// MODIFY restates the whole definition, so type and nullability ride along.
func (m *MySQLCatalog) AlterStatement(d Descriptor) string {
	q := database.DialectMySQL
	stmt := fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s",
		q.QuoteIdent(d.Table), q.QuoteIdent(d.Column), d.Type)
	if d.NotNull {
		stmt += " NOT NULL"
	}
	if d.AutoIncrement {
		stmt += " AUTO_INCREMENT"
	}
	return stmt
}

// QueryColumns reads column_type, nullability and extra for table.column.
// extra holds "auto_increment" on auto-increment columns.
func (m *MySQLCatalog) QueryColumns(ctx context.Context, table, column string) ([]ColumnInfo, error) {
	const q = `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable = 'YES' AS is_nullable,
			c.extra
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE()
		  AND c.table_name   = ?
		  AND c.column_name  = ?`

	return m.queryColumns(ctx, q, table, column)
}
